package solver

import (
	"github.com/lox/banban/internal/deck"
)

// dealerStartSize is the number of cards the dealer holds before deciding.
const dealerStartSize = 2

// engine evaluates the three mutually recursive value functions over a shared
// memo table. All arguments are values; nothing is mutated in place.
type engine struct {
	cache *evCache

	// trace, when set, observes every state entered. Tests use it to check
	// the card-conservation invariant.
	trace func(kind stateKind, player, dealer Hand, shoe Shoe)
}

func newEngine(cache *evCache) *engine {
	return &engine{cache: cache}
}

// standOff resolves the hands as they are: the player's multiplier if the
// dealer is bust or beaten, 0 on equal totals, -1 otherwise.
func standOff(player Hand, suited bool, dealer Hand) float64 {
	if player.IsBust() {
		return -1
	}
	if dealer.IsBust() {
		return player.Multiplier(suited)
	}
	p, d := player.BestTotal(), dealer.BestTotal()
	switch {
	case p > d:
		return player.Multiplier(suited)
	case p == d:
		return 0
	default:
		return -1
	}
}

// dealerValue is the player's EV once their hand is final, with the house
// choosing hit or stand to minimise it.
func (e *engine) dealerValue(player Hand, suited bool, dealer Hand, shoe Shoe) float64 {
	if e.trace != nil {
		e.trace(kindDealer, player, dealer, shoe)
	}
	if player.IsBust() {
		return -1
	}
	stand := standOff(player, suited, dealer)
	if dealer.IsBust() || dealer.Len() >= MaxHandSize || shoe.Total() == 0 {
		return stand
	}

	key := packKey(kindDealer, player, suited, dealer)
	if v, ok := e.cache.get(key); ok {
		return v
	}

	hit := 0.0
	total := float64(shoe.Total())
	for r := deck.Ace; r <= deck.King; r++ {
		c := shoe.Count(r)
		if c == 0 {
			continue
		}
		hit += float64(c) / total * e.dealerValue(player, suited, dealer.With(r), shoe.Remove(r))
	}

	v := min(stand, hit)
	e.cache.put(key, v)
	return v
}

// dealStart averages dealerValue over every way the dealer can be dealt up to
// two cards from the shoe. dealer is empty in blind mode or holds the upcard.
func (e *engine) dealStart(player Hand, suited bool, dealer Hand, shoe Shoe) float64 {
	if e.trace != nil {
		e.trace(kindDeal, player, dealer, shoe)
	}
	if player.IsBust() {
		return -1
	}
	need := dealerStartSize - dealer.Len()
	if need <= 0 {
		return e.dealerValue(player, suited, dealer, shoe)
	}
	if shoe.Total() < need {
		return standOff(player, suited, dealer)
	}

	key := packKey(kindDeal, player, suited, dealer)
	if v, ok := e.cache.get(key); ok {
		return v
	}

	var ev float64
	total := shoe.Total()
	if need == 1 {
		for r := deck.Ace; r <= deck.King; r++ {
			c := shoe.Count(r)
			if c == 0 {
				continue
			}
			ev += float64(c) / float64(total) * e.dealerValue(player, suited, dealer.With(r), shoe.Remove(r))
		}
	} else {
		combos := float64(total * (total - 1) / 2)
		for r1 := deck.Ace; r1 <= deck.King; r1++ {
			c1 := shoe.Count(r1)
			if c1 == 0 {
				continue
			}
			after := shoe.Remove(r1)
			if c1 >= 2 {
				ways := float64(c1 * (c1 - 1) / 2)
				ev += ways / combos * e.dealerValue(player, suited, dealer.With(r1).With(r1), after.Remove(r1))
			}
			for r2 := r1 + 1; r2 <= deck.King; r2++ {
				c2 := shoe.Count(r2)
				if c2 == 0 {
					continue
				}
				ways := float64(c1 * c2)
				ev += ways / combos * e.dealerValue(player, suited, dealer.With(r1).With(r2), after.Remove(r2))
			}
		}
	}

	e.cache.put(key, ev)
	return ev
}

// playerValue is the best EV the player can reach from a partial hand by
// choosing hit or stand. Standing hands the game to dealStart.
func (e *engine) playerValue(player Hand, suited bool, dealer Hand, shoe Shoe) float64 {
	if e.trace != nil {
		e.trace(kindPlayer, player, dealer, shoe)
	}
	if player.IsBust() || player.Len() >= MaxHandSize || shoe.Total() == 0 {
		return e.dealStart(player, suited, dealer, shoe)
	}

	key := packKey(kindPlayer, player, suited, dealer)
	if v, ok := e.cache.get(key); ok {
		return v
	}

	stand := e.dealStart(player, suited, dealer, shoe)
	hit := e.hitValue(player, dealer, shoe)
	v := max(stand, hit)
	e.cache.put(key, v)
	return v
}

// hitValue is the EV of drawing exactly one more card and then playing on
// optimally. Drawing always clears the suited-blackjack flag.
func (e *engine) hitValue(player Hand, dealer Hand, shoe Shoe) float64 {
	total := float64(shoe.Total())
	if total == 0 {
		return e.dealStart(player, false, dealer, shoe)
	}
	ev := 0.0
	for r := deck.Ace; r <= deck.King; r++ {
		c := shoe.Count(r)
		if c == 0 {
			continue
		}
		ev += float64(c) / total * e.playerValue(player.With(r), false, dealer, shoe.Remove(r))
	}
	return ev
}
