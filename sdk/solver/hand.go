package solver

import (
	"strings"

	"github.com/lox/banban/internal/deck"
)

// MaxHandSize is the card limit for either side. A five-card hand may not hit.
const MaxHandSize = 5

const bustLimit = 21

// Hand is an unordered multiset of ranks. Ranks are kept sorted so that every
// permutation of the same cards is the same value.
type Hand struct {
	ranks [MaxHandSize]deck.Rank
	n     uint8
}

// NewHand builds a hand from ranks in any order. It panics when given more
// than MaxHandSize ranks.
func NewHand(ranks ...deck.Rank) Hand {
	if len(ranks) > MaxHandSize {
		panic("solver: hand holds at most 5 cards")
	}
	var h Hand
	for _, r := range ranks {
		h = h.With(r)
	}
	return h
}

// Len returns the number of cards in the hand.
func (h Hand) Len() int {
	return int(h.n)
}

// Ranks returns the sorted ranks in the hand.
func (h Hand) Ranks() []deck.Rank {
	return append([]deck.Rank(nil), h.ranks[:h.n]...)
}

// With returns a copy of the hand with r added in sorted position.
func (h Hand) With(r deck.Rank) Hand {
	if h.n >= MaxHandSize {
		panic("solver: hand holds at most 5 cards")
	}
	i := int(h.n)
	for i > 0 && h.ranks[i-1] > r {
		h.ranks[i] = h.ranks[i-1]
		i--
	}
	h.ranks[i] = r
	h.n++
	return h
}

// Count returns how many cards of rank r the hand holds.
func (h Hand) Count(r deck.Rank) int {
	n := 0
	for _, x := range h.ranks[:h.n] {
		if x == r {
			n++
		}
	}
	return n
}

func (h Hand) String() string {
	parts := make([]string, h.n)
	for i, r := range h.ranks[:h.n] {
		parts[i] = r.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// parts splits the hand into the fixed value of its non-ace cards and the
// number of aces.
func (h Hand) parts() (base, aces int) {
	for _, r := range h.ranks[:h.n] {
		if r == deck.Ace {
			aces++
			continue
		}
		base += r.Value()
	}
	return base, aces
}

// aceOptions reports which ace upgrades the hand size allows on top of the
// always-available 1: {1,10,11} up to two cards, {1,10} at three, {1} beyond.
func (h Hand) aceOptions() (ten, eleven bool) {
	switch {
	case h.n <= 2:
		return true, true
	case h.n == 3:
		return true, false
	default:
		return false, false
	}
}

// forEachTotal calls fn with every achievable total, possibly more than once.
func (h Hand) forEachTotal(fn func(total int)) {
	base, aces := h.parts()
	ten, eleven := h.aceOptions()
	low := base + aces
	maxElevens := 0
	if eleven {
		maxElevens = aces
	}
	for k11 := 0; k11 <= maxElevens; k11++ {
		maxTens := 0
		if ten {
			maxTens = aces - k11
		}
		for k10 := 0; k10 <= maxTens; k10++ {
			fn(low + 9*k10 + 10*k11)
		}
	}
}

// Totals returns every achievable sum of the hand in ascending order. Each
// ace may take any value allowed by the hand's current size.
func (h Hand) Totals() []int {
	// five tens is 50, so every total fits in a 64-bit set
	var seen uint64
	h.forEachTotal(func(total int) {
		seen |= 1 << uint(total)
	})
	out := make([]int, 0, 4)
	for t := 0; t < 64; t++ {
		if seen&(1<<uint(t)) != 0 {
			out = append(out, t)
		}
	}
	return out
}

// BestTotal returns the highest total not above 21, or the lowest total when
// the hand is bust.
func (h Hand) BestTotal() int {
	best := -1
	h.forEachTotal(func(total int) {
		if total <= bustLimit && total > best {
			best = total
		}
	})
	if best < 0 {
		return h.minTotal()
	}
	return best
}

// IsBust is true when every achievable total exceeds 21.
func (h Hand) IsBust() bool {
	return h.minTotal() > bustLimit
}

func (h Hand) minTotal() int {
	base, aces := h.parts()
	return base + aces
}

// IsBlackjack reports an exactly-two-card hand of one ace and one ten-value card.
func (h Hand) IsBlackjack() bool {
	if h.n != 2 {
		return false
	}
	// sorted, so the ace comes first
	return h.ranks[0] == deck.Ace && h.ranks[1].IsTenValue()
}

// SpecialHand names a bonus-paying hand category.
type SpecialHand string

const (
	SpecialNone            SpecialHand = ""
	SpecialTripleSevens    SpecialHand = "triple-sevens"
	SpecialBanBan          SpecialHand = "ban-ban"
	SpecialSuitedBlackjack SpecialHand = "suited-blackjack"
	SpecialBlackjack       SpecialHand = "blackjack"
	SpecialFiveCardCharlie SpecialHand = "five-card-charlie"
)

// Classify returns the bonus category of a hand. Sizes 2, 3 and 5 are
// disjoint, so at most one category can apply.
func (h Hand) Classify(suitedBlackjack bool) SpecialHand {
	switch {
	case h.IsBust():
		return SpecialNone
	case h.n == 3 && h.Count(deck.Seven) == 3:
		return SpecialTripleSevens
	case h.n == 2 && h.Count(deck.Ace) == 2:
		return SpecialBanBan
	case h.IsBlackjack():
		if suitedBlackjack {
			return SpecialSuitedBlackjack
		}
		return SpecialBlackjack
	case h.n == MaxHandSize:
		return SpecialFiveCardCharlie
	default:
		return SpecialNone
	}
}

// Multiplier returns what a winning hand is paid per unit staked. Bust hands
// never win, so they report 0.
func (h Hand) Multiplier(suitedBlackjack bool) float64 {
	if h.IsBust() {
		return 0
	}
	switch h.Classify(suitedBlackjack) {
	case SpecialTripleSevens:
		return 7
	case SpecialBanBan, SpecialSuitedBlackjack:
		return 3
	case SpecialBlackjack, SpecialFiveCardCharlie:
		return 2
	default:
		return 1
	}
}

// key packs the sorted ranks into 23 bits: three bits of length followed by
// four bits per rank.
func (h Hand) key() uint64 {
	k := uint64(h.n)
	for i, r := range h.ranks[:h.n] {
		k |= uint64(r) << (3 + 4*uint(i))
	}
	return k
}
