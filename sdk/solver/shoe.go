package solver

import (
	"fmt"

	"github.com/lox/banban/internal/deck"
)

const copiesPerRank = deck.NumSuits

// Shoe holds the remaining card count per rank. It is a value type: Remove
// and Restore return a new shoe, so sibling branches of the recursion never
// observe each other's draws.
type Shoe struct {
	counts [deck.NumRanks]uint8
	total  uint8
}

// NewShoe returns a full single-deck shoe, four of each rank.
func NewShoe() Shoe {
	var s Shoe
	for i := range s.counts {
		s.counts[i] = copiesPerRank
	}
	s.total = deck.DeckSize
	return s
}

// Count returns the remaining cards of rank r.
func (s Shoe) Count(r deck.Rank) int {
	return int(s.counts[r])
}

// Total returns the number of cards left in the shoe.
func (s Shoe) Total() int {
	return int(s.total)
}

// Counts returns a copy of the per-rank counts in shoe order.
func (s Shoe) Counts() [deck.NumRanks]int {
	var out [deck.NumRanks]int
	for i, c := range s.counts {
		out[i] = int(c)
	}
	return out
}

// Remove returns the shoe with one card of rank r dealt. Callers only remove
// ranks they have seen a positive count for; anything else is a bug.
func (s Shoe) Remove(r deck.Rank) Shoe {
	if s.counts[r] == 0 {
		panic(fmt.Sprintf("solver: no %s left in shoe", r))
	}
	s.counts[r]--
	s.total--
	return s
}

// Restore returns the shoe with one card of rank r put back.
func (s Shoe) Restore(r deck.Rank) Shoe {
	if s.counts[r] >= copiesPerRank {
		panic(fmt.Sprintf("solver: shoe already holds every %s", r))
	}
	s.counts[r]++
	s.total++
	return s
}

// without removes concrete cards, failing instead of panicking when a rank is
// already exhausted. Used to seed a shoe from user input.
func (s Shoe) without(cards ...deck.Card) (Shoe, error) {
	for _, c := range cards {
		if c.Rank >= deck.NumRanks {
			return s, fmt.Errorf("%w: unknown rank in %v", ErrInvalidInput, c)
		}
		if s.counts[c.Rank] == 0 {
			return s, fmt.Errorf("%w: no %s left for %v", ErrInvalidInput, c.Rank, c)
		}
		s = s.Remove(c.Rank)
	}
	return s, nil
}
