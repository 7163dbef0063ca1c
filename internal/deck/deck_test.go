package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	cards := NewDeck()
	require.Len(t, cards, DeckSize)

	seen := make(map[Card]bool)
	for i, card := range cards {
		assert.False(t, seen[card], "duplicate card %v", card)
		seen[card] = true
		assert.Equal(t, i, card.Index())
	}
}

func TestPairs(t *testing.T) {
	pairs := Pairs()
	require.Len(t, pairs, 1326)

	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		assert.Less(t, p.A.Index(), p.B.Index(), "pair %v not canonical", p)
		assert.False(t, seen[p.String()], "duplicate pair %v", p)
		seen[p.String()] = true
	}
}

func TestNewPairCanonical(t *testing.T) {
	kh := NewCard(King, Hearts)
	as := NewCard(Ace, Spades)

	p := NewPair(kh, as)
	assert.Equal(t, as, p.A)
	assert.Equal(t, kh, p.B)
	assert.Equal(t, "AS KH", p.String())
	assert.Equal(t, p, NewPair(as, kh))
}
