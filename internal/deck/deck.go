package deck

import "fmt"

// DeckSize is the number of cards in a single deck.
const DeckSize = NumRanks * NumSuits

// Pair is an unordered two-card starting hand. A always precedes B in deck
// order so every pair has exactly one representation.
type Pair struct {
	A Card
	B Card
}

// NewPair orders two cards into a canonical Pair.
func NewPair(a, b Card) Pair {
	if b.Index() < a.Index() {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// String returns the canonical pair key, e.g. "AS KH"
func (p Pair) String() string {
	return p.A.String() + " " + p.B.String()
}

// Cards returns the pair as a slice
func (p Pair) Cards() []Card {
	return []Card{p.A, p.B}
}

// NewDeck returns the 52 cards of a single deck in rank-major order. The
// solver never shuffles: it enumerates.
func NewDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for rank := Ace; rank <= King; rank++ {
		for suit := Spades; suit <= Clubs; suit++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// Pairs enumerates all C(52,2) = 1326 distinct starting hands.
func Pairs() []Pair {
	cards := NewDeck()
	pairs := make([]Pair, 0, DeckSize*(DeckSize-1)/2)
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			pairs = append(pairs, Pair{A: cards[i], B: cards[j]})
		}
	}
	return pairs
}

// ParsePair parses two distinct card tokens such as "AS KH".
func ParsePair(s string) (Pair, error) {
	cards, err := ParseCards(s)
	if err != nil {
		return Pair{}, err
	}
	if len(cards) != 2 {
		return Pair{}, fmt.Errorf("%w: pair needs 2 cards, got %d", ErrInvalidCard, len(cards))
	}
	if cards[0] == cards[1] {
		return Pair{}, fmt.Errorf("%w: duplicate card %v", ErrInvalidCard, cards[0])
	}
	return NewPair(cards[0], cards[1]), nil
}

// MarshalText encodes the pair as its canonical key.
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a pair key.
func (p *Pair) UnmarshalText(text []byte) error {
	parsed, err := ParsePair(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
