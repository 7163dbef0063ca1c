package runtime

import (
	"errors"
	"fmt"

	"github.com/lox/banban/internal/deck"
	"github.com/lox/banban/sdk/solver"
)

// ErrNotInChart is returned when a chart has no entry for a starting hand.
var ErrNotInChart = errors.New("hand not in chart")

// Policy answers starting-hand decisions from a precomputed chart without
// running the solver.
type Policy struct {
	chart *solver.Chart
}

// Load constructs a policy from a stored chart file.
func Load(path string) (*Policy, error) {
	chart, err := solver.LoadChart(path)
	if err != nil {
		return nil, err
	}
	return &Policy{chart: chart}, nil
}

// New wraps an in-memory chart after validating it.
func New(chart *solver.Chart) (*Policy, error) {
	if err := chart.Validate(); err != nil {
		return nil, err
	}
	return &Policy{chart: chart}, nil
}

// Chart returns the underlying chart (read-only).
func (p *Policy) Chart() *solver.Chart {
	if p == nil {
		return nil
	}
	return p.chart
}

// Decide returns the stored solution for two cards in either order.
func (p *Policy) Decide(a, b deck.Card) (solver.HandSolution, error) {
	if p == nil || p.chart == nil {
		return solver.HandSolution{}, errors.New("nil policy")
	}
	if a == b {
		return solver.HandSolution{}, fmt.Errorf("%w: duplicate card %v", solver.ErrInvalidInput, a)
	}
	sol, ok := p.chart.Lookup(a, b)
	if !ok {
		return solver.HandSolution{}, fmt.Errorf("%w: %s", ErrNotInChart, deck.NewPair(a, b))
	}
	return sol, nil
}

// DecideTokens parses two card tokens and looks the hand up.
func (p *Policy) DecideTokens(tokens ...string) (solver.HandSolution, error) {
	if len(tokens) != 2 {
		return solver.HandSolution{}, fmt.Errorf("%w: expected 2 cards, got %d", solver.ErrInvalidInput, len(tokens))
	}
	var cards [2]deck.Card
	for i, tok := range tokens {
		card, err := deck.ParseCard(tok)
		if err != nil {
			return solver.HandSolution{}, fmt.Errorf("%w: %w", solver.ErrInvalidInput, err)
		}
		cards[i] = card
	}
	return p.Decide(cards[0], cards[1])
}
