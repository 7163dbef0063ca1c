package runtime

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/banban/internal/deck"
	"github.com/lox/banban/sdk/solver"
)

func testChart(t *testing.T) *solver.Chart {
	t.Helper()
	chart := solver.NewChart()
	chart.GeneratedAt = time.Now().UTC()
	p, err := deck.ParsePair("AS KH")
	if err != nil {
		t.Fatalf("parse pair: %v", err)
	}
	chart.Solutions[p.String()] = solver.HandSolution{
		Hand:          p,
		Action:        solver.ActionStand,
		ExpectedValue: 1.4,
		StandEV:       1.4,
		HitEV:         -0.2,
		Special:       solver.SpecialBlackjack,
		Multiplier:    2,
	}
	return chart
}

func TestPolicyDecideErrors(t *testing.T) {
	var p *Policy
	if _, err := p.DecideTokens("AS", "KH"); err == nil {
		t.Fatalf("expected error for nil policy")
	}

	p, err := New(testChart(t))
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	if _, err := p.DecideTokens("AS"); !errors.Is(err, solver.ErrInvalidInput) {
		t.Fatalf("expected invalid input for one card, got %v", err)
	}
	if _, err := p.DecideTokens("AS", "XX"); !errors.Is(err, solver.ErrInvalidInput) {
		t.Fatalf("expected invalid input for bad token, got %v", err)
	}
	if _, err := p.DecideTokens("AS", "AS"); !errors.Is(err, solver.ErrInvalidInput) {
		t.Fatalf("expected invalid input for duplicate, got %v", err)
	}
	if _, err := p.DecideTokens("2C", "9D"); !errors.Is(err, ErrNotInChart) {
		t.Fatalf("expected ErrNotInChart, got %v", err)
	}
}

func TestPolicyLoadAndDecide(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.json")
	if err := testChart(t).Save(path); err != nil {
		t.Fatalf("save chart: %v", err)
	}

	policy, err := Load(path)
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	if policy.Chart().Len() != 1 {
		t.Fatalf("expected 1 hand, got %d", policy.Chart().Len())
	}

	sol, err := policy.DecideTokens("kh", "as")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if sol.Action != solver.ActionStand || sol.ExpectedValue != 1.4 {
		t.Fatalf("unexpected solution %+v", sol)
	}
	if sol.Hand.String() != "AS KH" {
		t.Fatalf("expected canonical hand, got %s", sol.Hand)
	}
}

func TestNewRejectsInvalidChart(t *testing.T) {
	chart := testChart(t)
	chart.Version = 0
	if _, err := New(chart); err == nil {
		t.Fatalf("expected error for bad version")
	}
}
