package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/banban/internal/deck"
	"github.com/lox/banban/sdk/solver"
)

func newTestCLI(t *testing.T, args ...string) (*CLI, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cli := &CLI{stdout: &stdout, stderr: &stderr}
	parser, err := kong.New(cli, kong.Name("banban"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse(append([]string{"--config", filepath.Join(t.TempDir(), "none.hcl")}, args...))
	require.NoError(t, err)
	return cli, &stdout, &stderr
}

func TestParseFlags(t *testing.T) {
	cli, _, _ := newTestCLI(t, "AS", "KH", "--upcard", "9D", "-w", "3", "--db", "x.db", "--debug")
	assert.Equal(t, []string{"AS", "KH"}, cli.Cards)
	assert.Equal(t, "9D", cli.Upcard)
	assert.Equal(t, 3, cli.Workers)
	assert.Equal(t, "x.db", cli.DB)
	assert.True(t, cli.Debug)

	cfg, err := cli.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Solver.Workers)
	assert.Equal(t, "x.db", cfg.Output.Database)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsBadOverrides(t *testing.T) {
	cli, _, _ := newTestCLI(t, "--log-level", "loud")
	_, err := cli.loadConfig()
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestSolveHandRecord(t *testing.T) {
	cli, stdout, _ := newTestCLI(t, "KH", "AS")
	require.NoError(t, cli.execute(context.Background()))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rec))
	assert.Equal(t, "AS KH", rec["hand"])
	assert.Contains(t, []any{"hit", "stand"}, rec["best_action"])
	assert.Equal(t, "blackjack", rec["special"])
	assert.NotContains(t, rec, "upcard")

	ev, ok := rec["expected_value"].(float64)
	require.True(t, ok, "expected_value should be a JSON number, got %T", rec["expected_value"])
	assert.GreaterOrEqual(t, ev, -1.0)
	assert.LessOrEqual(t, ev, 7.0)
}

func TestSolveHandWithUpcard(t *testing.T) {
	cli, stdout, _ := newTestCLI(t, "10S", "10H", "--upcard", "6d")
	require.NoError(t, cli.execute(context.Background()))

	var rec handRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rec))
	assert.Equal(t, "10S 10H", rec.Hand)
	assert.Equal(t, "6D", rec.Upcard)
	assert.Equal(t, solver.ActionStand, rec.BestAction)
}

func TestSolveHandInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "one card", args: []string{"AS"}},
		{name: "three cards", args: []string{"AS", "KH", "2D"}},
		{name: "bad token", args: []string{"AS", "1X"}},
		{name: "duplicate", args: []string{"AS", "AS"}},
		{name: "bad upcard", args: []string{"AS", "KH", "--upcard", "ZZ"}},
		{name: "upcard in hand", args: []string{"AS", "KH", "--upcard", "KH"}},
		{name: "upcard without hand", args: []string{"--upcard", "KH"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, stdout, _ := newTestCLI(t, tt.args...)
			err := cli.execute(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, solver.ErrInvalidInput), "got %v", err)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestHandRecordJSON(t *testing.T) {
	up := deck.NewCard(deck.Nine, deck.Diamonds)
	rec := newHandRecord(solver.HandSolution{
		Hand:          deck.NewPair(deck.NewCard(deck.King, deck.Hearts), deck.NewCard(deck.Ace, deck.Spades)),
		Upcard:        &up,
		Action:        solver.ActionStand,
		ExpectedValue: 1.23456789,
		StandEV:       1.23456789,
		HitEV:         -1.0 / 3,
		Special:       solver.SpecialBlackjack,
	})

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, rec))
	assert.JSONEq(t, `{
		"hand": "AS KH",
		"upcard": "9D",
		"best_action": "stand",
		"expected_value": 1.234568,
		"stand_ev": 1.234568,
		"hit_ev": -0.333333,
		"special": "blackjack"
	}`, buf.String())
}

func TestSummaryRecordJSON(t *testing.T) {
	chart := solver.NewChart()
	for _, p := range deck.Pairs() {
		chart.Solutions[p.String()] = solver.HandSolution{Hand: p, Action: solver.ActionStand, ExpectedValue: 0.5}
	}

	var rec map[string]any
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, newSummaryRecord(chart)))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, 1326.0, rec["hands"])
	assert.Equal(t, chart.RunID, rec["run_id"])
	assert.Equal(t, 0.5, rec["mean_ev"])
}

func TestRenderGrid(t *testing.T) {
	chart := solver.NewChart()
	add := func(tokens string, action solver.Action, ev float64) {
		p, err := deck.ParsePair(tokens)
		require.NoError(t, err)
		chart.Solutions[p.String()] = solver.HandSolution{Hand: p, Action: action, ExpectedValue: ev}
	}
	add("AS KS", solver.ActionStand, 2.5)
	add("2S 3H", solver.ActionHit, -0.42)
	add("10S 10H", solver.ActionStand, 0.61)

	out := renderGrid(chart)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 15)
	assert.Contains(t, out, "3 hands")
	assert.Contains(t, out, "S+2.50")
	assert.Contains(t, out, "H-0.42")
	assert.Contains(t, out, "S+0.61")
	for _, r := range deck.Ranks() {
		assert.Contains(t, lines[1], r.String())
	}
}

func TestSolveAllWritesOutputs(t *testing.T) {
	if testing.Short() {
		t.Skip("full table solve skipped in short mode")
	}

	dir := t.TempDir()
	chartPath := filepath.Join(dir, "chart.json")
	dbPath := filepath.Join(dir, "charts.db")
	cli, stdout, stderr := newTestCLI(t, "--out", chartPath, "--db", dbPath, "--print")
	require.NoError(t, cli.execute(context.Background()))

	var rec summaryRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rec))
	assert.Equal(t, 1326, rec.Hands)
	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, 1326, rec.Hits+rec.Stands)
	assert.Contains(t, stderr.String(), "1326 hands")

	chart, err := solver.LoadChart(chartPath)
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, chart.RunID)
	assert.Equal(t, 1326, chart.Len())
}

func TestLookupHandFromChart(t *testing.T) {
	chart := solver.NewChart()
	p, err := deck.ParsePair("AS KH")
	require.NoError(t, err)
	chart.Solutions[p.String()] = solver.HandSolution{
		Hand:          p,
		Action:        solver.ActionStand,
		ExpectedValue: 1.5,
		StandEV:       1.5,
		HitEV:         -0.25,
		Special:       solver.SpecialBlackjack,
		Multiplier:    2,
	}
	path := filepath.Join(t.TempDir(), "chart.json")
	require.NoError(t, chart.Save(path))

	cli, stdout, _ := newTestCLI(t, "KH", "AS", "--chart", path)
	require.NoError(t, cli.execute(context.Background()))
	assert.JSONEq(t, `{
		"hand": "AS KH",
		"best_action": "stand",
		"expected_value": 1.5,
		"stand_ev": 1.5,
		"hit_ev": -0.25,
		"special": "blackjack"
	}`, stdout.String())

	cli, _, _ = newTestCLI(t, "KH", "AS", "--chart", path, "--upcard", "9D")
	assert.ErrorIs(t, cli.execute(context.Background()), solver.ErrInvalidInput)

	cli, _, _ = newTestCLI(t, "KH", "AS", "--chart", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, cli.execute(context.Background()), "load chart")
}
