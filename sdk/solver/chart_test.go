package solver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/banban/internal/deck"
)

func testChart(t *testing.T) *Chart {
	t.Helper()
	chart := NewChart()
	chart.GeneratedAt = time.Date(2026, 2, 17, 8, 0, 0, 0, time.UTC)

	add := func(tokens string, action Action, stand, hit float64, special SpecialHand, mult float64) {
		p, err := deck.ParsePair(tokens)
		require.NoError(t, err)
		ev := stand
		if action == ActionHit {
			ev = hit
		}
		chart.Solutions[p.String()] = HandSolution{
			Hand:          p,
			Action:        action,
			ExpectedValue: ev,
			StandEV:       stand,
			HitEV:         hit,
			Special:       special,
			Multiplier:    mult,
		}
	}
	add("KH AS", ActionStand, 1.25, -0.4, SpecialBlackjack, 2)
	add("2S 3H", ActionHit, -0.95, -0.3, SpecialNone, 1)
	add("10S 10H", ActionStand, 0.61, -0.82, SpecialNone, 1)
	return chart
}

func TestChartSaveLoadRoundTrip(t *testing.T) {
	chart := testChart(t)
	up := deck.NewCard(deck.Six, deck.Diamonds)
	sol := chart.Solutions["10S 10H"]
	sol.Upcard = &up
	chart.Solutions["10S 10H"] = sol

	path := filepath.Join(t.TempDir(), "nested", "chart.json")
	require.NoError(t, chart.Save(path))

	loaded, err := LoadChart(path)
	require.NoError(t, err)
	assert.Equal(t, chart, loaded)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files left behind")
}

func TestChartLookup(t *testing.T) {
	chart := testChart(t)
	cards := deck.MustParseCards("AS KH")

	a, ok := chart.Lookup(cards[0], cards[1])
	require.True(t, ok)
	b, ok := chart.Lookup(cards[1], cards[0])
	require.True(t, ok)
	assert.Equal(t, a, b)
	assert.Equal(t, ActionStand, a.Action)

	_, ok = chart.Lookup(deck.NewCard(deck.Four, deck.Clubs), deck.NewCard(deck.Nine, deck.Clubs))
	assert.False(t, ok)

	var nilChart *Chart
	_, ok = nilChart.Lookup(cards[0], cards[1])
	assert.False(t, ok)
	assert.Zero(t, nilChart.Len())
}

func TestChartPairsInDeckOrder(t *testing.T) {
	chart := testChart(t)
	var got []string
	for _, p := range chart.Pairs() {
		got = append(got, p.String())
	}
	assert.Equal(t, []string{"AS KH", "2S 3H", "10S 10H"}, got)
}

func TestChartSummary(t *testing.T) {
	s := testChart(t).Summary()
	assert.Equal(t, 3, s.Hands)
	assert.Equal(t, 1, s.Hits)
	assert.Equal(t, 2, s.Stands)
	assert.InDelta(t, (1.25-0.3+0.61)/3, s.MeanEV, 1e-12)
}

func TestChartValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, testChart(t).Validate())
	})

	t.Run("version mismatch", func(t *testing.T) {
		chart := testChart(t)
		chart.Version = chartFileVersion + 1
		assert.ErrorContains(t, chart.Validate(), "unsupported chart version")
	})

	t.Run("key mismatch", func(t *testing.T) {
		chart := testChart(t)
		chart.Solutions["QC QD"] = chart.Solutions["2S 3H"]
		assert.ErrorContains(t, chart.Validate(), "holds hand")
	})

	t.Run("unknown action", func(t *testing.T) {
		chart := testChart(t)
		sol := chart.Solutions["2S 3H"]
		sol.Action = "double"
		chart.Solutions["2S 3H"] = sol
		assert.ErrorContains(t, chart.Validate(), "unknown action")
	})
}

func TestLoadChartErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadChart(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o644))
	_, err = LoadChart(corrupt)
	assert.ErrorContains(t, err, "decode chart")

	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, []byte(`{"version": 99, "solutions": {}}`), 0o644))
	_, err = LoadChart(future)
	assert.ErrorContains(t, err, "unsupported chart version")
}

func TestChartSaveRequiresPath(t *testing.T) {
	assert.Error(t, testChart(t).Save(""))
}
