package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lox/banban/internal/deck"
	"github.com/lox/banban/internal/fileutil"
)

const chartFileVersion = 1

// Chart is the full strategy table produced by SolveAll, keyed by the
// canonical pair string ("AS KH").
type Chart struct {
	Version     int                     `json:"version"`
	RunID       string                  `json:"run_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Solutions   map[string]HandSolution `json:"solutions"`
}

// ChartSummary aggregates a chart for reporting.
type ChartSummary struct {
	Hands  int     `json:"hands"`
	Hits   int     `json:"hits"`
	Stands int     `json:"stands"`
	MeanEV float64 `json:"mean_ev"`
}

// NewChart returns an empty chart with a fresh run ID.
func NewChart() *Chart {
	return &Chart{
		Version:   chartFileVersion,
		RunID:     uuid.NewString(),
		Solutions: make(map[string]HandSolution, deck.DeckSize*(deck.DeckSize-1)/2),
	}
}

// Len returns the number of solved hands.
func (c *Chart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Solutions)
}

// Lookup returns the solution for two cards in either order.
func (c *Chart) Lookup(a, b deck.Card) (HandSolution, bool) {
	if c == nil {
		return HandSolution{}, false
	}
	sol, ok := c.Solutions[deck.NewPair(a, b).String()]
	return sol, ok
}

// Pairs returns the solved hands in deck order.
func (c *Chart) Pairs() []deck.Pair {
	if c == nil {
		return nil
	}
	out := make([]deck.Pair, 0, len(c.Solutions))
	for _, sol := range c.Solutions {
		out = append(out, sol.Hand)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A.Index() < out[j].A.Index()
		}
		return out[i].B.Index() < out[j].B.Index()
	})
	return out
}

// Summary counts actions and averages EV over every hand, which is the
// player's overall expectation for a fresh deal.
func (c *Chart) Summary() ChartSummary {
	var s ChartSummary
	if c == nil {
		return s
	}
	sum := 0.0
	for _, sol := range c.Solutions {
		s.Hands++
		if sol.Action == ActionHit {
			s.Hits++
		} else {
			s.Stands++
		}
		sum += sol.ExpectedValue
	}
	if s.Hands > 0 {
		s.MeanEV = sum / float64(s.Hands)
	}
	return s
}

// Validate checks that every entry is keyed by its own hand and carries a
// known action.
func (c *Chart) Validate() error {
	if c == nil {
		return errors.New("nil chart")
	}
	if c.Version != chartFileVersion {
		return fmt.Errorf("unsupported chart version %d", c.Version)
	}
	for key, sol := range c.Solutions {
		if key != sol.Hand.String() {
			return fmt.Errorf("chart entry %q holds hand %q", key, sol.Hand)
		}
		if sol.Action != ActionHit && sol.Action != ActionStand {
			return fmt.Errorf("chart entry %q has unknown action %q", key, sol.Action)
		}
	}
	return nil
}

// Save writes the chart as indented JSON. Readers never see a partial chart.
func (c *Chart) Save(path string) error {
	if c == nil {
		return errors.New("nil chart")
	}
	if path == "" {
		return errors.New("destination path is required")
	}

	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode chart: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// LoadChart reads a chart from disk and validates it.
func LoadChart(path string) (*Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chart Chart
	if err := json.NewDecoder(f).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if err := chart.Validate(); err != nil {
		return nil, err
	}
	return &chart, nil
}
