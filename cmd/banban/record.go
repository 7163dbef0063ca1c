package main

import (
	"encoding/json"
	"io"

	"github.com/shopspring/decimal"

	"github.com/lox/banban/sdk/solver"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// evPlaces is the precision EVs are reported with.
const evPlaces = 6

// handRecord is the output of a single-hand solve.
type handRecord struct {
	Hand          string             `json:"hand"`
	Upcard        string             `json:"upcard,omitempty"`
	BestAction    solver.Action      `json:"best_action"`
	ExpectedValue decimal.Decimal    `json:"expected_value"`
	StandEV       decimal.Decimal    `json:"stand_ev"`
	HitEV         decimal.Decimal    `json:"hit_ev"`
	Special       solver.SpecialHand `json:"special,omitempty"`
}

// summaryRecord is the output of a full-table solve.
type summaryRecord struct {
	Hands  int             `json:"hands"`
	RunID  string          `json:"run_id"`
	Hits   int             `json:"hits"`
	Stands int             `json:"stands"`
	MeanEV decimal.Decimal `json:"mean_ev"`
}

func newHandRecord(sol solver.HandSolution) handRecord {
	rec := handRecord{
		Hand:          sol.Hand.String(),
		BestAction:    sol.Action,
		ExpectedValue: roundEV(sol.ExpectedValue),
		StandEV:       roundEV(sol.StandEV),
		HitEV:         roundEV(sol.HitEV),
		Special:       sol.Special,
	}
	if sol.Upcard != nil {
		rec.Upcard = sol.Upcard.String()
	}
	return rec
}

func newSummaryRecord(chart *solver.Chart) summaryRecord {
	summary := chart.Summary()
	return summaryRecord{
		Hands:  summary.Hands,
		RunID:  chart.RunID,
		Hits:   summary.Hits,
		Stands: summary.Stands,
		MeanEV: roundEV(summary.MeanEV),
	}
}

func roundEV(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(evPlaces)
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
