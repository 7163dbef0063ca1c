// Package chartstore persists solved strategy charts in SQLite so separate
// solve runs can be listed and reloaded.
package chartstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/lox/banban/internal/deck"
	"github.com/lox/banban/sdk/solver"
)

// ErrRunNotFound is returned when no chart was stored under a run ID.
var ErrRunNotFound = errors.New("run not found")

// Run describes one stored chart.
type Run struct {
	ID          string
	Version     int
	GeneratedAt time.Time
	Hands       int
	Hits        int
	Stands      int
	MeanEV      decimal.Decimal
}

// Store is a SQLite-backed chart store.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger.WithPrefix("chartstore")}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			generated_at TEXT NOT NULL,
			hands INTEGER NOT NULL,
			hits INTEGER NOT NULL,
			stands INTEGER NOT NULL,
			mean_ev TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS solutions (
			run_id TEXT NOT NULL,
			hand TEXT NOT NULL,
			upcard TEXT,
			action TEXT NOT NULL,
			expected_value TEXT NOT NULL,
			stand_ev TEXT NOT NULL,
			hit_ev TEXT NOT NULL,
			special TEXT NOT NULL DEFAULT '',
			multiplier REAL NOT NULL,
			PRIMARY KEY (run_id, hand),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON runs(generated_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveChart stores every solution of chart in one transaction. A chart
// without a run ID is assigned one.
func (s *Store) SaveChart(ctx context.Context, chart *solver.Chart) error {
	if chart == nil {
		return errors.New("nil chart")
	}
	if chart.RunID == "" {
		chart.RunID = uuid.NewString()
	}
	summary := chart.Summary()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, version, generated_at, hands, hits, stands, mean_ev)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		chart.RunID, chart.Version, chart.GeneratedAt.UTC().Format(time.RFC3339Nano),
		summary.Hands, summary.Hits, summary.Stands, evString(summary.MeanEV),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", chart.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO solutions (run_id, hand, upcard, action, expected_value, stand_ev, hit_ev, special, multiplier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare solutions: %w", err)
	}
	defer stmt.Close()

	for _, p := range chart.Pairs() {
		sol := chart.Solutions[p.String()]
		var upcard sql.NullString
		if sol.Upcard != nil {
			upcard = sql.NullString{String: sol.Upcard.String(), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			chart.RunID, p.String(), upcard, string(sol.Action),
			evString(sol.ExpectedValue), evString(sol.StandEV), evString(sol.HitEV),
			string(sol.Special), sol.Multiplier,
		)
		if err != nil {
			return fmt.Errorf("insert solution %s: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("saved chart", "run", chart.RunID, "hands", summary.Hands)
	return nil
}

// LoadChart rebuilds the chart stored under runID.
func (s *Store) LoadChart(ctx context.Context, runID string) (*solver.Chart, error) {
	run, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT hand, upcard, action, expected_value, stand_ev, hit_ev, special, multiplier
		FROM solutions WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query solutions: %w", err)
	}
	defer rows.Close()

	chart := &solver.Chart{
		Version:     run.Version,
		RunID:       run.ID,
		GeneratedAt: run.GeneratedAt,
		Solutions:   make(map[string]solver.HandSolution, run.Hands),
	}
	for rows.Next() {
		var (
			hand, action, special string
			ev, standEV, hitEV    string
			upcard                sql.NullString
			sol                   solver.HandSolution
		)
		if err := rows.Scan(&hand, &upcard, &action, &ev, &standEV, &hitEV, &special, &sol.Multiplier); err != nil {
			return nil, fmt.Errorf("scan solution: %w", err)
		}

		if sol.Hand, err = deck.ParsePair(hand); err != nil {
			return nil, fmt.Errorf("solution %q: %w", hand, err)
		}
		if upcard.Valid {
			card, err := deck.ParseCard(upcard.String)
			if err != nil {
				return nil, fmt.Errorf("solution %q upcard: %w", hand, err)
			}
			sol.Upcard = &card
		}
		sol.Action = solver.Action(action)
		sol.Special = solver.SpecialHand(special)
		if sol.ExpectedValue, err = parseEV(ev); err != nil {
			return nil, fmt.Errorf("solution %q: %w", hand, err)
		}
		if sol.StandEV, err = parseEV(standEV); err != nil {
			return nil, fmt.Errorf("solution %q: %w", hand, err)
		}
		if sol.HitEV, err = parseEV(hitEV); err != nil {
			return nil, fmt.Errorf("solution %q: %w", hand, err)
		}
		chart.Solutions[hand] = sol
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solutions: %w", err)
	}

	if err := chart.Validate(); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return chart, nil
}

// ListRuns returns every stored run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version, generated_at, hands, hits, stands, mean_ev
		FROM runs ORDER BY generated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

func (s *Store) getRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, version, generated_at, hands, hits, stands, mean_ev
		FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		generated string
		meanEV    string
	)
	if err := row.Scan(&run.ID, &run.Version, &generated, &run.Hands, &run.Hits, &run.Stands, &meanEV); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	var err error
	if run.GeneratedAt, err = time.Parse(time.RFC3339Nano, generated); err != nil {
		return Run{}, fmt.Errorf("run %s generated_at: %w", run.ID, err)
	}
	if run.MeanEV, err = decimal.NewFromString(meanEV); err != nil {
		return Run{}, fmt.Errorf("run %s mean_ev: %w", run.ID, err)
	}
	return run, nil
}

// evString renders an EV as the shortest decimal that parses back to the
// same float.
func evString(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func parseEV(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse ev %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}
