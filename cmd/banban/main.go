package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/banban/internal/chartstore"
	"github.com/lox/banban/internal/config"
	"github.com/lox/banban/internal/deck"
	"github.com/lox/banban/sdk/solver"
	"github.com/lox/banban/sdk/solver/runtime"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version    kong.VersionFlag `short:"v" help:"Show version"`
	Cards      []string         `arg:"" optional:"" help:"Two starting cards, e.g. 'AS KH'. Omit to solve every starting hand."`
	Upcard     string           `short:"u" help:"Dealer upcard (e.g. 9D); solves against a known dealer card"`
	Config     string           `short:"c" default:"banban.hcl" help:"Path to HCL configuration file"`
	Out        string           `short:"o" help:"Write the full chart as JSON to this path (overrides config)"`
	DB         string           `name:"db" help:"Store the full chart in this SQLite database (overrides config)"`
	Chart      string           `help:"Answer a single hand from a chart file written by --out instead of solving"`
	Print      bool             `short:"p" help:"Render the strategy grid to stderr after a full solve"`
	Workers    int              `short:"w" help:"Parallel solve workers (overrides config)"`
	CacheLimit int              `help:"Maximum memoised states, 0 for unbounded (overrides config)"`
	LogLevel   string           `short:"l" help:"Log level (overrides config)"`
	Debug      bool             `short:"d" help:"Enable debug logging"`

	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
}

func main() {
	cli := CLI{stdout: os.Stdout, stderr: os.Stderr}
	ctx := kong.Parse(&cli,
		kong.Name("banban"),
		kong.Description("Exact expected-value solver for Chinese New Year blackjack"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run is invoked by kong after flags are parsed.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.execute(ctx)
}

func (c *CLI) execute(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	if c.Chart != "" {
		return c.lookupHand()
	}

	level, _ := cfg.LogLevel()
	logger := log.NewWithOptions(c.stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	s, err := solver.NewSolver(cfg.SolverConfig(), logger, nil)
	if err != nil {
		return err
	}

	if len(c.Cards) > 0 {
		return c.solveHand(s)
	}
	return c.solveAll(ctx, s, cfg, logger)
}

// loadConfig reads the config file and applies command line overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", c.Config, err)
	}

	if c.Workers != 0 {
		cfg.Solver.Workers = c.Workers
	}
	if c.CacheLimit != 0 {
		cfg.Solver.CacheLimit = c.CacheLimit
	}
	if c.Out != "" {
		cfg.Output.Chart = c.Out
	}
	if c.DB != "" {
		cfg.Output.Database = c.DB
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.Debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// lookupHand answers from a precomputed chart. Charts hold blind-dealer
// solutions only.
func (c *CLI) lookupHand() error {
	if len(c.Cards) == 0 {
		return fmt.Errorf("%w: --chart needs two cards", solver.ErrInvalidInput)
	}
	if c.Upcard != "" {
		return fmt.Errorf("%w: --chart cannot be combined with --upcard", solver.ErrInvalidInput)
	}
	policy, err := runtime.Load(c.Chart)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", c.Chart, err)
	}
	sol, err := policy.DecideTokens(c.Cards...)
	if err != nil {
		return err
	}
	return writeJSON(c.stdout, newHandRecord(sol))
}

func (c *CLI) solveHand(s *solver.Solver) error {
	if c.Upcard == "" {
		sol, err := s.SolveTokens(c.Cards...)
		if err != nil {
			return err
		}
		return writeJSON(c.stdout, newHandRecord(sol))
	}

	if len(c.Cards) != 2 {
		return fmt.Errorf("%w: expected 2 cards, got %d", solver.ErrInvalidInput, len(c.Cards))
	}
	cards := make([]deck.Card, len(c.Cards))
	for i, tok := range c.Cards {
		card, err := deck.ParseCard(tok)
		if err != nil {
			return fmt.Errorf("%w: %w", solver.ErrInvalidInput, err)
		}
		cards[i] = card
	}
	upcard, err := deck.ParseCard(c.Upcard)
	if err != nil {
		return fmt.Errorf("%w: upcard: %w", solver.ErrInvalidInput, err)
	}

	sol, err := s.SolveHandVsUpcard(cards, upcard)
	if err != nil {
		return err
	}
	return writeJSON(c.stdout, newHandRecord(sol))
}

func (c *CLI) solveAll(ctx context.Context, s *solver.Solver, cfg *config.Config, logger *log.Logger) error {
	if c.Upcard != "" {
		return fmt.Errorf("%w: --upcard needs two cards", solver.ErrInvalidInput)
	}

	lastDecile := 0
	chart, err := s.SolveAll(ctx, func(p solver.Progress) {
		decile := p.Solved * 10 / p.Total
		if decile == lastDecile {
			return
		}
		lastDecile = decile
		logger.Info("progress",
			"solved", p.Solved,
			"total", p.Total,
			"cache", p.CacheEntries,
			"elapsed", p.Elapsed.Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("solve all: %w", err)
	}

	if cfg.Output.Chart != "" {
		if err := chart.Save(cfg.Output.Chart); err != nil {
			return fmt.Errorf("write %s: %w", cfg.Output.Chart, err)
		}
		logger.Info("wrote chart", "path", cfg.Output.Chart)
	}

	if cfg.Output.Database != "" {
		store, err := chartstore.Open(cfg.Output.Database, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveChart(ctx, chart); err != nil {
			return err
		}
	}

	if c.Print {
		fmt.Fprintln(c.stderr, renderGrid(chart))
	}

	return writeJSON(c.stdout, newSummaryRecord(chart))
}
