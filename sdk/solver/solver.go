package solver

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/banban/internal/deck"
)

// Action is the player's decision on their starting hand.
type Action string

const (
	ActionHit   Action = "hit"
	ActionStand Action = "stand"
)

// HandSolution is the solved decision for one starting hand.
type HandSolution struct {
	Hand          deck.Pair   `json:"hand"`
	Upcard        *deck.Card  `json:"upcard,omitempty"`
	Action        Action      `json:"best_action"`
	ExpectedValue float64     `json:"expected_value"`
	StandEV       float64     `json:"stand_ev"`
	HitEV         float64     `json:"hit_ev"`
	Special       SpecialHand `json:"special,omitempty"`
	Multiplier    float64     `json:"multiplier"`
}

// Progress is emitted by SolveAll after each group of equivalent hands.
type Progress struct {
	Solved       int
	Total        int
	CacheEntries int
	Elapsed      time.Duration
}

// Solver computes exact expected values by backward induction over a shared
// memo table. It is safe for concurrent use; the table lives as long as the
// Solver unless ResetCache is called.
type Solver struct {
	cfg    Config
	cache  *evCache
	engine *engine
	logger *log.Logger
	clock  quartz.Clock
}

// NewSolver validates cfg and returns a ready solver. A nil logger discards
// output and a nil clock uses wall time.
func NewSolver(cfg Config, logger *log.Logger, clock quartz.Clock) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	cache := newEVCache(cfg.CacheLimit)
	return &Solver{
		cfg:    cfg,
		cache:  cache,
		engine: newEngine(cache),
		logger: logger.WithPrefix("solver"),
		clock:  clock,
	}, nil
}

// Config returns the configuration the solver was built with.
func (s *Solver) Config() Config {
	return s.cfg
}

// CacheStats reports memo table usage.
func (s *Solver) CacheStats() CacheStats {
	return s.cache.stats()
}

// ResetCache drops every memoised state.
func (s *Solver) ResetCache() {
	s.cache.reset()
}

// SolveTokens parses two card tokens and solves the hand.
func (s *Solver) SolveTokens(tokens ...string) (HandSolution, error) {
	if len(tokens) != 2 {
		return HandSolution{}, fmt.Errorf("%w: expected 2 cards, got %d", ErrInvalidInput, len(tokens))
	}
	cards := make([]deck.Card, len(tokens))
	for i, tok := range tokens {
		card, err := deck.ParseCard(tok)
		if err != nil {
			return HandSolution{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		cards[i] = card
	}
	return s.SolveHand(cards)
}

// SolveHand returns the EV-maximising action for a two-card starting hand
// with the dealer's cards still undrawn. Ties favour standing.
func (s *Solver) SolveHand(cards []deck.Card) (HandSolution, error) {
	st, err := newStartState(cards, nil)
	if err != nil {
		return HandSolution{}, err
	}
	return s.solve(st), nil
}

// SolveHandVsUpcard is SolveHand with the dealer's first card known. The
// upcard leaves the shoe and the dealer is dealt only one more card.
func (s *Solver) SolveHandVsUpcard(cards []deck.Card, upcard deck.Card) (HandSolution, error) {
	st, err := newStartState(cards, &upcard)
	if err != nil {
		return HandSolution{}, err
	}
	return s.solve(st), nil
}

// SolveAll solves all 1326 starting hands of a fresh deck. Hands that share
// ranks and suited-blackjack status have identical solutions, so each such
// group is evaluated once and copied to its members.
func (s *Solver) SolveAll(ctx context.Context, progress func(Progress)) (*Chart, error) {
	pairs := deck.Pairs()
	classes := groupPairs(pairs)
	start := s.clock.Now()
	chart := NewChart()

	s.logger.Info("solving all starting hands",
		"hands", len(pairs),
		"groups", len(classes),
		"workers", s.cfg.Workers)

	var mu sync.Mutex
	solved := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, class := range classes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			st, err := newStartState(class.rep.Cards(), nil)
			if err != nil {
				return err
			}
			sol := s.solve(st)

			mu.Lock()
			defer mu.Unlock()
			for _, p := range class.members {
				member := sol
				member.Hand = p
				chart.Solutions[p.String()] = member
			}
			solved += len(class.members)
			if progress != nil {
				progress(Progress{
					Solved:       solved,
					Total:        len(pairs),
					CacheEntries: s.cache.Len(),
					Elapsed:      s.clock.Since(start),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chart.GeneratedAt = s.clock.Now().UTC()
	stats := s.cache.stats()
	s.logger.Info("solved all starting hands",
		"hands", chart.Len(),
		"entries", stats.Entries,
		"flushes", stats.Flushes,
		"elapsed", s.clock.Since(start))
	return chart, nil
}

func (s *Solver) solve(st startState) HandSolution {
	start := s.clock.Now()

	stand := s.engine.dealStart(st.player, st.suited, st.dealer, st.shoe)
	hit := s.engine.hitValue(st.player, st.dealer, st.shoe)

	sol := HandSolution{
		Hand:          st.pair,
		Action:        ActionStand,
		ExpectedValue: stand,
		StandEV:       stand,
		HitEV:         hit,
		Special:       st.player.Classify(st.suited),
		Multiplier:    st.player.Multiplier(st.suited),
	}
	if hit > stand {
		sol.Action = ActionHit
		sol.ExpectedValue = hit
	}
	if st.upcard != nil {
		up := *st.upcard
		sol.Upcard = &up
	}

	s.logger.Debug("solved hand",
		"hand", st.pair,
		"upcard", st.upcard,
		"action", sol.Action,
		"ev", sol.ExpectedValue,
		"elapsed", s.clock.Since(start))
	return sol
}

// startState is the root of one solve: the canonical starting hand and the
// shoe left after dealing it (and the upcard, when known).
type startState struct {
	pair   deck.Pair
	player Hand
	suited bool
	dealer Hand
	upcard *deck.Card
	shoe   Shoe
}

func newStartState(cards []deck.Card, upcard *deck.Card) (startState, error) {
	if len(cards) != 2 {
		return startState{}, fmt.Errorf("%w: expected 2 cards, got %d", ErrInvalidInput, len(cards))
	}
	for _, c := range cards {
		if err := validCard(c); err != nil {
			return startState{}, err
		}
	}
	if cards[0] == cards[1] {
		return startState{}, fmt.Errorf("%w: duplicate card %v", ErrInvalidInput, cards[0])
	}

	pair := deck.NewPair(cards[0], cards[1])
	shoe, err := NewShoe().without(pair.A, pair.B)
	if err != nil {
		return startState{}, err
	}
	player := NewHand(pair.A.Rank, pair.B.Rank)
	st := startState{
		pair:   pair,
		player: player,
		suited: pair.A.Suit == pair.B.Suit && player.IsBlackjack(),
		shoe:   shoe,
	}

	if upcard != nil {
		if err := validCard(*upcard); err != nil {
			return startState{}, err
		}
		if *upcard == pair.A || *upcard == pair.B {
			return startState{}, fmt.Errorf("%w: upcard %v is in the player's hand", ErrInvalidInput, *upcard)
		}
		if st.shoe, err = st.shoe.without(*upcard); err != nil {
			return startState{}, err
		}
		up := *upcard
		st.upcard = &up
		st.dealer = NewHand(up.Rank)
	}
	return st, nil
}

func validCard(c deck.Card) error {
	if c.Rank >= deck.NumRanks || c.Suit >= deck.NumSuits {
		return fmt.Errorf("%w: rank %d suit %d is not a card", ErrInvalidInput, c.Rank, c.Suit)
	}
	return nil
}

type handClass struct {
	rep     deck.Pair
	members []deck.Pair
}

type classKey struct {
	lo, hi deck.Rank
	suited bool
}

// groupPairs partitions starting hands into groups with identical solutions,
// preserving deck order of first appearance.
func groupPairs(pairs []deck.Pair) []*handClass {
	index := make(map[classKey]*handClass)
	var out []*handClass
	for _, p := range pairs {
		h := NewHand(p.A.Rank, p.B.Rank)
		ranks := h.Ranks()
		key := classKey{
			lo:     ranks[0],
			hi:     ranks[1],
			suited: p.A.Suit == p.B.Suit && h.IsBlackjack(),
		}
		class, ok := index[key]
		if !ok {
			class = &handClass{rep: p}
			index[key] = class
			out = append(out, class)
		}
		class.members = append(class.members, p)
	}
	return out
}
