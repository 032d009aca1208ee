// Package engine is the equity service: it owns the resident lookup tables
// and answers one equity request at a time.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/evaluator"
	"github.com/lox/pokerequity/internal/randutil"
	"github.com/lox/pokerequity/internal/sampler"
	"github.com/lox/pokerequity/internal/simulator"
	"github.com/lox/pokerequity/internal/tables"
)

// Options configures an Engine.
type Options struct {
	// Seed fixes the sampler seed. Zero derives one from the clock.
	Seed   int64
	Clock  quartz.Clock
	Logger *log.Logger
}

// Engine answers equity queries against tables loaded once for its lifetime.
// Requests are serialized; concurrent callers wait their turn.
type Engine struct {
	tables *tables.Tables
	eval   *evaluator.Evaluator
	sim    *simulator.Simulator
	seed   int64
	logger *log.Logger

	mu sync.Mutex
}

// Request is one equity query for a single hero hand.
type Request struct {
	Hole       [2]deck.Card
	Board      []deck.Card
	Opponents  int
	Iterations int
}

// Equity is the answer to a Request. Rates are percentages. OK is false when
// any lookup missed the rank table, in which case the rates must not be used.
type Equity struct {
	WinRate       float64
	TieRate       float64
	LoseRate      float64
	IterationsRun int
	IndexFaults   int64
	OK            bool
}

// Open loads the tables from dir and returns an engine over them.
func Open(dir string, opts Options) (*Engine, error) {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	start := opts.Clock.Now()
	t, err := tables.Load(dir)
	if err != nil {
		return nil, err
	}
	e := New(t, opts)
	e.logger.Info("Lookup tables loaded", "dir", dir, "rank_entries", t.RankLen(), "took", opts.Clock.Since(start))
	return e, nil
}

// New returns an engine over already loaded tables.
func New(t *tables.Tables, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	logger := opts.Logger.WithPrefix("engine")
	seed := randutil.Seed(opts.Clock, opts.Seed)

	eval := evaluator.New(t, opts.Logger)
	return &Engine{
		tables: t,
		eval:   eval,
		sim: simulator.New(simulator.Config{
			Evaluator: eval,
			Sampler:   sampler.NewRandom(seed),
			Clock:     opts.Clock,
			Logger:    logger,
		}),
		seed:   seed,
		logger: logger,
	}
}

// Seed returns the sampler seed, for replaying a session.
func (e *Engine) Seed() int64 {
	return e.seed
}

// Evaluator exposes the engine's hand evaluator.
func (e *Engine) Evaluator() *evaluator.Evaluator {
	return e.eval
}

// ComputeEquity estimates the hero's win, tie and loss rates against
// req.Opponents random hands.
func (e *Engine) ComputeEquity(ctx context.Context, req Request) (Equity, error) {
	res, err := e.Calculate(ctx, req.Board, [][2]deck.Card{req.Hole}, req.Opponents, req.Iterations)
	if err != nil {
		return Equity{}, err
	}

	hero := res.Slots[0]
	win, tie := hero.WinRate(), hero.TieRate()
	eq := Equity{
		WinRate:       win,
		TieRate:       tie,
		LoseRate:      100 - win - tie,
		IterationsRun: res.Iterations,
		IndexFaults:   res.Faults,
		OK:            res.Faults == 0,
	}
	e.logger.Debug("Equity computed",
		"hole", deck.FormatList(req.Hole[:]),
		"board", deck.FormatList(req.Board),
		"opponents", req.Opponents,
		"iterations", res.Iterations,
		"win", fmt.Sprintf("%.2f", win),
		"took", res.Elapsed)
	return eq, nil
}

// Calculate runs the simulation for several known hands plus unknown
// opponents and returns the per-slot tallies.
func (e *Engine) Calculate(ctx context.Context, board []deck.Card, hands [][2]deck.Card, opponents, iterations int) (*simulator.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Run(ctx, iterations, board, hands, opponents)
}
