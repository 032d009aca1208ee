// Package simulator runs the Monte Carlo loop: deal the unknown cards, resolve
// the showdown and tally each hand slot's wins and ties.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/evaluator"
	"github.com/lox/pokerequity/internal/sampler"
	"github.com/lox/pokerequity/internal/statistics"
)

// ErrInvalidRequest is returned for a scenario the loop cannot run.
var ErrInvalidRequest = errors.New("invalid simulation request")

// MaxBoard is the number of cards on a complete board.
const MaxBoard = 5

// cancelCheckInterval is how many deals run between context checks.
const cancelCheckInterval = 4096

// Config holds the collaborators of a Simulator.
type Config struct {
	Evaluator *evaluator.Evaluator
	Sampler   sampler.Sampler
	Clock     quartz.Clock
	Logger    *log.Logger
}

// Simulator runs simulations serially. It is not safe for concurrent use
// because the sampler keeps state between draws.
type Simulator struct {
	config Config
}

// New creates a simulator with the given configuration
func New(config Config) *Simulator {
	if config.Clock == nil {
		config.Clock = quartz.NewReal()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Simulator{config: config}
}

// Result holds the outcome of a run. Slots are ordered known hands first, in
// input order, then one slot per unknown opponent.
type Result struct {
	Slots      []statistics.Tally
	Known      int
	Iterations int
	// Splits counts deals that ended in a tie between two or more slots.
	Splits  int
	Faults  int64
	Elapsed time.Duration
}

// Events returns the number of increment events: one per outright win plus
// one per tied deal. It equals Iterations for a complete run.
func (r *Result) Events() int {
	events := r.Splits
	for i := range r.Slots {
		events += r.Slots[i].Wins
	}
	return events
}

// Run simulates n deals of board completed to five cards, with the known
// hands and unknown random opponents.
func (s *Simulator) Run(ctx context.Context, n int, board []deck.Card, known [][2]deck.Card, unknown int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidRequest, n)
	}
	if unknown < 0 {
		return nil, fmt.Errorf("%w: negative opponent count %d", ErrInvalidRequest, unknown)
	}
	if len(board) > MaxBoard {
		return nil, fmt.Errorf("%w: board has %d cards, at most %d allowed", ErrInvalidRequest, len(board), MaxBoard)
	}
	if len(known)+unknown == 0 {
		return nil, fmt.Errorf("%w: no hands to evaluate", ErrInvalidRequest)
	}
	if err := deck.ValidateUnique(board, known...); err != nil {
		return nil, err
	}

	remaining := deck.Remaining(board, known)
	layout := sampler.Layout{BoardFill: MaxBoard - len(board), Opponents: unknown}
	if len(remaining) < layout.Size() {
		return nil, fmt.Errorf("%w: need %d cards, %d remain", sampler.ErrInsufficientPool, layout.Size(), len(remaining))
	}

	slots := len(known) + unknown
	result := &Result{
		Slots: make([]statistics.Tally, slots),
		Known: len(known),
	}

	hands := make([][2]deck.Card, slots)
	copy(hands, known)
	var full [MaxBoard]deck.Card
	copy(full[:], board)

	draw := make([]int, layout.Size())
	winners := make([]int, 0, slots)
	eval := s.config.Evaluator
	faultsBefore := eval.Faults()
	start := s.config.Clock.Now()

	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		s.config.Sampler.Draw(draw, len(remaining))
		for j, idx := range layout.Board(draw) {
			full[len(board)+j] = remaining[idx]
		}
		for o := 0; o < unknown; o++ {
			a, b := layout.Opponent(draw, o)
			hands[len(known)+o] = [2]deck.Card{remaining[a], remaining[b]}
		}

		winners = eval.Showdown(&full, hands, winners)
		result.record(winners)
	}

	result.Elapsed = s.config.Clock.Since(start)
	result.Faults = eval.Faults() - faultsBefore
	if result.Faults > 0 {
		s.config.Logger.Warn("simulation hit rank table misses", "faults", result.Faults, "iterations", n)
	}
	return result, nil
}

// record applies one deal's winner set. winners is ascending.
func (r *Result) record(winners []int) {
	r.Iterations++
	k := len(winners)
	if k > 1 {
		r.Splits++
	}

	w := 0
	for i := range r.Slots {
		if w < k && winners[w] == i {
			w++
			if k == 1 {
				r.Slots[i].Win()
			} else {
				r.Slots[i].Tie(k)
			}
			continue
		}
		r.Slots[i].Lose()
	}
}
