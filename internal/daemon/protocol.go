package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/engine"
	"github.com/lox/pokerequity/internal/sampler"
)

// ErrMalformedRequest is returned for a request line that does not follow
// the protocol grammar or falls outside the configured limits.
var ErrMalformedRequest = errors.New("malformed request")

// Line protocol commands and markers.
const (
	Ready       = "READY"
	CommandCalc = "CALC"
	CommandExit = "EXIT"
	CommandQuit = "QUIT"
)

// Code classifies an error reply
type Code string

const (
	CodeMalformedRequest Code = "malformed_request"
	CodeInvalidCard      Code = "invalid_card"
	CodeDuplicateCard    Code = "duplicate_card"
	CodeInsufficientPool Code = "insufficient_pool"
	CodeInternal         Code = "internal"
)

// Limits bound the opponents and iterations a request may ask for.
type Limits struct {
	MinOpponents  int
	MaxOpponents  int
	MinIterations int
	MaxIterations int
}

// DefaultLimits returns the standard request bounds.
func DefaultLimits() Limits {
	return Limits{
		MinOpponents:  1,
		MaxOpponents:  8,
		MinIterations: 100,
		MaxIterations: 1_000_000,
	}
}

// Result is the success reply to a CALC request. Rates are percentages.
type Result struct {
	WinRate              float64 `json:"win_rate"`
	TieRate              float64 `json:"tie_rate"`
	LoseRate             float64 `json:"lose_rate"`
	SimulationsCompleted int     `json:"simulations_completed"`
	IndexFaults          int64   `json:"index_faults,omitempty"`
}

// Failure is the error reply to any request.
type Failure struct {
	Error string `json:"error,omitempty"`
	Code  Code   `json:"code,omitempty"`
}

// Reply decodes either kind of reply line.
type Reply struct {
	Result
	Failure
}

// IsError reports whether the reply carries an error
func (r *Reply) IsError() bool {
	return r.Error != ""
}

// FormatCalc renders a CALC request line without the trailing newline.
func FormatCalc(req engine.Request) string {
	return fmt.Sprintf("%s %s|%s|%d|%d", CommandCalc,
		deck.FormatList(req.Board), deck.FormatList(req.Hole[:]), req.Opponents, req.Iterations)
}

// ParseCalc parses the arguments of a CALC line,
// "<board>|<hole>|<opponents>|<iterations>", checking fields in the order
// the protocol defines: shape, integers, limits, board, hole cards, then
// duplicates.
func ParseCalc(args string, limits Limits) (engine.Request, error) {
	var req engine.Request

	parts := strings.Split(args, "|")
	if len(parts) != 4 {
		return req, fmt.Errorf("%w: expected CALC board|hole|opponents|iterations", ErrMalformedRequest)
	}

	opponents, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return req, fmt.Errorf("%w: opponents %q is not an integer", ErrMalformedRequest, parts[2])
	}
	iterations, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return req, fmt.Errorf("%w: iterations %q is not an integer", ErrMalformedRequest, parts[3])
	}
	if opponents < limits.MinOpponents || opponents > limits.MaxOpponents {
		return req, fmt.Errorf("%w: opponents must be %d-%d", ErrMalformedRequest, limits.MinOpponents, limits.MaxOpponents)
	}
	if iterations < limits.MinIterations || iterations > limits.MaxIterations {
		return req, fmt.Errorf("%w: iterations must be %d-%d", ErrMalformedRequest, limits.MinIterations, limits.MaxIterations)
	}

	board, err := deck.ParseList(parts[0])
	if err != nil {
		return req, fmt.Errorf("board: %w", err)
	}
	if len(board) > 5 {
		return req, fmt.Errorf("%w: board cannot have more than 5 cards", ErrMalformedRequest)
	}

	hole, err := deck.ParseList(parts[1])
	if err != nil {
		return req, fmt.Errorf("hole cards: %w", err)
	}
	if len(hole) != 2 {
		return req, fmt.Errorf("%w: need exactly 2 hole cards, got %d", ErrMalformedRequest, len(hole))
	}

	req = engine.Request{
		Hole:       [2]deck.Card{hole[0], hole[1]},
		Board:      board,
		Opponents:  opponents,
		Iterations: iterations,
	}
	if err := deck.ValidateUnique(req.Board, req.Hole); err != nil {
		return engine.Request{}, err
	}
	return req, nil
}

// CodeFor maps an error to its reply code.
func CodeFor(err error) Code {
	switch {
	case errors.Is(err, ErrMalformedRequest):
		return CodeMalformedRequest
	case errors.Is(err, deck.ErrInvalidCard):
		return CodeInvalidCard
	case errors.Is(err, deck.ErrDuplicateCard):
		return CodeDuplicateCard
	case errors.Is(err, sampler.ErrInsufficientPool):
		return CodeInsufficientPool
	default:
		return CodeInternal
	}
}

func encodeResult(eq engine.Equity) []byte {
	data, _ := json.Marshal(Result{
		WinRate:              round(eq.WinRate),
		TieRate:              round(eq.TieRate),
		LoseRate:             round(eq.LoseRate),
		SimulationsCompleted: eq.IterationsRun,
		IndexFaults:          eq.IndexFaults,
	})
	return data
}

func encodeFailure(err error) []byte {
	data, _ := json.Marshal(Failure{Error: err.Error(), Code: CodeFor(err)})
	return data
}

// round keeps four decimal places of a percentage
func round(pct float64) float64 {
	return math.Round(pct*1e4) / 1e4
}
