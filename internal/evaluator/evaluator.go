// Package evaluator finds the strongest 5-card hand inside 7 cards by walking
// all 21 five-card subsets with one table lookup each, and resolves showdowns
// between several such hands.
package evaluator

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/tables"
)

// ErrIndexFault reports that a computed key missed the rank table. With
// well-formed tables it never happens.
var ErrIndexFault = errors.New("internal index fault")

// HandSize is the number of cards a player evaluates (2 hole + 5 board).
const HandSize = 7

type substitution struct {
	pos int // position in the 5-card hand
	sel int // index into the sorted 7 cards
}

// substitutions walks from the base hand sorted[2:7] through every other
// 5-card subset of the sorted cards, changing one position per step.
var substitutions = [...]substitution{
	{0, 0}, {0, 1}, {1, 0}, {0, 2}, {1, 1},
	{2, 0}, {0, 3}, {1, 2}, {2, 1}, {3, 0},
	{0, 4}, {1, 3}, {2, 2}, {3, 1}, {4, 0},
	{0, 5}, {1, 4}, {2, 3}, {3, 2}, {4, 1},
}

// Evaluator computes hand strengths from shared lookup tables. It is safe for
// concurrent use.
type Evaluator struct {
	tables *tables.Tables
	logger *log.Logger

	faults    atomic.Int64
	faultOnce sync.Once
}

// New returns an Evaluator over t.
func New(t *tables.Tables, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.Default()
	}
	return &Evaluator{tables: t, logger: logger.WithPrefix("evaluator")}
}

// Tables returns the lookup tables the evaluator reads.
func (e *Evaluator) Tables() *tables.Tables {
	return e.tables
}

// Strength returns the strength of the best 5-card hand in cards. Cards that
// are invalid or repeated yield tables.Invalid.
func (e *Evaluator) Strength(cards [HandSize]deck.Card) tables.Strength {
	var seen deck.CardSet
	for _, c := range cards {
		if !c.Valid() || seen.Contains(c) {
			return tables.Invalid
		}
		seen.Add(c)
	}
	return e.strength(cards)
}

// strength skips validation; the simulation loop only deals distinct cards.
func (e *Evaluator) strength(cards [HandSize]deck.Card) tables.Strength {
	slices.Sort(cards[:])

	var base [tables.Positions]deck.Card
	copy(base[:], cards[2:])

	s, faults := BestStrength(e.tables, e.tables.Key(base), base, cards)
	if faults > 0 {
		e.recordFaults(faults, cards)
	}
	return s
}

// BestStrength returns the maximum strength over all 21 five-card subsets of
// sorted, starting from hand (which must be sorted[2:7]) and its key. Lookups
// that miss the rank table are skipped and counted in faults.
func BestStrength(t *tables.Tables, key int32, hand [tables.Positions]deck.Card, sorted [HandSize]deck.Card) (tables.Strength, int) {
	best := tables.Invalid
	faults := 0

	if s, ok := t.Lookup(key); ok {
		best = s
	} else {
		faults++
	}

	for _, sub := range substitutions {
		next := sorted[sub.sel]
		key += t.Delta(sub.pos, next) - t.Delta(sub.pos, hand[sub.pos])
		hand[sub.pos] = next

		s, ok := t.Lookup(key)
		if !ok {
			faults++
			continue
		}
		if s > best {
			best = s
		}
	}
	return best, faults
}

// Faults returns how many lookups have missed the rank table so far.
func (e *Evaluator) Faults() int64 {
	return e.faults.Load()
}

func (e *Evaluator) recordFaults(n int, cards [HandSize]deck.Card) {
	e.faults.Add(int64(n))
	e.faultOnce.Do(func() {
		e.logger.Warn("rank table lookup missed", "err", ErrIndexFault, "cards", deck.FormatList(cards[:]), "misses", n)
	})
}
