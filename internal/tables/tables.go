// Package tables holds the precomputed lookup tables behind hand evaluation:
// a rank table mapping a hand key to its Strength, and a positional
// transition table whose entries sum to that key.
package tables

import (
	"errors"
	"fmt"

	"github.com/lox/pokerequity/internal/deck"
)

// ErrTableLoad is returned when a table file is missing or malformed.
var ErrTableLoad = errors.New("table load failed")

const (
	// Positions is the number of cards in an evaluated hand.
	Positions = 5

	// TransitionLen is the number of entries in the transition table.
	TransitionLen = Positions * deck.NumCards

	RankFile       = "rank_table.bin"
	TransitionFile = "transition_table.bin"
)

// Tables is the immutable pair of lookup tables. It is safe for concurrent
// readers once constructed.
type Tables struct {
	rank   []uint16
	trans  [TransitionLen]int32
	maxKey int64
}

// New validates a rank table and a transition table and wraps them. It is the
// single place where table bounds are checked: every sum of one delta per
// position must index inside the rank table.
func New(rank []uint16, trans []int32) (*Tables, error) {
	if len(trans) != TransitionLen {
		return nil, fmt.Errorf("%w: transition table has %d entries, want %d", ErrTableLoad, len(trans), TransitionLen)
	}
	if len(rank) == 0 {
		return nil, fmt.Errorf("%w: rank table is empty", ErrTableLoad)
	}

	t := &Tables{rank: rank}
	copy(t.trans[:], trans)

	for p := 0; p < Positions; p++ {
		var rowMax int32
		for c := 0; c < deck.NumCards; c++ {
			d := t.trans[p*deck.NumCards+c]
			if d < 0 {
				return nil, fmt.Errorf("%w: negative delta %d at position %d card %d", ErrTableLoad, d, p, c)
			}
			rowMax = max(rowMax, d)
		}
		t.maxKey += int64(rowMax)
	}
	if int64(len(rank)) <= t.maxKey {
		return nil, fmt.Errorf("%w: rank table has %d entries but keys reach %d", ErrTableLoad, len(rank), t.maxKey)
	}
	return t, nil
}

// Delta returns the key contribution of card c at hand position pos.
func (t *Tables) Delta(pos int, c deck.Card) int32 {
	return t.trans[pos*deck.NumCards+int(c)]
}

// Key sums the position deltas of a 5-card hand.
func (t *Tables) Key(hand [Positions]deck.Card) int32 {
	var key int32
	for p, c := range hand {
		key += t.Delta(p, c)
	}
	return key
}

// Lookup returns the Strength stored at key. It reports false for a key
// outside the rank table or for an empty slot.
func (t *Tables) Lookup(key int32) (Strength, bool) {
	if key < 0 || int64(key) >= int64(len(t.rank)) {
		return Invalid, false
	}
	s := Strength(t.rank[key])
	if s == Invalid {
		return Invalid, false
	}
	return s, true
}

// MaxKey is the largest key reachable from the transition table.
func (t *Tables) MaxKey() int64 {
	return t.maxKey
}

// RankLen is the number of entries in the rank table.
func (t *Tables) RankLen() int {
	return len(t.rank)
}
