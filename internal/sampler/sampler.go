// Package sampler draws the unknown cards of each simulated deal: the cards
// that complete the board and the hole cards of unknown opponents.
package sampler

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/pokerequity/internal/randutil"
)

// ErrInsufficientPool is returned when a deal needs more cards than remain.
var ErrInsufficientPool = errors.New("insufficient card pool")

// Sampler draws pairwise-distinct indices into a pool of remaining cards.
type Sampler interface {
	// Draw fills dst with len(dst) distinct indices in [0, poolSize).
	// Callers guarantee len(dst) <= poolSize.
	Draw(dst []int, poolSize int)
}

// Random samples uniformly without replacement using a partial
// Fisher-Yates shuffle over a reusable permutation.
type Random struct {
	rng  *rand.Rand
	perm []int
}

// NewRandom returns a Random sampler seeded deterministically.
func NewRandom(seed int64) *Random {
	return &Random{rng: randutil.New(seed)}
}

func (r *Random) Draw(dst []int, poolSize int) {
	if cap(r.perm) < poolSize {
		r.perm = make([]int, poolSize)
	}
	perm := r.perm[:poolSize]
	for i := range perm {
		perm[i] = i
	}
	for i := range dst {
		j := i + r.rng.IntN(poolSize-i)
		perm[i], perm[j] = perm[j], perm[i]
		dst[i] = perm[i]
	}
}

// Fixed replays a list of draws in order, wrapping around at the end. It is
// used for deterministic regression runs.
type Fixed struct {
	draws [][]int
	next  int
}

// NewFixed returns a sampler that replays draws. It panics when no draws
// are given.
func NewFixed(draws ...[]int) *Fixed {
	if len(draws) == 0 {
		panic("sampler: NewFixed needs at least one draw")
	}
	return &Fixed{draws: draws}
}

// Draw panics when the next recorded draw does not have exactly len(dst)
// indices.
func (f *Fixed) Draw(dst []int, poolSize int) {
	d := f.draws[f.next%len(f.draws)]
	if len(d) != len(dst) {
		panic(fmt.Sprintf("sampler: fixed draw %d has %d indices, want %d", f.next%len(f.draws), len(d), len(dst)))
	}
	f.next++
	copy(dst, d)
}

// Sample returns n independent draws of c distinct indices from [0, poolSize).
func Sample(s Sampler, n, c, poolSize int) ([][]int, error) {
	if poolSize < c {
		return nil, fmt.Errorf("%w: need %d cards, %d remain", ErrInsufficientPool, c, poolSize)
	}
	out := make([][]int, n)
	for i := range out {
		out[i] = make([]int, c)
		s.Draw(out[i], poolSize)
	}
	return out, nil
}

// Layout describes how one draw is split: the first BoardFill indices
// complete the board, the rest go two at a time to unknown opponents.
type Layout struct {
	BoardFill int
	Opponents int
}

// Size is the number of indices one deal consumes.
func (l Layout) Size() int {
	return l.BoardFill + 2*l.Opponents
}

// Board returns the board-fill part of a draw.
func (l Layout) Board(draw []int) []int {
	return draw[:l.BoardFill]
}

// Opponent returns the two indices dealt to unknown opponent i.
func (l Layout) Opponent(draw []int, i int) (int, int) {
	off := l.BoardFill + 2*i
	return draw[off], draw[off+1]
}
