package evaluator

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/randutil"
	"github.com/lox/pokerequity/internal/tables"
	"github.com/lox/pokerequity/internal/tables/tablestest"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	return New(tablestest.Shared(t), log.New(&bytes.Buffer{}))
}

func seven(s string) [HandSize]deck.Card {
	cards := deck.MustParseList(s)
	var h [HandSize]deck.Card
	copy(h[:], cards)
	return h
}

func TestSubstitutionsVisitEverySubset(t *testing.T) {
	hand := [tables.Positions]int{2, 3, 4, 5, 6}
	key := func() uint8 {
		var m uint8
		for _, idx := range hand {
			m |= 1 << idx
		}
		return m
	}

	visited := map[uint8]bool{key(): true}
	for _, sub := range substitutions {
		hand[sub.pos] = sub.sel
		k := key()
		require.Equal(t, tables.Positions, popcount(k), "step %+v repeats a card", sub)
		visited[k] = true
	}
	assert.Len(t, visited, 21)
}

func popcount(m uint8) int {
	n := 0
	for ; m != 0; m &= m - 1 {
		n++
	}
	return n
}

func TestStrengthCategories(t *testing.T) {
	e := newTestEvaluator(t)

	tests := []struct {
		cards string
		want  tables.Category
	}{
		{"2c,4d,7h,9s,Jc,Kd,3h", tables.HighCard},
		{"2c,2d,7h,9s,Jc,Kd,3h", tables.Pair},
		{"2c,2d,7h,7s,Jc,Kd,3h", tables.TwoPair},
		{"2c,2d,2h,9s,Jc,Kd,3h", tables.ThreeOfAKind},
		{"Ac,2d,3h,4s,5c,Kd,9h", tables.Straight},
		{"2c,4c,7c,9c,Jc,Kd,3h", tables.Flush},
		{"2c,2d,2h,9s,9c,Kd,3h", tables.FullHouse},
		{"2c,2d,2h,2s,Jc,Kd,3h", tables.FourOfAKind},
		{"9h,Th,Jh,Qh,Kh,2c,3d", tables.StraightFlush},
		// a flush beats the straight on the same seven cards
		{"5h,6h,7h,8d,9h,Ah,2c", tables.Flush},
	}

	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			s := e.Strength(seven(tt.cards))
			require.True(t, s.Valid())
			assert.Equal(t, tt.want, s.Category())
		})
	}
	assert.Zero(t, e.Faults())
}

func TestStrengthIsPermutationInvariant(t *testing.T) {
	e := newTestEvaluator(t)
	rng := randutil.New(7)

	for i := 0; i < 2000; i++ {
		perm := rng.Perm(deck.NumCards)
		var cards [HandSize]deck.Card
		for j := range cards {
			cards[j] = deck.Card(perm[j])
		}
		want := e.Strength(cards)
		require.True(t, want.Valid())

		rng.Shuffle(HandSize, func(a, b int) { cards[a], cards[b] = cards[b], cards[a] })
		require.Equal(t, want, e.Strength(cards))
	}
	assert.Zero(t, e.Faults())
}

func TestStrengthRejectsBadInput(t *testing.T) {
	e := newTestEvaluator(t)

	dup := seven("As,Ks,Qs,Js,Ts,2c,3c")
	dup[6] = dup[0]
	assert.Equal(t, tables.Invalid, e.Strength(dup))

	bad := seven("As,Ks,Qs,Js,Ts,2c,3c")
	bad[3] = deck.Card(deck.NumCards)
	assert.Equal(t, tables.Invalid, e.Strength(bad))

	assert.Zero(t, e.Faults())
}

func TestResolve(t *testing.T) {
	e := newTestEvaluator(t)
	board := func(s string) [5]deck.Card {
		var b [5]deck.Card
		copy(b[:], deck.MustParseList(s))
		return b
	}
	hands := func(s string) [][2]deck.Card {
		h, err := deck.ParseHands(s)
		require.NoError(t, err)
		return h
	}

	tests := []struct {
		name  string
		board string
		hands string
		want  []int
	}{
		{
			name:  "both play the board straight",
			board: "9c,Th,Jd,Qc,Kd",
			hands: "2h,3h|2s,3s",
			want:  []int{0, 1},
		},
		{
			name:  "ace completes broadway over the board straight",
			board: "9c,Th,Jd,Qc,Kd",
			hands: "Ah,2h|2s,3s",
			want:  []int{0},
		},
		{
			name:  "three way tie on a royal board",
			board: "Ts,Js,Qs,Ks,As",
			hands: "2c,3c|4d,5d|6h,7h",
			want:  []int{0, 1, 2},
		},
		{
			name:  "kicker decides",
			board: "Ac,7d,5h,3s,2c",
			hands: "Ah,Kd|Ad,Qs",
			want:  []int{0},
		},
		{
			name:  "last hand wins",
			board: "Ac,7d,5h,3s,2c",
			hands: "8h,9d|Td,Jd|7s,7c",
			want:  []int{2},
		},
		{
			name:  "single hand always wins",
			board: "Ac,7d,5h,3s,2c",
			hands: "8h,9d",
			want:  []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Resolve(board(tt.board), hands(tt.hands))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := e.Resolve(board("9c,Th,Jd,Qc,Kd"), hands("9c,2h|2s,3s"))
	assert.ErrorIs(t, err, deck.ErrDuplicateCard)
	_, err = e.Resolve(board("9c,Th,Jd,Qc,Kd"), hands("Ah,2h|2h,3s"))
	assert.ErrorIs(t, err, deck.ErrDuplicateCard)
}

func TestShowdownReusesBuffer(t *testing.T) {
	e := newTestEvaluator(t)
	var b [5]deck.Card
	copy(b[:], deck.MustParseList("Ts,Js,Qs,Ks,As"))
	h, err := deck.ParseHands("2c,3c|4d,5d")
	require.NoError(t, err)

	buf := make([]int, 0, 8)
	got := e.Showdown(&b, h, buf)
	assert.Equal(t, []int{0, 1}, got)
	assert.Equal(t, cap(buf), cap(got))
}

func TestVerifyAgainstReference(t *testing.T) {
	e := newTestEvaluator(t)

	report, err := Verify(context.Background(), e, 20000, 11)
	require.NoError(t, err)
	assert.True(t, report.OK(), "first mismatch: %s", report.FirstMismatch)
	assert.Equal(t, 20000, report.Samples)
}

func TestVerifyHonoursCancellation(t *testing.T) {
	e := newTestEvaluator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Verify(ctx, e, 10, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReferenceAgreesOnKnownOrder(t *testing.T) {
	weaker := seven("2c,4d,7h,9s,Jc,Kd,3h")
	stronger := seven("2c,2d,7h,9s,Jc,Kd,3h")
	assert.Less(t, ReferenceStrength(weaker), ReferenceStrength(stronger))
}

func TestFaultsAreCountedAndLogged(t *testing.T) {
	trans := make([]int32, tables.TransitionLen)
	for i := range trans {
		trans[i] = int32(i % deck.NumCards)
	}
	// every slot empty, so every lookup misses
	empty, err := tables.New(make([]uint16, 5*51+1), trans)
	require.NoError(t, err)

	var buf bytes.Buffer
	e := New(empty, log.New(&buf))

	s := e.Strength(seven("2c,4d,7h,9s,Jc,Kd,3h"))
	assert.Equal(t, tables.Invalid, s)
	assert.Equal(t, int64(21), e.Faults())

	e.Strength(seven("2c,4d,7h,9s,Jc,Kd,4h"))
	assert.Equal(t, int64(42), e.Faults())
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("rank table lookup missed")))
}
