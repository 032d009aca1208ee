package tables

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerequity/internal/deck"
)

// Key construction. A card contributes rankKeys[rank] + suitKeys[suit]*suitStride.
// Every multiset of five rank keys has a distinct sum below suitStride, and a
// sum of five suit keys lands in {0, 5, 30, 35} only when all five suits match,
// so a key fixes both the rank multiset and whether the hand is a flush.
var (
	rankKeys = [deck.NumRanks]int32{0, 1, 5, 22, 94, 312, 992, 2422, 5624, 12522, 19998, 43258, 79415}
	suitKeys = [deck.NumSuits]int32{0, 1, 6, 7}
)

const suitStride = 360919

func cardKey(c deck.Card) int32 {
	return rankKeys[c.Rank()] + suitKeys[c.Suit()]*suitStride
}

type keyedScore struct {
	key   int32
	score uint32
}

// Generate builds both tables by enumerating every 5-card hand. Hands are
// scored in parallel, one worker per lowest card, then ordinals 1..NumClasses
// are assigned in ascending score order.
func Generate(ctx context.Context) (*Tables, error) {
	trans := make([]int32, TransitionLen)
	for p := 0; p < Positions; p++ {
		for c := 0; c < deck.NumCards; c++ {
			trans[p*deck.NumCards+c] = cardKey(deck.Card(c))
		}
	}

	buckets := make([][]keyedScore, deck.NumCards-Positions+1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for first := range buckets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buckets[first] = enumerateFrom(deck.Card(first))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate tables: %w", err)
	}

	seen := make(map[uint32]struct{}, NumClasses)
	var maxKey int32
	for _, bucket := range buckets {
		for _, ks := range bucket {
			seen[ks.score] = struct{}{}
			maxKey = max(maxKey, ks.key)
		}
	}
	if len(seen) != NumClasses {
		return nil, fmt.Errorf("generate tables: found %d hand classes, want %d", len(seen), NumClasses)
	}

	scores := make([]uint32, 0, len(seen))
	for s := range seen {
		scores = append(scores, s)
	}
	slices.Sort(scores)
	ordinals := make(map[uint32]uint16, len(scores))
	for i, s := range scores {
		ordinals[s] = uint16(i + 1)
	}

	// Size to the largest key any transition path can reach, not just the
	// largest key of a legal hand, so New's bound check holds.
	reach := int32(0)
	for p := 0; p < Positions; p++ {
		reach += slices.Max(trans[p*deck.NumCards : (p+1)*deck.NumCards])
	}
	rank := make([]uint16, max(reach, maxKey)+1)
	for _, bucket := range buckets {
		for _, ks := range bucket {
			ord := ordinals[ks.score]
			if cur := rank[ks.key]; cur != 0 && cur != ord {
				return nil, fmt.Errorf("generate tables: key %d maps to both %d and %d", ks.key, cur, ord)
			}
			rank[ks.key] = ord
		}
	}

	return New(rank, trans)
}

// enumerateFrom scores every hand whose lowest card id is first.
func enumerateFrom(first deck.Card) []keyedScore {
	var out []keyedScore
	var hand [Positions]deck.Card
	hand[0] = first
	for b := first + 1; b < deck.NumCards; b++ {
		hand[1] = b
		for c := b + 1; c < deck.NumCards; c++ {
			hand[2] = c
			for d := c + 1; d < deck.NumCards; d++ {
				hand[3] = d
				for e := d + 1; e < deck.NumCards; e++ {
					hand[4] = e
					var key int32
					for _, card := range hand {
						key += cardKey(card)
					}
					out = append(out, keyedScore{key: key, score: score(hand)})
				}
			}
		}
	}
	return out
}
