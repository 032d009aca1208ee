package evaluator

import (
	"cmp"
	"context"
	"fmt"

	phpoker "github.com/paulhankin/poker"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/sampler"
)

// VerifyReport summarizes a cross-check against the reference evaluator.
type VerifyReport struct {
	Samples       int
	Disagreements int
	Faults        int64
	FirstMismatch string
}

// OK reports whether every compared pair agreed and no lookup missed.
func (r VerifyReport) OK() bool {
	return r.Disagreements == 0 && r.Faults == 0
}

// Verify deals samples random pairs of 7-card hands sharing nothing, and
// checks that e orders each pair the same way github.com/paulhankin/poker
// does.
func Verify(ctx context.Context, e *Evaluator, samples int, seed int64) (VerifyReport, error) {
	report := VerifyReport{Samples: samples}
	faultsBefore := e.Faults()

	s := sampler.NewRandom(seed)
	draw := make([]int, 2*HandSize)
	for i := 0; i < samples; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return report, err
			}
		}

		s.Draw(draw, deck.NumCards)
		var a, b [HandSize]deck.Card
		for j := 0; j < HandSize; j++ {
			a[j] = deck.Card(draw[j])
			b[j] = deck.Card(draw[HandSize+j])
		}

		ours := cmp.Compare(e.Strength(a), e.Strength(b))
		ref := cmp.Compare(ReferenceStrength(a), ReferenceStrength(b))
		if ours != ref {
			report.Disagreements++
			if report.FirstMismatch == "" {
				report.FirstMismatch = fmt.Sprintf("[%s] vs [%s]: got %d, reference %d",
					deck.FormatList(a[:]), deck.FormatList(b[:]), ours, ref)
			}
		}
	}

	report.Faults = e.Faults() - faultsBefore
	return report, nil
}

// ReferenceStrength scores 7 distinct cards with github.com/paulhankin/poker.
// Higher is stronger.
func ReferenceStrength(cards [HandSize]deck.Card) int16 {
	var hand [HandSize]phpoker.Card
	for i, c := range cards {
		hand[i] = referenceCard(c)
	}
	return phpoker.Eval7(&hand)
}

func referenceCard(c deck.Card) phpoker.Card {
	var suit phpoker.Suit
	switch c.Suit() {
	case deck.Clubs:
		suit = phpoker.Club
	case deck.Diamonds:
		suit = phpoker.Diamond
	case deck.Hearts:
		suit = phpoker.Heart
	default:
		suit = phpoker.Spade
	}

	// The reference numbers Ace as 1 and Two..King as 2..13.
	rank := phpoker.Rank(c.Rank() + 2)
	if c.Rank() == deck.Ace {
		rank = phpoker.Rank(1)
	}

	card, err := phpoker.MakeCard(suit, rank)
	if err != nil {
		panic(fmt.Sprintf("reference card for %s: %v", c, err))
	}
	return card
}
