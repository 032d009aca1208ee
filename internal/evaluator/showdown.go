package evaluator

import (
	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/tables"
)

// Resolve returns the indices of the hands that hold the best strength on
// board, in ascending order. More than one index means a tie.
func (e *Evaluator) Resolve(board [5]deck.Card, hands [][2]deck.Card) ([]int, error) {
	if err := deck.ValidateUnique(board[:], hands...); err != nil {
		return nil, err
	}
	return e.Showdown(&board, hands, nil), nil
}

// Showdown is Resolve without validation. It appends winners to
// winners[:0] so the caller can reuse the buffer across iterations.
func (e *Evaluator) Showdown(board *[5]deck.Card, hands [][2]deck.Card, winners []int) []int {
	winners = winners[:0]
	best := tables.Invalid

	var cards [HandSize]deck.Card
	copy(cards[2:], board[:])
	for i, h := range hands {
		cards[0], cards[1] = h[0], h[1]
		s := e.strength(cards)
		switch {
		case s > best:
			best = s
			winners = append(winners[:0], i)
		case s == best:
			winners = append(winners, i)
		}
	}
	return winners
}
