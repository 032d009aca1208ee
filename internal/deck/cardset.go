package deck

import (
	"fmt"
	"math/bits"
)

// CardSet represents a set of cards using a bitset, one bit per card id.
type CardSet uint64

// Add adds a card to the set
func (cs *CardSet) Add(c Card) {
	*cs |= 1 << c
}

// Contains checks if a card is in the set
func (cs CardSet) Contains(c Card) bool {
	return cs&(1<<c) != 0
}

// Len returns the number of cards in the set
func (cs CardSet) Len() int {
	return bits.OnesCount64(uint64(cs))
}

// NewCardSet creates a CardSet from a slice of cards
func NewCardSet(cards []Card) CardSet {
	var cs CardSet
	for _, c := range cards {
		cs.Add(c)
	}
	return cs
}

// ValidateUnique checks that every card across the board and the hands is a
// valid id and appears only once.
func ValidateUnique(board []Card, hands ...[2]Card) error {
	_, err := usedSet(board, hands)
	return err
}

func usedSet(board []Card, hands [][2]Card) (CardSet, error) {
	var seen CardSet
	for _, c := range board {
		if !c.Valid() {
			return 0, fmt.Errorf("%w: board card id %d", ErrInvalidCard, c)
		}
		if seen.Contains(c) {
			return 0, fmt.Errorf("%w: %s appears more than once on the board", ErrDuplicateCard, c)
		}
		seen.Add(c)
	}
	for i, hand := range hands {
		for _, c := range hand {
			if !c.Valid() {
				return 0, fmt.Errorf("%w: hand %d card id %d", ErrInvalidCard, i+1, c)
			}
			if seen.Contains(c) {
				return 0, fmt.Errorf("%w: %s in hand %d is already in use", ErrDuplicateCard, c, i+1)
			}
			seen.Add(c)
		}
	}
	return seen, nil
}

// Remaining returns the cards not on the board and not in any hand, in
// ascending id order. Invalid ids are ignored; call ValidateUnique first when
// the inputs are untrusted.
func Remaining(board []Card, hands [][2]Card) []Card {
	var used CardSet
	for _, c := range board {
		if c.Valid() {
			used.Add(c)
		}
	}
	for _, hand := range hands {
		for _, c := range hand {
			if c.Valid() {
				used.Add(c)
			}
		}
	}

	remaining := make([]Card, 0, NumCards-used.Len())
	for c := Card(0); c < NumCards; c++ {
		if !used.Contains(c) {
			remaining = append(remaining, c)
		}
	}
	return remaining
}
