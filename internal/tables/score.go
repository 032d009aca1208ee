package tables

import (
	"math/bits"

	"github.com/lox/pokerequity/internal/deck"
)

// score packs a 5-card hand's category and tie-break ranks so that a larger
// score is a stronger hand and equal scores tie. Category sits above bit 20,
// tie-break ranks fill descending nibbles below it.
func score(hand [Positions]deck.Card) uint32 {
	var counts [deck.NumRanks]uint8
	var mask uint16
	flush := true
	for i, c := range hand {
		r := c.Rank()
		counts[r]++
		mask |= 1 << r
		if i > 0 && c.Suit() != hand[0].Suit() {
			flush = false
		}
	}

	if bits.OnesCount16(mask) == Positions {
		high := straightHigh(mask)
		switch {
		case high >= 0 && flush:
			return pack(StraightFlush, uint8(high))
		case flush:
			return pack(Flush, topRanks(mask)...)
		case high >= 0:
			return pack(Straight, uint8(high))
		default:
			return pack(HighCard, topRanks(mask)...)
		}
	}

	// Paired hands: larger groups first, higher rank first within a size.
	var buf [Positions]uint8
	order := buf[:0]
	for n := uint8(4); n >= 1; n-- {
		for r := deck.NumRanks - 1; r >= 0; r-- {
			if counts[r] == n {
				order = append(order, uint8(r))
			}
		}
	}

	first, second := counts[order[0]], counts[order[1]]
	var cat Category
	switch {
	case first == 4:
		cat = FourOfAKind
	case first == 3 && second == 2:
		cat = FullHouse
	case first == 3:
		cat = ThreeOfAKind
	case first == 2 && second == 2:
		cat = TwoPair
	default:
		cat = Pair
	}
	return pack(cat, order...)
}

func pack(cat Category, ranks ...uint8) uint32 {
	s := uint32(cat) << 20
	for i, r := range ranks {
		s |= uint32(r) << (16 - 4*i)
	}
	return s
}

// straightHigh returns the top rank of a straight in mask, 3 (Five) for the
// wheel, or -1 when there is none.
func straightHigh(mask uint16) int {
	run := uint16(0x1F00) // A-K-Q-J-T
	for high := int(deck.Ace); high >= int(deck.Six); high-- {
		if mask&run == run {
			return high
		}
		run >>= 1
	}
	if mask&0x100F == 0x100F {
		return int(deck.Five)
	}
	return -1
}

// topRanks lists the ranks in mask from highest to lowest.
func topRanks(mask uint16) []uint8 {
	ranks := make([]uint8, 0, Positions)
	for mask != 0 {
		top := uint8(bits.Len16(mask) - 1)
		ranks = append(ranks, top)
		mask &^= 1 << top
	}
	return ranks
}
