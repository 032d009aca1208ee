package tables

// Strength is the ordinal of a 5-card hand class. Higher values are
// stronger; equal values tie. Zero marks an invalid hand or an empty
// rank-table slot.
type Strength uint16

// Invalid is returned for inputs that violate the evaluator's preconditions.
const Invalid Strength = 0

// Category enumerates hand categories ordered from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

const (
	highCardCount      = 1277
	onePairCount       = 13 * 220
	twoPairCount       = 78 * 11
	threeOfAKindCount  = 13 * 66
	straightCount      = 10
	flushCount         = 1277
	fullHouseCount     = 13 * 12
	fourOfAKindCount   = 13 * 12
	straightFlushCount = 10
)

// NumClasses is the number of distinct 5-card hand classes.
const NumClasses = highCardCount + onePairCount + twoPairCount + threeOfAKindCount +
	straightCount + flushCount + fullHouseCount + fourOfAKindCount + straightFlushCount

// categoryCeilings hold the inclusive upper Strength of each category.
var categoryCeilings = func() [StraightFlush + 1]Strength {
	counts := [...]int{
		highCardCount, onePairCount, twoPairCount, threeOfAKindCount,
		straightCount, flushCount, fullHouseCount, fourOfAKindCount, straightFlushCount,
	}
	var ceilings [StraightFlush + 1]Strength
	total := 0
	for i, n := range counts {
		total += n
		ceilings[i] = Strength(total)
	}
	return ceilings
}()

// Valid reports whether s names a real hand class.
func (s Strength) Valid() bool {
	return s > Invalid && s <= NumClasses
}

// Category returns the hand category of the strength.
func (s Strength) Category() Category {
	for c, ceiling := range categoryCeilings {
		if s <= ceiling {
			return Category(c)
		}
	}
	return StraightFlush
}

// String returns a human-readable hand description.
func (s Strength) String() string {
	if !s.Valid() {
		return "Invalid"
	}
	return s.Category().String()
}

func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}
