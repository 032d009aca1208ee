package deck

import (
	"errors"
	"fmt"
)

// Errors returned by the codec and by card-set validation.
var (
	ErrInvalidCard   = errors.New("invalid card")
	ErrDuplicateCard = errors.New("duplicate card")
)

const (
	NumRanks = 13
	NumSuits = 4
	NumCards = NumRanks * NumSuits
)

// Suit represents a card suit. The order matches the suit tokens "cdhs".
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

const suitTokens = "cdhs"

// String returns the single-letter token for the suit
func (s Suit) String() string {
	if s >= NumSuits {
		return "?"
	}
	return string(suitTokens[s])
}

// Symbol returns the unicode suit symbol used in human-readable reports
func (s Suit) Symbol() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank, 0 = Two through 12 = Ace
type Rank uint8

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankTokens = "23456789TJQKA"

// String returns the single-character token for the rank
func (r Rank) String() string {
	if r >= NumRanks {
		return "?"
	}
	return string(rankTokens[r])
}

// Card is a dense card id in [0,52): suit*13 + rank.
type Card uint8

// NewCard creates a card from its rank and suit
func NewCard(rank Rank, suit Suit) Card {
	return Card(uint8(suit)*NumRanks + uint8(rank))
}

// Rank returns the card's rank
func (c Card) Rank() Rank {
	return Rank(uint8(c) % NumRanks)
}

// Suit returns the card's suit
func (c Card) Suit() Suit {
	return Suit(uint8(c) / NumRanks)
}

// Valid reports whether the id lies inside the 52-card universe
func (c Card) Valid() bool {
	return c < NumCards
}

// String returns the canonical two-character token (e.g. "As", "Td")
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return c.Rank().String() + c.Suit().String()
}

// Pretty returns the card with a suit symbol (e.g. "A♠")
func (c Card) Pretty() string {
	if !c.Valid() {
		return "??"
	}
	return c.Rank().String() + c.Suit().Symbol()
}

// Encode builds a card from a rank token (2-9, T, J, Q, K, A) and a suit
// token (c, d, h, s). Tokens are case-insensitive.
func Encode(rankToken, suitToken byte) (Card, error) {
	rank, err := parseRank(rankToken)
	if err != nil {
		return 0, err
	}
	suit, err := parseSuit(suitToken)
	if err != nil {
		return 0, err
	}
	return NewCard(rank, suit), nil
}

// Decode is the inverse of Encode
func Decode(c Card) (Rank, Suit) {
	return c.Rank(), c.Suit()
}

func parseRank(b byte) (Rank, error) {
	switch b {
	case 'A', 'a':
		return Ace, nil
	case 'K', 'k':
		return King, nil
	case 'Q', 'q':
		return Queen, nil
	case 'J', 'j':
		return Jack, nil
	case 'T', 't':
		return Ten, nil
	case '2', '3', '4', '5', '6', '7', '8', '9':
		return Rank(b - '2'), nil
	default:
		return 0, fmt.Errorf("%w: unknown rank %q", ErrInvalidCard, b)
	}
}

func parseSuit(b byte) (Suit, error) {
	switch b {
	case 'c', 'C':
		return Clubs, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'h', 'H':
		return Hearts, nil
	case 's', 'S':
		return Spades, nil
	default:
		return 0, fmt.Errorf("%w: unknown suit %q", ErrInvalidCard, b)
	}
}
