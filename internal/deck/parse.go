package deck

import (
	"fmt"
	"strings"
)

// Parse parses a single two-character card token such as "As" or "td".
func Parse(token string) (Card, error) {
	if len(token) != 2 {
		return 0, fmt.Errorf("%w: %q must be rank+suit", ErrInvalidCard, token)
	}
	return Encode(token[0], token[1])
}

// MustParse parses a card and panics on error (for tests)
func MustParse(token string) Card {
	c, err := Parse(token)
	if err != nil {
		panic(fmt.Sprintf("failed to parse card %q: %v", token, err))
	}
	return c
}

// ParseList parses a comma-delimited card list ("9c,Th,Jd"). Spaces are
// ignored and an empty string yields no cards.
func ParseList(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	cards := make([]Card, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		c, err := Parse(part)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseList parses a card list and panics on error (for tests)
func MustParseList(s string) []Card {
	cards, err := ParseList(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards %q: %v", s, err))
	}
	return cards
}

// ParseHand parses exactly two comma-delimited cards.
func ParseHand(s string) ([2]Card, error) {
	cards, err := ParseList(s)
	if err != nil {
		return [2]Card{}, err
	}
	if len(cards) != 2 {
		return [2]Card{}, fmt.Errorf("%w: hand %q must contain exactly 2 cards, got %d", ErrInvalidCard, s, len(cards))
	}
	return [2]Card{cards[0], cards[1]}, nil
}

// ParseHands parses pipe-delimited hands ("Ad,Kh|2c,7d").
func ParseHands(s string) ([][2]Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var hands [][2]Card
	for i, part := range strings.Split(s, "|") {
		hand, err := ParseHand(part)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i+1, err)
		}
		hands = append(hands, hand)
	}
	return hands, nil
}

// FormatList renders cards as a comma-delimited token list
func FormatList(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
