package daemon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/engine"
	"github.com/lox/pokerequity/internal/sampler"
)

func TestParseCalc(t *testing.T) {
	tests := []struct {
		name string
		args string
		code Code
	}{
		{"too few fields", "|As,Kh|2", CodeMalformedRequest},
		{"too many fields", "|As,Kh|2|1000|x", CodeMalformedRequest},
		{"opponents not a number", "|As,Kh|two|1000", CodeMalformedRequest},
		{"iterations not a number", "|As,Kh|2|lots", CodeMalformedRequest},
		{"zero opponents", "|As,Kh|0|1000", CodeMalformedRequest},
		{"nine opponents", "|As,Kh|9|1000", CodeMalformedRequest},
		{"too few iterations", "|As,Kh|2|99", CodeMalformedRequest},
		{"too many iterations", "|As,Kh|2|1000001", CodeMalformedRequest},
		{"bad board card", "Xx|As,Kh|2|1000", CodeInvalidCard},
		{"six board cards", "2c,3c,4c,5c,6c,7c|As,Kh|2|1000", CodeMalformedRequest},
		{"bad hole card", "|As,K?|2|1000", CodeInvalidCard},
		{"one hole card", "|As|2|1000", CodeMalformedRequest},
		{"three hole cards", "|As,Kh,Qd|2|1000", CodeMalformedRequest},
		{"duplicate hole cards", "|As,As|2|1000", CodeDuplicateCard},
		{"hole card on board", "As,2c,3d|As,Kh|2|1000", CodeDuplicateCard},
		// limits are checked before cards
		{"limits before cards", "Xx|As,Kh|0|1000", CodeMalformedRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCalc(tt.args, DefaultLimits())
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeFor(err), "error: %v", err)
		})
	}
}

func TestParseCalcAccepts(t *testing.T) {
	req, err := ParseCalc("Jh,Ts,9c,2d|As,Kh|1|100000", DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, "Jh,Ts,9c,2d", deck.FormatList(req.Board))
	assert.Equal(t, "As,Kh", deck.FormatList(req.Hole[:]))
	assert.Equal(t, 1, req.Opponents)
	assert.Equal(t, 100000, req.Iterations)

	req, err = ParseCalc("|as,kh|8|100", DefaultLimits())
	require.NoError(t, err)
	assert.Empty(t, req.Board)
	assert.Equal(t, 8, req.Opponents)
}

func TestParseCalcCustomLimits(t *testing.T) {
	limits := Limits{MinOpponents: 2, MaxOpponents: 3, MinIterations: 10, MaxIterations: 20}

	_, err := ParseCalc("|As,Kh|1|15", limits)
	assert.ErrorIs(t, err, ErrMalformedRequest)
	_, err = ParseCalc("|As,Kh|2|21", limits)
	assert.ErrorIs(t, err, ErrMalformedRequest)
	_, err = ParseCalc("|As,Kh|3|10", limits)
	assert.NoError(t, err)
}

func TestFormatCalcRoundTrip(t *testing.T) {
	req := engine.Request{
		Hole:       [2]deck.Card{deck.MustParse("Ad"), deck.MustParse("Kh")},
		Board:      deck.MustParseList("9c,Th,Jd"),
		Opponents:  3,
		Iterations: 5000,
	}
	line := FormatCalc(req)
	assert.Equal(t, "CALC 9c,Th,Jd|Ad,Kh|3|5000", line)

	parsed, err := ParseCalc(line[len(CommandCalc)+1:], DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, req, parsed)
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, CodeInsufficientPool, CodeFor(sampler.ErrInsufficientPool))
	assert.Equal(t, CodeInternal, CodeFor(errors.New("boom")))
}
