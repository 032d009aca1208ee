package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerequity/internal/config"
	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/simulator"
	"github.com/lox/pokerequity/internal/statistics"
)

func sampleResult() (*simulator.Result, [][2]deck.Card) {
	hands, _ := deck.ParseHands("As,Kh|Qd,Qc")
	// 100 deals: hero wins 40, queens win 30, the random hand wins 20,
	// and 10 are split between hero and queens
	res := &simulator.Result{
		Slots: []statistics.Tally{
			{Trials: 100, Wins: 40, Ties: 10, Share: 45},
			{Trials: 100, Wins: 30, Ties: 10, Share: 35},
			{Trials: 100, Wins: 20, Share: 20},
		},
		Known:      2,
		Iterations: 100,
		Splits:     10,
	}
	return res, hands
}

func TestReportSummaries(t *testing.T) {
	res, hands := sampleResult()
	rep := newReport(deck.MustParseList("9c,Th,Jd"), hands, res, 42)

	require.Len(t, rep.Hands, 2)
	assert.Equal(t, "As,Kh", rep.Hands[0].Hand)
	assert.InDelta(t, 40, rep.Hands[0].WinRate, 1e-9)
	assert.InDelta(t, 10, rep.Hands[0].TieRate, 1e-9)
	assert.InDelta(t, 45, rep.Hands[0].Equity, 1e-9)

	require.NotNil(t, rep.Random)
	assert.Equal(t, 1, rep.Random.Hands)
	assert.InDelta(t, 20, rep.Random.WinRate, 1e-9)
	assert.InDelta(t, 20, rep.Random.Equity, 1e-9)
}

func TestReportJSON(t *testing.T) {
	res, hands := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, newReport(nil, hands, res, 7).writeJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(100), decoded["iterations"])
	assert.Equal(t, float64(7), decoded["seed"])
	assert.Len(t, decoded["hands"], 2)
	assert.Contains(t, decoded, "random")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestReportText(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	res, hands := sampleResult()

	var buf bytes.Buffer
	require.NoError(t, newReport(deck.MustParseList("9c,Th,Jd"), hands, res, 42).writeText(&buf))
	out := buf.String()

	assert.Contains(t, out, "9c Th Jd")
	assert.Contains(t, out, "As Kh")
	assert.Contains(t, out, "40.0%")
	assert.Contains(t, out, "?? ??")
	assert.Contains(t, out, "100 iterations")
	assert.Contains(t, out, "seed 42")
}

func TestReportWithoutRandomHands(t *testing.T) {
	res, hands := sampleResult()
	res.Slots = res.Slots[:2]
	rep := newReport(nil, hands, res, 1)
	assert.Nil(t, rep.Random)

	var buf bytes.Buffer
	require.NoError(t, rep.writeText(&buf))
	assert.NotContains(t, buf.String(), "??")
	assert.NotContains(t, buf.String(), "board")
}

func TestResolveDaemonCommand(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.TablesDir = "/var/lib/tables"

	cmd, err := resolveDaemonCommand(cfg, &Globals{Config: "equity.hcl"})
	require.NoError(t, err)
	assert.NotEmpty(t, cmd.binary)
	assert.Equal(t, []string{"daemon", "--tables", "/var/lib/tables", "--log-level", "info", "--config", "equity.hcl"}, cmd.args)

	cfg.Client.Binary = "/usr/bin/pokerequity"
	cfg.Client.Args = []string{"daemon", "--listen", ""}
	cmd, err = resolveDaemonCommand(cfg, &Globals{})
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/pokerequity", cmd.binary)
	assert.Equal(t, cfg.Client.Args, cmd.args)
}

func TestCalcParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		cmd     CalcCmd
		wantErr string
	}{
		{"preflop", CalcCmd{Board: "", Hands: "As,Kh", Opponents: 2}, ""},
		{"several hands", CalcCmd{Board: "9c,Th,Jd", Hands: "As,Kh|Qd,Qc", Opponents: 0}, ""},
		{"no known hands", CalcCmd{Board: "", Hands: "", Opponents: 2}, "at least one known hand"},
		{"too many opponents", CalcCmd{Hands: "As,Kh", Opponents: 9}, "opponents must be"},
		{"six board cards", CalcCmd{Board: "2c,3c,4c,5c,6c,7c", Hands: "As,Kh"}, "more than 5"},
		{"bad card", CalcCmd{Hands: "As,Xh"}, "hands"},
		{"duplicate", CalcCmd{Board: "As,2c,3d", Hands: "As,Kh"}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, hands, err := tt.cmd.parseArgs()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hands)
			assert.LessOrEqual(t, len(board), 5)
		})
	}
}
