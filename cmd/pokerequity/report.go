package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/simulator"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	randomStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	loseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	equityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	footerStyle = lipgloss.NewStyle().
			Faint(true)
)

type handSummary struct {
	Hand    string  `json:"hand"`
	WinRate float64 `json:"win_rate"`
	TieRate float64 `json:"tie_rate"`
	Equity  float64 `json:"equity"`
}

// randomSummary aggregates every unknown opponent. Ties are not broken
// out because two random hands may share one pot.
type randomSummary struct {
	Hands   int     `json:"hands"`
	WinRate float64 `json:"win_rate"`
	Equity  float64 `json:"equity"`
}

type report struct {
	Board      string         `json:"board"`
	Hands      []handSummary  `json:"hands"`
	Random     *randomSummary `json:"random,omitempty"`
	Iterations int            `json:"iterations"`
	Seed       int64          `json:"seed"`

	board   []deck.Card
	elapsed time.Duration
}

func newReport(board []deck.Card, hands [][2]deck.Card, res *simulator.Result, seed int64) *report {
	r := &report{
		Board:      deck.FormatList(board),
		Hands:      make([]handSummary, 0, res.Known),
		Iterations: res.Iterations,
		Seed:       seed,
		board:      board,
		elapsed:    res.Elapsed,
	}
	for i := 0; i < res.Known; i++ {
		t := res.Slots[i]
		r.Hands = append(r.Hands, handSummary{
			Hand:    deck.FormatList(hands[i][:]),
			WinRate: t.WinRate(),
			TieRate: t.TieRate(),
			Equity:  t.Equity() * 100,
		})
	}

	if unknown := res.Slots[res.Known:]; len(unknown) > 0 && res.Iterations > 0 {
		var wins int
		var share float64
		for _, t := range unknown {
			wins += t.Wins
			share += t.Share
		}
		n := float64(res.Iterations)
		r.Random = &randomSummary{
			Hands:   len(unknown),
			WinRate: float64(wins) / n * 100,
			Equity:  share / n * 100,
		}
	}
	return r
}

func (r *report) writeJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(r)
}

func (r *report) writeText(w io.Writer) error {
	if len(r.board) > 0 {
		fmt.Fprintf(w, "%s\n", headerStyle.Render("board"))
		fmt.Fprintf(w, "%s\n\n", formatCards(r.board))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("hand"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("equity"))

	for _, h := range r.Hands {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			handStyle.Render(strings.ReplaceAll(h.Hand, ",", " ")),
			winStyle.Render(percent(h.WinRate)),
			tieStyle.Render(percent(h.TieRate)),
			equityStyle.Render(percent(h.Equity)))
	}
	if r.Random != nil {
		label := "?? ??"
		if r.Random.Hands > 1 {
			label = fmt.Sprintf("?? ?? x%d", r.Random.Hands)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			randomStyle.Render(label),
			winStyle.Render(percent(r.Random.WinRate)),
			tieStyle.Render("-"),
			equityStyle.Render(percent(r.Random.Equity)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n", footerStyle.Render(fmt.Sprintf("%d iterations in %v (seed %d)",
		r.Iterations, r.elapsed.Truncate(time.Millisecond), r.Seed)))
	return err
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
