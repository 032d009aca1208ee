package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/engine"
)

const maxCalcOpponents = 8

// CalcCmd is the single-shot interface: load the tables, simulate, report.
type CalcCmd struct {
	Board      string `arg:"" help:"Board cards, e.g. '9c,Th,Jd' (empty string for preflop)"`
	Hands      string `arg:"" help:"Known hands separated by '|', e.g. 'As,Kh|Qd,Qc'"`
	Opponents  int    `arg:"" help:"Number of random opponents (0-8)"`
	Iterations int    `short:"i" default:"100000" help:"Number of Monte Carlo iterations"`
	JSON       bool   `help:"Print one JSON summary instead of the report"`
	Seed       *int64 `help:"Deterministic sampler seed"`
	Tables     string `help:"Lookup table directory (overrides config)" type:"path"`
}

func (c *CalcCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}

	board, hands, err := c.parseArgs()
	if err != nil {
		return err
	}

	dir := cfg.Engine.TablesDir
	if c.Tables != "" {
		dir = c.Tables
	}
	seed := cfg.Engine.Seed
	if c.Seed != nil {
		seed = *c.Seed
	}
	e, err := engine.Open(dir, engine.Options{Seed: seed, Logger: logger})
	if err != nil {
		return err
	}

	ctx, stop := signalContext(logger)
	defer stop()

	res, err := e.Calculate(ctx, board, hands, c.Opponents, c.Iterations)
	if err != nil {
		return err
	}
	if res.Faults > 0 {
		return fmt.Errorf("%d rank table misses during simulation; tables are corrupt", res.Faults)
	}

	rep := newReport(board, hands, res, e.Seed())
	if c.JSON {
		return rep.writeJSON(os.Stdout)
	}
	return rep.writeText(os.Stdout)
}

// parseArgs validates the positional arguments before any tables are loaded.
func (c *CalcCmd) parseArgs() ([]deck.Card, [][2]deck.Card, error) {
	board, err := deck.ParseList(c.Board)
	if err != nil {
		return nil, nil, fmt.Errorf("board: %w", err)
	}
	if len(board) > 5 {
		return nil, nil, fmt.Errorf("board cannot have more than 5 cards, got %d", len(board))
	}
	hands, err := deck.ParseHands(c.Hands)
	if err != nil {
		return nil, nil, fmt.Errorf("hands: %w", err)
	}
	if len(hands) == 0 {
		return nil, nil, errors.New("at least one known hand is required")
	}
	if c.Opponents < 0 || c.Opponents > maxCalcOpponents {
		return nil, nil, fmt.Errorf("opponents must be 0-%d, got %d", maxCalcOpponents, c.Opponents)
	}
	if err := deck.ValidateUnique(board, hands...); err != nil {
		return nil, nil, err
	}
	return board, hands, nil
}
