package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/pokerequity/internal/evaluator"
	"github.com/lox/pokerequity/internal/tables"
)

// TablesCmd groups the lookup table utilities.
type TablesCmd struct {
	Generate TablesGenerateCmd `cmd:"" help:"Build the rank and transition tables"`
	Verify   TablesVerifyCmd   `cmd:"" help:"Cross-check the tables against a reference evaluator"`
}

// TablesGenerateCmd writes freshly generated tables to a directory.
type TablesGenerateCmd struct {
	Out string `help:"Output directory (defaults to the configured tables_dir)" type:"path"`
}

func (c *TablesGenerateCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	out := cfg.Engine.TablesDir
	if c.Out != "" {
		out = c.Out
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	ctx, stop := signalContext(logger)
	defer stop()

	start := time.Now()
	t, err := tables.Generate(ctx)
	if err != nil {
		return err
	}
	logger.Info("Tables generated", "rank_entries", t.RankLen(), "max_key", t.MaxKey(), "took", time.Since(start))

	if err := tables.Write(out, t); err != nil {
		return err
	}
	logger.Info("Tables written", "dir", out)
	return nil
}

// TablesVerifyCmd compares hand ordering against github.com/paulhankin/poker.
type TablesVerifyCmd struct {
	Tables  string `help:"Lookup table directory (overrides config)" type:"path"`
	Samples int    `default:"100000" help:"Number of hand pairs to compare"`
	Seed    int64  `default:"1" help:"Seed for dealing the sample hands"`
}

func (c *TablesVerifyCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	dir := cfg.Engine.TablesDir
	if c.Tables != "" {
		dir = c.Tables
	}

	t, err := tables.Load(dir)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(logger)
	defer stop()

	report, err := evaluator.Verify(ctx, evaluator.New(t, logger), c.Samples, c.Seed)
	if err != nil {
		return err
	}
	logger.Info("Verification finished",
		"samples", report.Samples,
		"disagreements", report.Disagreements,
		"index_faults", report.Faults)
	if !report.OK() {
		if report.FirstMismatch != "" {
			logger.Error("First mismatch", "hands", report.FirstMismatch)
		}
		return fmt.Errorf("tables in %s failed verification", dir)
	}
	return nil
}
