package main

import (
	"os"

	"github.com/lox/pokerequity/internal/daemon"
	"github.com/lox/pokerequity/internal/engine"
)

// DaemonCmd keeps the tables resident and answers CALC requests.
type DaemonCmd struct {
	Tables string `help:"Lookup table directory (overrides config)" type:"path"`
	Listen string `help:"Serve the protocol over websockets on this address instead of stdin/stdout"`
	Seed   *int64 `help:"Deterministic sampler seed (overrides config)"`
}

func (c *DaemonCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
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

	// a load failure exits before READY is written
	e, err := engine.Open(dir, engine.Options{Seed: seed, Logger: logger})
	if err != nil {
		return err
	}

	d := daemon.New(daemon.Config{
		Engine: e,
		Limits: daemon.Limits{
			MinOpponents:  cfg.Daemon.MinOpponents,
			MaxOpponents:  cfg.Daemon.MaxOpponents,
			MinIterations: cfg.Daemon.MinIterations,
			MaxIterations: cfg.Daemon.MaxIterations,
		},
		Logger: logger,
	})

	ctx, stop := signalContext(logger)
	defer stop()

	listen := cfg.Daemon.Listen
	if c.Listen != "" {
		listen = c.Listen
	}
	if listen != "" {
		return d.ListenAndServe(ctx, listen)
	}
	return d.Serve(ctx, os.Stdin, os.Stdout)
}
