package main

import (
	"fmt"
	"os"

	"github.com/lox/pokerequity/internal/client"
	"github.com/lox/pokerequity/internal/config"
	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/engine"
)

// QueryCmd asks a supervised daemon for equity, the way an embedding
// application would.
type QueryCmd struct {
	Hole       string `required:"" help:"Hero hole cards, e.g. 'As,Kh'"`
	Board      string `help:"Board cards"`
	Opponents  int    `default:"2" help:"Number of random opponents"`
	Iterations int    `short:"i" default:"10000" help:"Iterations per request"`
	Repeat     int    `default:"1" help:"Send the request this many times"`
	Tables     string `help:"Lookup table directory (overrides config)" type:"path"`
}

func (c *QueryCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}

	hole, err := deck.ParseHand(c.Hole)
	if err != nil {
		return fmt.Errorf("hole: %w", err)
	}
	board, err := deck.ParseList(c.Board)
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if c.Tables != "" {
		cfg.Engine.TablesDir = c.Tables
	}

	daemonCmd, err := resolveDaemonCommand(cfg, g)
	if err != nil {
		return err
	}
	var fallback client.Calculator
	if !cfg.Client.DisableFallback {
		fallback = client.FreshEngine{Dir: cfg.Engine.TablesDir, Seed: cfg.Engine.Seed, Logger: logger}
	}
	cl := client.New(client.Config{
		Launcher:       client.ExecLauncher(daemonCmd.binary, daemonCmd.args, logger),
		Fallback:       fallback,
		ReadyTimeout:   cfg.Client.ReadyTimeout(),
		RequestTimeout: cfg.Client.RequestTimeout(),
		Logger:         logger,
	})
	defer cl.Close()

	ctx, stop := signalContext(logger)
	defer stop()

	if err := cl.Start(ctx); err != nil {
		logger.Warn("Daemon did not start", "error", err)
	}

	req := engine.Request{Hole: hole, Board: board, Opponents: c.Opponents, Iterations: c.Iterations}
	for i := 0; i < max(c.Repeat, 1); i++ {
		eq, err := cl.ComputeEquity(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s  %s %s  %s %s  %s %s  %s\n",
			handStyle.Render(formatCards(hole[:])),
			headerStyle.Render("win"), winStyle.Render(fmt.Sprintf("%.2f%%", eq.WinRate)),
			headerStyle.Render("tie"), tieStyle.Render(fmt.Sprintf("%.2f%%", eq.TieRate)),
			headerStyle.Render("lose"), loseStyle.Render(fmt.Sprintf("%.2f%%", eq.LoseRate)),
			footerStyle.Render(fmt.Sprintf("(%d iterations)", eq.IterationsRun)))
	}

	s := cl.Stats()
	logger.Info("Client finished", "calls", s.Calls, "daemon_calls", s.DaemonCalls, "fallbacks", s.Fallbacks)
	return nil
}

type daemonCommand struct {
	binary string
	args   []string
}

// resolveDaemonCommand works out how to start the daemon: the configured binary
// and arguments, or this executable's own daemon command.
func resolveDaemonCommand(cfg *config.Config, g *Globals) (daemonCommand, error) {
	cmd := daemonCommand{binary: cfg.Client.Binary, args: cfg.Client.Args}
	if cmd.binary == "" {
		self, err := os.Executable()
		if err != nil {
			return cmd, fmt.Errorf("locate executable: %w", err)
		}
		cmd.binary = self
	}
	if len(cmd.args) == 0 {
		cmd.args = []string{"daemon", "--tables", cfg.Engine.TablesDir, "--log-level", cfg.Log.Level}
		if g.Config != "" {
			cmd.args = append(cmd.args, "--config", g.Config)
		}
		if g.NoColor {
			cmd.args = append(cmd.args, "--no-color")
		}
	}
	return cmd, nil
}
