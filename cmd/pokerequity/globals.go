package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/pokerequity/internal/config"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `short:"c" help:"Path to HCL configuration file" type:"path"`
	LogLevel string `short:"l" help:"Log level: debug, info, warn, error (overrides config)"`
	NoColor  bool   `help:"Disable colored output"`
}

// setup loads the configuration and builds the stderr logger. Stdout is
// left to the commands.
func (g *Globals) setup() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.LogLevel(),
		ReportTimestamp: true,
	})
	if g.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
		logger.SetColorProfile(termenv.Ascii)
	}
	return cfg, logger, nil
}

// signalContext is cancelled on the first interrupt. A second one gets the
// default behaviour.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
		logger.Debug("Received signal, shutting down")
	}()
	return ctx, stop
}
