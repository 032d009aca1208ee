package client

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerequity/internal/engine"
)

// FreshEngine is the single-shot fallback: every call loads the tables from
// Dir, answers, and releases them.
type FreshEngine struct {
	Dir    string
	Seed   int64
	Logger *log.Logger
}

func (f FreshEngine) ComputeEquity(ctx context.Context, req engine.Request) (engine.Equity, error) {
	e, err := engine.Open(f.Dir, engine.Options{Seed: f.Seed, Logger: f.Logger})
	if err != nil {
		return engine.Equity{}, err
	}
	return e.ComputeEquity(ctx, req)
}
