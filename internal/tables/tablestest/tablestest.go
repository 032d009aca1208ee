// Package tablestest shares one set of generated lookup tables across the
// tests of a package.
package tablestest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/pokerequity/internal/tables"
)

var (
	once   sync.Once
	shared *tables.Tables
	genErr error
)

// Shared returns tables generated once per test binary.
func Shared(tb testing.TB) *tables.Tables {
	tb.Helper()
	once.Do(func() {
		shared, genErr = tables.Generate(context.Background())
	})
	require.NoError(tb, genErr)
	return shared
}

// WriteDir writes the shared tables into a temporary directory and returns it.
func WriteDir(tb testing.TB) string {
	tb.Helper()
	dir := tb.TempDir()
	require.NoError(tb, tables.Write(dir, Shared(tb)))
	return dir
}
