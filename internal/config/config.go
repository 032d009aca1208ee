// Package config loads the HCL configuration shared by the daemon, the client
// and the calc command.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete configuration
type Config struct {
	Engine *EngineSettings `hcl:"engine,block"`
	Daemon *DaemonSettings `hcl:"daemon,block"`
	Client *ClientSettings `hcl:"client,block"`
	Log    *LogSettings    `hcl:"log,block"`
}

// EngineSettings locates the lookup tables and fixes the sampler seed
type EngineSettings struct {
	TablesDir string `hcl:"tables_dir,optional"`
	Seed      int64  `hcl:"seed,optional"`
}

// DaemonSettings bounds what a CALC request may ask for
type DaemonSettings struct {
	MinOpponents  int    `hcl:"min_opponents,optional"`
	MaxOpponents  int    `hcl:"max_opponents,optional"`
	MinIterations int    `hcl:"min_iterations,optional"`
	MaxIterations int    `hcl:"max_iterations,optional"`
	Listen        string `hcl:"listen,optional"`
}

// ClientSettings controls how the equity client supervises its daemon
type ClientSettings struct {
	Binary           string   `hcl:"binary,optional"`
	Args             []string `hcl:"args,optional"`
	ReadyTimeoutMs   int      `hcl:"ready_timeout_ms,optional"`
	RequestTimeoutMs int      `hcl:"request_timeout_ms,optional"`
	DisableFallback  bool     `hcl:"disable_fallback,optional"`
}

// LogSettings sets the diagnostic log level
type LogSettings struct {
	Level string `hcl:"level,optional"`
}

const (
	DefaultTablesDir        = "tables"
	DefaultMinOpponents     = 1
	DefaultMaxOpponents     = 8
	DefaultMinIterations    = 100
	DefaultMaxIterations    = 1_000_000
	DefaultReadyTimeoutMs   = 5000
	DefaultRequestTimeoutMs = 5000
	DefaultLogLevel         = "info"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Engine == nil {
		c.Engine = &EngineSettings{}
	}
	if c.Engine.TablesDir == "" {
		c.Engine.TablesDir = DefaultTablesDir
	}

	if c.Daemon == nil {
		c.Daemon = &DaemonSettings{}
	}
	if c.Daemon.MinOpponents == 0 {
		c.Daemon.MinOpponents = DefaultMinOpponents
	}
	if c.Daemon.MaxOpponents == 0 {
		c.Daemon.MaxOpponents = DefaultMaxOpponents
	}
	if c.Daemon.MinIterations == 0 {
		c.Daemon.MinIterations = DefaultMinIterations
	}
	if c.Daemon.MaxIterations == 0 {
		c.Daemon.MaxIterations = DefaultMaxIterations
	}

	if c.Client == nil {
		c.Client = &ClientSettings{}
	}
	if c.Client.ReadyTimeoutMs == 0 {
		c.Client.ReadyTimeoutMs = DefaultReadyTimeoutMs
	}
	if c.Client.RequestTimeoutMs == 0 {
		c.Client.RequestTimeoutMs = DefaultRequestTimeoutMs
	}

	if c.Log == nil {
		c.Log = &LogSettings{}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	d := c.Daemon
	if d.MinOpponents < 1 || d.MaxOpponents < d.MinOpponents {
		return fmt.Errorf("invalid opponent bounds [%d, %d]", d.MinOpponents, d.MaxOpponents)
	}
	if d.MinIterations < 1 || d.MaxIterations < d.MinIterations {
		return fmt.Errorf("invalid iteration bounds [%d, %d]", d.MinIterations, d.MaxIterations)
	}
	if c.Client.ReadyTimeoutMs < 0 || c.Client.RequestTimeoutMs < 0 {
		return fmt.Errorf("client timeouts must not be negative")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// ReadyTimeout is how long the client waits for the daemon's READY line
func (s *ClientSettings) ReadyTimeout() time.Duration {
	return time.Duration(s.ReadyTimeoutMs) * time.Millisecond
}

// RequestTimeout is how long the client waits for one reply
func (s *ClientSettings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMs) * time.Millisecond
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
