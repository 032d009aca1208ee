// Package client queries a resident equity daemon and falls back to an
// in-process calculation when the daemon cannot answer.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerequity/internal/daemon"
	"github.com/lox/pokerequity/internal/deck"
	"github.com/lox/pokerequity/internal/engine"
	"github.com/lox/pokerequity/internal/sampler"
)

var (
	// ErrInvalidHand is returned when the request itself was rejected.
	ErrInvalidHand = errors.New("invalid hand")
	// ErrUnavailable is returned when neither the daemon nor the fallback
	// produced a usable result.
	ErrUnavailable = errors.New("equity unavailable")

	errTimeout      = errors.New("daemon timed out")
	errDaemonExited = errors.New("daemon exited")
)

const (
	DefaultReadyTimeout   = 5 * time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// Calculator computes the equity of one hero hand.
type Calculator interface {
	ComputeEquity(ctx context.Context, req engine.Request) (engine.Equity, error)
}

// CalculatorFunc adapts a function to a Calculator.
type CalculatorFunc func(ctx context.Context, req engine.Request) (engine.Equity, error)

func (f CalculatorFunc) ComputeEquity(ctx context.Context, req engine.Request) (engine.Equity, error) {
	return f(ctx, req)
}

// Config holds the collaborators of a Client.
type Config struct {
	// Launcher starts the daemon. Nil means the client never uses one.
	Launcher Launcher
	// Fallback answers when the daemon cannot. Nil disables fallback.
	Fallback       Calculator
	ReadyTimeout   time.Duration
	RequestTimeout time.Duration
	Clock          quartz.Clock
	Logger         *log.Logger
}

// Stats counts how calls were answered.
type Stats struct {
	Calls       int
	DaemonCalls int
	Fallbacks   int
}

// Client sends equity requests to a daemon it supervises. Once the daemon
// fails the client stays in fallback mode for the rest of its life.
type Client struct {
	config Config
	logger *log.Logger

	mu       sync.Mutex
	conn     *Conn
	degraded bool
	stats    Stats

	// waiting is set while a response is awaited, for tests driving a mock clock.
	waiting atomic.Bool
}

// New creates a client. The daemon is started lazily on the first call
// unless Start is called first.
func New(config Config) *Client {
	if config.ReadyTimeout <= 0 {
		config.ReadyTimeout = DefaultReadyTimeout
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.Clock == nil {
		config.Clock = quartz.NewReal()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Client{
		config:   config,
		logger:   config.Logger.WithPrefix("client"),
		degraded: config.Launcher == nil,
	}
}

// Start launches the daemon and waits for its READY marker. On failure the
// client switches to fallback mode and the error is returned.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.degraded {
		return fmt.Errorf("%w: daemon disabled", ErrUnavailable)
	}
	if c.conn != nil {
		return nil
	}
	return c.start(ctx)
}

func (c *Client) start(ctx context.Context) error {
	conn, err := c.config.Launcher(ctx)
	if err != nil {
		c.degrade(fmt.Errorf("launch daemon: %w", err))
		return err
	}
	c.conn = conn

	timer := c.config.Clock.NewTimer(c.config.ReadyTimeout, "client", "ready")
	defer timer.Stop()
	c.waiting.Store(true)
	defer c.waiting.Store(false)

	for {
		select {
		case line, ok := <-conn.lines:
			if !ok {
				err := fmt.Errorf("%w before READY", errDaemonExited)
				c.degrade(err)
				return err
			}
			if line == daemon.Ready {
				c.logger.Info("Daemon ready", "daemon_id", conn.ID)
				return nil
			}
			c.logger.Debug("Ignoring output before READY", "line", line)
		case <-timer.C:
			err := fmt.Errorf("%w waiting for READY after %s", errTimeout, c.config.ReadyTimeout)
			c.degrade(err)
			return err
		case <-ctx.Done():
			c.dropConn()
			return ctx.Err()
		}
	}
}

// ComputeEquity answers one request, from the daemon when it is healthy
// and otherwise from the fallback. A result is only returned when it is
// valid and free of index faults.
func (c *Client) ComputeEquity(ctx context.Context, req engine.Request) (engine.Equity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Calls++

	if !c.degraded {
		eq, err := c.viaDaemon(ctx, req)
		if err == nil {
			c.stats.DaemonCalls++
			return eq, nil
		}
		if errors.Is(err, ErrInvalidHand) || ctx.Err() != nil {
			return engine.Equity{}, err
		}
		c.degrade(err)
	}
	return c.viaFallback(ctx, req)
}

func (c *Client) viaDaemon(ctx context.Context, req engine.Request) (engine.Equity, error) {
	if c.conn == nil {
		if err := c.start(ctx); err != nil {
			return engine.Equity{}, err
		}
	}

	if err := c.conn.Send(daemon.FormatCalc(req)); err != nil {
		return engine.Equity{}, fmt.Errorf("send request: %w", err)
	}

	line, err := c.awaitReply(ctx)
	if err != nil {
		return engine.Equity{}, err
	}

	var reply daemon.Reply
	if err := json.Unmarshal([]byte(line), &reply); err != nil {
		return engine.Equity{}, fmt.Errorf("unparsable reply %q: %w", line, err)
	}
	if reply.IsError() {
		switch reply.Code {
		case daemon.CodeInvalidCard, daemon.CodeDuplicateCard, daemon.CodeMalformedRequest, daemon.CodeInsufficientPool:
			return engine.Equity{}, fmt.Errorf("%w: %s", ErrInvalidHand, reply.Error)
		default:
			return engine.Equity{}, fmt.Errorf("daemon error %s: %s", reply.Code, reply.Error)
		}
	}

	eq := engine.Equity{
		WinRate:       reply.WinRate,
		TieRate:       reply.TieRate,
		LoseRate:      reply.LoseRate,
		IterationsRun: reply.SimulationsCompleted,
		IndexFaults:   reply.IndexFaults,
		OK:            reply.IndexFaults == 0,
	}
	if !eq.OK {
		return engine.Equity{}, fmt.Errorf("daemon reported %d index faults", eq.IndexFaults)
	}
	if err := validate(&eq); err != nil {
		return engine.Equity{}, err
	}
	return eq, nil
}

func (c *Client) awaitReply(ctx context.Context) (string, error) {
	timer := c.config.Clock.NewTimer(c.config.RequestTimeout, "client", "request")
	defer timer.Stop()
	c.waiting.Store(true)
	defer c.waiting.Store(false)

	select {
	case line, ok := <-c.conn.lines:
		if !ok {
			return "", errDaemonExited
		}
		return line, nil
	case <-timer.C:
		return "", fmt.Errorf("%w after %s", errTimeout, c.config.RequestTimeout)
	case <-ctx.Done():
		// the reply may still arrive; the connection is out of step now
		c.dropConn()
		return "", ctx.Err()
	}
}

func (c *Client) viaFallback(ctx context.Context, req engine.Request) (engine.Equity, error) {
	if c.config.Fallback == nil {
		return engine.Equity{}, fmt.Errorf("%w: daemon failed and fallback is disabled", ErrUnavailable)
	}
	c.stats.Fallbacks++

	eq, err := c.config.Fallback.ComputeEquity(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, deck.ErrInvalidCard), errors.Is(err, deck.ErrDuplicateCard),
		errors.Is(err, sampler.ErrInsufficientPool):
		return engine.Equity{}, fmt.Errorf("%w: %v", ErrInvalidHand, err)
	case ctx.Err() != nil:
		return engine.Equity{}, err
	default:
		return engine.Equity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !eq.OK {
		return engine.Equity{}, fmt.Errorf("%w: %d index faults", ErrUnavailable, eq.IndexFaults)
	}
	if err := validate(&eq); err != nil {
		return engine.Equity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return eq, nil
}

// degrade abandons the daemon for good.
func (c *Client) degrade(reason error) {
	if c.degraded {
		return
	}
	c.degraded = true
	c.logger.Warn("Daemon unavailable, switching to fallback", "error", reason)
	c.dropConn()
}

func (c *Client) dropConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Warn("Failed to stop daemon", "daemon_id", c.conn.ID, "error", err)
	}
	c.conn = nil
}

// Close asks the daemon to exit and releases it.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.Send(daemon.CommandExit)
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Stats returns a snapshot of the call counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Degraded reports whether the client has given up on its daemon.
func (c *Client) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// validate checks that the rates are percentages summing to about 100.
// Rounding noise just below zero is clamped.
func validate(eq *engine.Equity) error {
	rates := []*float64{&eq.WinRate, &eq.TieRate, &eq.LoseRate}
	sum := 0.0
	for _, r := range rates {
		if *r < 0 && *r >= -0.01 {
			*r = 0
		}
		if *r < 0 || *r > 100 {
			return fmt.Errorf("rate %.4f outside [0, 100]", *r)
		}
		sum += *r
	}
	if sum < 99 || sum > 101 {
		return fmt.Errorf("rates sum to %.4f, want 100", sum)
	}
	return nil
}
