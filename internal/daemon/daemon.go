// Package daemon serves equity requests over a line protocol so callers can
// query repeatedly without reloading the lookup tables.
package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerequity/internal/engine"
)

// Config holds the collaborators of a Daemon.
type Config struct {
	Engine *engine.Engine
	Limits Limits
	Clock  quartz.Clock
	Logger *log.Logger
}

// Stats summarizes a daemon session.
type Stats struct {
	Requests   int
	Errors     int
	Iterations int64
}

// Daemon answers CALC requests against one resident engine.
type Daemon struct {
	engine *engine.Engine
	limits Limits
	clock  quartz.Clock
	logger *log.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a daemon. Zero limits fall back to DefaultLimits.
func New(config Config) *Daemon {
	if config.Limits == (Limits{}) {
		config.Limits = DefaultLimits()
	}
	if config.Clock == nil {
		config.Clock = quartz.NewReal()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Daemon{
		engine: config.Engine,
		limits: config.Limits,
		clock:  config.Clock,
		logger: config.Logger.WithPrefix("daemon"),
	}
}

// MaxLineLength bounds a request line. Longer lines are answered with a
// malformed_request error and skipped.
const MaxLineLength = 64 * 1024

// Serve writes the READY marker to w, then answers one request line from r
// at a time until EXIT, end of input or ctx is cancelled. Only protocol lines
// are written to w.
func (d *Daemon) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	if err := writeLine(out, []byte(Ready)); err != nil {
		return fmt.Errorf("write ready marker: %w", err)
	}
	d.logger.Info("Daemon ready", "seed", d.engine.Seed())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the reader may stay blocked on r after we return; it stops at its
	// next send once ctx is done
	lines := make(chan requestLine)
	readErr := make(chan error, 1)
	go func() {
		readErr <- readLines(ctx, r, lines)
		close(lines)
	}()

	for {
		if err := ctx.Err(); err != nil {
			d.logSession("context cancelled")
			return err
		}

		var in requestLine
		select {
		case <-ctx.Done():
			d.logSession("context cancelled")
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil && ctx.Err() == nil {
					return fmt.Errorf("read request: %w", err)
				}
				d.logSession("end of input")
				return nil
			}
			in = l
		}
		if err := ctx.Err(); err != nil {
			d.logSession("context cancelled")
			return err
		}

		var reply []byte
		if in.tooLong {
			err := fmt.Errorf("%w: request line exceeds %d bytes", ErrMalformedRequest, MaxLineLength)
			d.record(0, err)
			d.logger.Warn("Rejected oversized request line")
			reply = encodeFailure(err)
		} else {
			line := strings.TrimSpace(in.text)
			if line == "" {
				continue
			}
			var stop bool
			reply, stop = d.Handle(ctx, line)
			if stop {
				d.logSession("exit command")
				return nil
			}
		}
		if err := writeLine(out, reply); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
}

type requestLine struct {
	text    string
	tooLong bool
}

// readLines sends each line of r to lines. A line longer than MaxLineLength
// is drained and delivered with tooLong set.
func readLines(ctx context.Context, r io.Reader, lines chan<- requestLine) error {
	br := bufio.NewReaderSize(r, MaxLineLength)
	for {
		chunk, err := br.ReadSlice('\n')
		in := requestLine{text: string(chunk)}
		for errors.Is(err, bufio.ErrBufferFull) {
			in = requestLine{tooLong: true}
			_, err = br.ReadSlice('\n')
		}
		if in.text != "" || in.tooLong {
			select {
			case lines <- in:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Handle answers a single request line. stop is true for EXIT and QUIT, in
// which case there is no reply.
func (d *Daemon) Handle(ctx context.Context, line string) (reply []byte, stop bool) {
	command, args, _ := strings.Cut(line, " ")
	switch strings.ToUpper(command) {
	case CommandExit, CommandQuit:
		d.logger.Debug("Received exit command", "command", command)
		return nil, true
	case CommandCalc:
		return d.calc(ctx, args), false
	default:
		err := fmt.Errorf("%w: unknown command %q", ErrMalformedRequest, command)
		d.record(0, err)
		return encodeFailure(err), false
	}
}

func (d *Daemon) calc(ctx context.Context, args string) []byte {
	start := d.clock.Now()

	req, err := ParseCalc(args, d.limits)
	if err != nil {
		d.record(0, err)
		d.logger.Debug("Rejected request", "args", args, "error", err)
		return encodeFailure(err)
	}

	eq, err := d.engine.ComputeEquity(ctx, req)
	if err != nil {
		d.record(0, err)
		d.logger.Warn("Request failed", "args", args, "error", err)
		return encodeFailure(err)
	}
	if !eq.OK {
		d.logger.Error("Rank table misses during request", "args", args, "index_faults", eq.IndexFaults)
	}

	d.record(eq.IterationsRun, nil)
	d.logger.Debug("Request served", "args", args, "win_rate", eq.WinRate, "took", d.clock.Since(start))
	return encodeResult(eq)
}

func (d *Daemon) record(iterations int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Requests++
	if err != nil {
		d.stats.Errors++
	}
	d.stats.Iterations += int64(iterations)
}

// Stats returns a snapshot of the session counters.
func (d *Daemon) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Daemon) logSession(reason string) {
	s := d.Stats()
	d.logger.Info("Session finished", "reason", reason, "requests", s.Requests, "errors", s.Errors, "iterations", s.Iterations)
}

func writeLine(w *bufio.Writer, line []byte) error {
	if _, err := w.Write(line); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
