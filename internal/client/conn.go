package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// stopGrace is how long a daemon gets to exit after an interrupt before it
// is killed.
const stopGrace = time.Second

// Conn is one connection to a daemon speaking the line protocol.
type Conn struct {
	ID string

	in    io.WriteCloser
	lines chan string
	stop  func() error
	once  sync.Once
	err   error
}

// NewConn wraps the two halves of a daemon session. Lines read from out are
// delivered in order until out is exhausted. stop releases whatever backs
// the connection and is called at most once.
func NewConn(id string, in io.WriteCloser, out io.Reader, stop func() error) *Conn {
	c := &Conn{
		ID:    id,
		in:    in,
		lines: make(chan string, 16),
		stop:  stop,
	}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(out)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
	}()
	return c
}

// Send writes one request line.
func (c *Conn) Send(line string) error {
	_, err := io.WriteString(c.in, line+"\n")
	return err
}

// Close tears the connection down.
func (c *Conn) Close() error {
	c.once.Do(func() {
		_ = c.in.Close()
		if c.stop != nil {
			c.err = c.stop()
		}
	})
	return c.err
}

// Launcher starts a daemon and returns a connection to it. The connection
// has not yet seen the READY marker.
type Launcher func(ctx context.Context) (*Conn, error)

// ExecLauncher launches binary with args as a child process and talks to it
// over its stdin and stdout. The child's stderr is passed through.
func ExecLauncher(binary string, args []string, logger *log.Logger) Launcher {
	if logger == nil {
		logger = log.Default()
	}
	return func(ctx context.Context) (*Conn, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := uuid.NewString()[:8]
		plog := logger.With("daemon_id", id)

		cmd := exec.Command(binary, args...)
		cmd.Stderr = os.Stderr
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("create stdin pipe: %w", err)
		}
		// An io.Pipe keeps Wait from closing stdout under the reader.
		pr, pw := io.Pipe()
		cmd.Stdout = pw

		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start %s: %w", binary, err)
		}
		plog.Debug("Daemon process started", "binary", binary, "pid", cmd.Process.Pid)

		done := make(chan struct{})
		go func() {
			err := cmd.Wait()
			_ = pw.CloseWithError(io.EOF)
			if err != nil {
				plog.Debug("Daemon process exited", "error", err)
			} else {
				plog.Debug("Daemon process exited")
			}
			close(done)
		}()

		stop := func() error {
			select {
			case <-done:
				return nil
			case <-time.After(stopGrace):
			}
			// stdin is closed by now; an orderly daemon has already left
			if err := cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
				plog.Debug("Interrupt failed", "error", err)
			}
			select {
			case <-done:
				return nil
			case <-time.After(stopGrace):
			}
			plog.Warn("Daemon did not exit, killing it")
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				return fmt.Errorf("kill daemon %s: %w", id, err)
			}
			<-done
			return nil
		}
		return NewConn(id, stdin, pr, stop), nil
	}
}
