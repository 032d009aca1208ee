package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocketHandler serves the line protocol over a websocket: READY is sent
// on connect and every text message is one request line. The engine still
// handles one request at a time across all connections.
func (d *Daemon) WebSocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.logger.Error("Failed to upgrade connection", "error", err)
			return
		}
		defer conn.Close()

		remote := r.RemoteAddr
		d.logger.Info("Client connected", "remote", remote)
		defer d.logger.Info("Client disconnected", "remote", remote)

		if err := d.send(conn, []byte(Ready)); err != nil {
			return
		}
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					d.logger.Warn("Connection read failed", "remote", remote, "error", err)
				}
				return
			}

			line := strings.TrimSpace(string(msg))
			if line == "" {
				continue
			}
			reply, stop := d.Handle(r.Context(), line)
			if stop {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
				return
			}
			if err := d.send(conn, reply); err != nil {
				d.logger.Warn("Connection write failed", "remote", remote, "error", err)
				return
			}
		}
	})
}

func (d *Daemon) send(conn *websocket.Conn, msg []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// ListenAndServe serves the websocket protocol on /ws and a health check on
// /health until ctx is cancelled.
func (d *Daemon) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", d.WebSocketHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "OK")
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("Starting WebSocket listener", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		d.logSession("listener stopped")
		return err
	}
}
