// Package server exposes HTTP handlers, including WebSocket upgrades and
// health checks.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades GET requests to a relay connection and hands the
// connection to the hub, which assigns an alias, greets the client and
// replays history.
func WebSocketHandler(hub *Hub, cfg *Config, log *slog.Logger) http.HandlerFunc {
	policy := newOriginPolicy(cfg.AllowedOrigins, log)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     policy.check,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		if cfg.MaxMessageSize > 0 {
			conn.SetReadLimit(cfg.MaxMessageSize)
		}

		if _, err := hub.Connect(conn, r.RemoteAddr); err != nil {
			if !errors.Is(err, ErrHubStopped) {
				log.Error("Failed to attach client", "remote", r.RemoteAddr, "error", err)
			}
			_ = conn.Close()
		}
	}
}

// RootHandler sends WebSocket upgrade requests to ws and everything else to
// files, so clients can connect on the same URL that serves the page.
func RootHandler(ws, files http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			ws.ServeHTTP(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}
}

// HealthHandler provides a simple health check endpoint that returns server
// status along with the hub's client and history counts.
func HealthHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		stats := hub.Stats()
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintf(w, "Chat relay is running! clients=%d history=%d", stats.Clients, stats.History)
	}
}
