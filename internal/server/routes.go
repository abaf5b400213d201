// Package server wires HTTP handlers into a ServeMux for the chat relay via
// routing helpers.
package server

import (
	"log/slog"
	"net/http"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// "/" upgrades WebSocket requests and serves the static client otherwise,
// "/ws" is a dedicated upgrade endpoint, and "/healthz" reports status.
func SetupRoutes(hub *Hub, cfg *Config, log *slog.Logger) *http.ServeMux {
	ws := WebSocketHandler(hub, cfg, log)
	files := NewStaticHandler(cfg.StaticDir, log)

	mux := http.NewServeMux()
	mux.Handle("/", RootHandler(ws, files))
	mux.Handle("/ws", ws)
	mux.HandleFunc("/healthz", HealthHandler(hub))
	return mux
}
