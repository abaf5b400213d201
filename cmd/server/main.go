package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aufawibowo/urban-palm-tree/internal/server"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	hub := server.NewHub(log)
	go hub.Run()

	mux := server.SetupRoutes(hub, cfg, log)
	httpServer := server.CreateServer(cfg.Addr(), mux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.StartServer(httpServer, log)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = hub.Shutdown(cfg.ShutdownTimeout)
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, log); err != nil {
		log.Warn("HTTP server did not shut down cleanly", "error", err)
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("hub shutdown: %w", err)
	}
	return nil
}
