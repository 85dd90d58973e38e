/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rotation engine server: configuration,
  logging, storage, HTTP router, drift scheduler, graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (flags win over the config file)
  2. Load YAML config with defaults
  3. Set up structured logging
  4. Open SQLite store
  5. Start the drift scheduler and the HTTP server

COMMAND-LINE FLAGS:
  -config  YAML config file path (default: rotation.yaml, missing is fine)
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config; ":memory:" works)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain active requests
  (30s timeout), stop the scheduler, close the database.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration shape and defaults
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/rotation-engine/api"
	"github.com/warp/rotation-engine/config"
	"github.com/warp/rotation-engine/logging"
	"github.com/warp/rotation-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "rotation.yaml", "YAML config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.SQLitePath = *dbPath
	}

	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	// Initialize store
	store, err := sqlite.New(cfg.Database.SQLitePath)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Handler and router
	handler := api.NewHandler(store)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	// Drift scheduler
	scheduler, err := api.NewDriftScheduler(store, cfg.Schedule.DriftCheckCron)
	if err != nil {
		slog.Error("invalid drift check cron spec", "spec", cfg.Schedule.DriftCheckCron, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", server.Addr, "db", cfg.Database.SQLitePath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
