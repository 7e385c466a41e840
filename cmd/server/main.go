// Command server runs the generation gateway: an HTTP service that
// admits, caches, generates and quality-gates educational artifacts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"providers", len(cfg.Providers),
		"fallback_enabled", cfg.Store.FallbackEnabled)

	ctx := context.Background()
	app, err := buildApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
