package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/songbook/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := server.NewRateLimiter(cfg.RequestsPerSec, cfg.Burst)
	go limiter.Run(ctx, 10*time.Minute)

	api := server.NewAPI(songs, limiter, r.logger)

	r.writePlain("→ Serving songbook on http://%s (Ctrl+C to stop)\n", cfg.Addr())
	if err := server.Serve(ctx, cfg.Addr(), api, r.logger); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}
