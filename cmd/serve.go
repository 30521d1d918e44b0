package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/reelx/internal/server"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the status server until interrupted. The window starts at index 0 of the stored feed.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	_, window := r.session()
	defer window.Close()

	srv := server.New(cfg, window, r.feed, shared.WithLogger(r.logger, "component", "server"))

	items, err := r.loadItems()
	switch {
	case errors.Is(err, shared.ErrFeedEmpty):
		r.logger.Warn("feed is empty; POST /window/refresh after adding items")
	case err != nil:
		return err
	default:
		if err := window.Update(ctx, items, 0); err != nil {
			return fmt.Errorf("initial preload pass failed: %w", err)
		}
	}

	r.logger.Info("serving window status", "addr", cfg.Addr(), "items", len(items), "lookahead", r.config.Preload.Lookahead)
	return srv.ListenAndServe(ctx)
}
