package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sprypt/faqbot/api"
	"github.com/sprypt/faqbot/internal/app"
	"github.com/sprypt/faqbot/internal/config"
	"github.com/sprypt/faqbot/internal/log"
)

// runServe initializes the application, makes the index ready and
// serves the HTTP API until interrupted.
func runServe(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr, err := parseServeAddr()
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	if err := a.LoadOrRebuild(ctx, false); err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}

	logger.Info("HTTP server ready",
		"addr", addr,
		"chat", "POST /api/chat",
		"health", "/health, /ready",
		"index_passages", a.Index.Len())

	return api.NewServer(a).Run(ctx, addr)
}
