package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sprypt/faqbot/internal/app"
	"github.com/sprypt/faqbot/internal/config"
	"github.com/sprypt/faqbot/internal/log"
)

// runReindex rebuilds the vector index from the configured knowledge
// sources, ignoring any persisted index.
func runReindex(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	if err := a.LoadOrRebuild(ctx, true); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	fmt.Printf("Indexed %d passages into %s (model %s)\n",
		a.Index.Len(), cfg.IndexDir, a.Gateway.Model())
	return nil
}
