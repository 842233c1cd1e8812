package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sprypt/faqbot/internal/app"
	"github.com/sprypt/faqbot/internal/config"
	"github.com/sprypt/faqbot/internal/log"
)

// runAsk answers a single question from the command line and prints the
// answer with its sources.
func runAsk(logger log.Logger) error {
	question := strings.TrimSpace(strings.Join(os.Args[2:], " "))
	if question == "" {
		return errors.New("usage: faqbot ask <question>")
	}

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

	if err := a.LoadOrRebuild(ctx, false); err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}

	res, err := a.Answerer.Answer(ctx, question, nil)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	fmt.Println(res.Answer)
	if len(res.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for i, s := range res.Sources {
			fmt.Printf("  %d. [%.2f] %s\n", i+1, s.Score, s.Excerpt)
		}
	}

	return nil
}
