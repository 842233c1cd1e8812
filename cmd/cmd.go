// Package cmd provides the faqbot CLI commands.
//
// Commands:
//   - serve: HTTP API server (POST /api/chat)
//   - ask: one-shot question from the command line
//   - reindex: force a full rebuild of the vector index
//
// Signal handling and graceful shutdown are implemented for all
// commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sprypt/faqbot/internal/log"
)

// Execute is the main entry point for the faqbot CLI.
func Execute() error {
	logger := log.New(log.Config{Level: logLevel(), JSON: false})

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "ask":
		return runAsk(logger)
	case "reindex":
		return runReindex(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("faqbot - retrieval-augmented FAQ assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  faqbot serve [addr]     Start the HTTP API server (default: 127.0.0.1:8080)")
	fmt.Println("  faqbot ask <question>   Answer one question and exit")
	fmt.Println("  faqbot reindex          Rebuild the vector index from the knowledge sources")
	fmt.Println("  faqbot version          Show version information")
	fmt.Println("  faqbot help             Show this help")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  ./config.yaml or ~/.faqbot/config.yaml; see the repository README.")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY       API key for the googleai provider")
	fmt.Println("  FAQBOT_PROVIDER      Override the AI provider (googleai, ollama, openai)")
	fmt.Println("  FAQBOT_MODEL_NAME    Override the generation model")
	fmt.Println("  FAQBOT_INDEX_DIR     Override the index directory")
	fmt.Println("  DEBUG                Enable debug logging")
}
