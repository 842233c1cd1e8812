package cmd

import (
	"fmt"
	"os"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

func runVersion() {
	fmt.Printf("faqbot %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		fmt.Println()
		fmt.Println("GEMINI_API_KEY: not set")
		fmt.Println("Hint: export GEMINI_API_KEY=your-api-key for the googleai provider")
	}
}
