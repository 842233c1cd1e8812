package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes validation; tests mutate one
// field at a time.
func validConfig() *Config {
	return &Config{
		Provider:              ProviderGoogleAI,
		ModelName:             "gemini-2.5-flash",
		EmbedderModel:         DefaultEmbedderModel,
		GenerationTemperature: 0.7,
		MaxChunkSize:          1000,
		ChunkOverlap:          200,
		IndexDir:              "./faqbot_index",
		RetrievalK:            5,
		SimilarityThreshold:   0.35,
		HistoryMaxTurns:       10,
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	require.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidateSentinels(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, ErrInvalidProvider},
		{"chunk size too small", func(c *Config) { c.MaxChunkSize = 10 }, ErrInvalidChunkSize},
		{"chunk size too large", func(c *Config) { c.MaxChunkSize = 100000 }, ErrInvalidChunkSize},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, ErrInvalidOverlap},
		{"overlap equals chunk size", func(c *Config) { c.ChunkOverlap = 1000 }, ErrInvalidOverlap},
		{"zero k", func(c *Config) { c.RetrievalK = 0 }, ErrInvalidRetrievalK},
		{"huge k", func(c *Config) { c.RetrievalK = 500 }, ErrInvalidRetrievalK},
		{"negative threshold", func(c *Config) { c.SimilarityThreshold = -0.1 }, ErrInvalidThreshold},
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }, ErrInvalidThreshold},
		{"negative temperature", func(c *Config) { c.GenerationTemperature = -0.5 }, ErrInvalidTemperature},
		{"temperature too high", func(c *Config) { c.GenerationTemperature = 3 }, ErrInvalidTemperature},
		{"negative history", func(c *Config) { c.HistoryMaxTurns = -1 }, ErrInvalidHistoryTurns},
		{"empty index dir", func(c *Config) { c.IndexDir = "" }, ErrMissingIndexDir},
		{"source without path", func(c *Config) { c.Sources = []Source{{Type: SourceCSV}} }, ErrInvalidSource},
		{"source with unknown type", func(c *Config) {
			c.Sources = []Source{{Path: "faq.csv", Type: "parquet"}}
		}, ErrInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestValidateSourceTypes(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = []Source{
		{Path: "faq.csv", Type: SourceCSV, Required: true},
		{Path: "website.txt", Type: SourceText},
		{Path: "docs.html", Type: SourceHTML},
	}
	require.NoError(t, cfg.Validate())
}
