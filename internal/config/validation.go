package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration validation, usable with errors.Is().
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidChunkSize indicates max_chunk_size is out of range.
	ErrInvalidChunkSize = errors.New("invalid max_chunk_size")

	// ErrInvalidOverlap indicates chunk_overlap is negative or not smaller
	// than max_chunk_size.
	ErrInvalidOverlap = errors.New("invalid chunk_overlap")

	// ErrInvalidRetrievalK indicates retrieval_k is out of range.
	ErrInvalidRetrievalK = errors.New("invalid retrieval_k")

	// ErrInvalidThreshold indicates similarity_threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("invalid similarity_threshold")

	// ErrInvalidTemperature indicates generation_temperature is outside [0, 2].
	ErrInvalidTemperature = errors.New("invalid generation_temperature")

	// ErrInvalidHistoryTurns indicates history_max_turns is out of range.
	ErrInvalidHistoryTurns = errors.New("invalid history_max_turns")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidSource indicates a configured source descriptor is malformed.
	ErrInvalidSource = errors.New("invalid source")

	// ErrMissingIndexDir indicates index_dir is empty.
	ErrMissingIndexDir = errors.New("missing index_dir")
)

// Bounds for validated settings.
const (
	MinChunkSize = 50
	MaxChunkSize = 8192

	MaxRetrievalK = 50

	MaxHistoryTurns = 100
)

// Validate checks all configuration values, fail-fast with wrapped
// sentinel errors.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGoogleAI, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (must be one of: googleai, ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	if c.MaxChunkSize < MinChunkSize || c.MaxChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: %d (must be in [%d, %d])", ErrInvalidChunkSize, c.MaxChunkSize, MinChunkSize, MaxChunkSize)
	}

	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: %d (must be in [0, max_chunk_size))", ErrInvalidOverlap, c.ChunkOverlap)
	}

	if c.RetrievalK < 1 || c.RetrievalK > MaxRetrievalK {
		return fmt.Errorf("%w: %d (must be in [1, %d])", ErrInvalidRetrievalK, c.RetrievalK, MaxRetrievalK)
	}

	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: %v (must be in [0, 1])", ErrInvalidThreshold, c.SimilarityThreshold)
	}

	if c.GenerationTemperature < 0 || c.GenerationTemperature > 2 {
		return fmt.Errorf("%w: %v (must be in [0, 2])", ErrInvalidTemperature, c.GenerationTemperature)
	}

	if c.HistoryMaxTurns < 0 || c.HistoryMaxTurns > MaxHistoryTurns {
		return fmt.Errorf("%w: %d (must be in [0, %d])", ErrInvalidHistoryTurns, c.HistoryMaxTurns, MaxHistoryTurns)
	}

	if c.IndexDir == "" {
		return ErrMissingIndexDir
	}

	for i, src := range c.Sources {
		if src.Path == "" {
			return fmt.Errorf("%w: sources[%d] has empty path", ErrInvalidSource, i)
		}
		switch src.Type {
		case SourceCSV, SourceText, SourceHTML:
		default:
			return fmt.Errorf("%w: sources[%d] has unknown type %q (must be csv, text, or html)", ErrInvalidSource, i, src.Type)
		}
	}

	return nil
}
