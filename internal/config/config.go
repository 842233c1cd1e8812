// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml or ~/.faqbot/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model, embedder model, generation temperature
//   - Ingestion: knowledge sources, chunk size and overlap
//   - Retrieval: top-k, similarity threshold, index directory
//   - Conversation: history length
//   - Serve: CORS origins, escalation links
//
// Validation runs in Load with fail-fast semantics; see validation.go
// for sentinel errors usable with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGoogleAI = "googleai"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
)

// DefaultEmbedderModel is the default embedding model.
// The vector index is keyed by this identifier; changing it triggers a
// full rebuild on the next startup.
const DefaultEmbedderModel = "text-embedding-004"

// Source type identifiers recognized by the document loader.
const (
	SourceCSV  = "csv"
	SourceText = "text"
	SourceHTML = "html"
)

// Source describes one configured knowledge source.
type Source struct {
	Path     string `mapstructure:"path" json:"path"`
	Type     string `mapstructure:"type" json:"type"` // "csv", "text", "html"
	Required bool   `mapstructure:"required" json:"required"`
}

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider              string  `mapstructure:"provider" json:"provider"`
	ModelName             string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel         string  `mapstructure:"embedder_model" json:"embedder_model"`
	GenerationTemperature float64 `mapstructure:"generation_temperature" json:"generation_temperature"`
	OllamaHost            string  `mapstructure:"ollama_host" json:"ollama_host"`

	// Ingestion configuration
	Sources      []Source `mapstructure:"sources" json:"sources"`
	MaxChunkSize int      `mapstructure:"max_chunk_size" json:"max_chunk_size"`
	ChunkOverlap int      `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval configuration
	IndexDir            string  `mapstructure:"index_dir" json:"index_dir"`
	RetrievalK          int     `mapstructure:"retrieval_k" json:"retrieval_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" json:"similarity_threshold"`

	// Conversation configuration
	HistoryMaxTurns int `mapstructure:"history_max_turns" json:"history_max_turns"`

	// Escalation links injected into the answer prompt
	SupportURL string `mapstructure:"support_url" json:"support_url"`
	DemoURL    string `mapstructure:"demo_url" json:"demo_url"`

	// Serve mode configuration
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".faqbot")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(configDir)

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{".", configDir})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
// Chunking and retrieval defaults follow the original FAQ corpus tuning:
// 1000-char chunks with 200 overlap and k=5. The similarity threshold is
// a conservative cosine floor; results below it are treated as noise and
// the pipeline reports insufficient context instead of citing them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGoogleAI)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("generation_temperature", 0.7)
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("max_chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)

	v.SetDefault("index_dir", "./faqbot_index")
	v.SetDefault("retrieval_k", 5)
	v.SetDefault("similarity_threshold", 0.35)

	v.SetDefault("history_max_turns", 10)

	v.SetDefault("support_url", "https://help.sprypt.com/")
	v.SetDefault("demo_url", "https://www.sprypt.com/demo")

	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
}

// bindEnvVariables binds environment overrides explicitly.
//
// NOTE: GEMINI_API_KEY and OPENAI_API_KEY are read directly by the Genkit
// plugins, not via Viper.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "FAQBOT_PROVIDER")
	mustBind("model_name", "FAQBOT_MODEL_NAME")
	mustBind("embedder_model", "FAQBOT_EMBEDDER_MODEL")
	mustBind("ollama_host", "FAQBOT_OLLAMA_HOST")
	mustBind("index_dir", "FAQBOT_INDEX_DIR")
	mustBind("cors_origins", "FAQBOT_CORS_ORIGINS")
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	return c.qualify(c.ModelName)
}

// FullEmbedderName returns the provider-qualified embedder model name.
// This identifier keys the vector index: an index built under one
// embedder name is rebuilt rather than reused under another.
func (c *Config) FullEmbedderName() string {
	return c.qualify(c.EmbedderModel)
}

func (c *Config) qualify(model string) string {
	if strings.Contains(model, "/") {
		return model
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + model
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + model
	default:
		return ProviderGoogleAI + "/" + model
	}
}
