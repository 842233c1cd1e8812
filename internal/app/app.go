// Package app wires configuration, the Genkit provider, the knowledge
// pipeline, the vector index and the answerer into one runnable
// application.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/sprypt/faqbot/internal/answer"
	"github.com/sprypt/faqbot/internal/config"
	"github.com/sprypt/faqbot/internal/index"
	"github.com/sprypt/faqbot/internal/knowledge"
	"github.com/sprypt/faqbot/internal/log"
)

// App holds the assembled application components.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Genkit   *genkit.Genkit
	Gateway  *knowledge.Gateway
	Index    *index.Index
	Answerer *answer.Answerer
}

// Health is a point-in-time readiness report.
type Health struct {
	IndexReady         bool   `json:"index_ready"`
	IndexSize          int    `json:"index_size"`
	ServicesConfigured bool   `json:"services_configured"`
	EmbedderModel      string `json:"embedder_model"`
	ModelName          string `json:"model_name"`
}

// Setup initializes Genkit with the configured provider and assembles
// the pipeline. The index starts empty; call LoadOrRebuild to populate
// it.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	g, embedder, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	gateway := knowledge.NewGateway(embedder, cfg.FullEmbedderName(), logger)
	ix := index.New()

	answerer, err := answer.New(g, gateway, ix, answer.Config{
		ModelName:           cfg.FullModelName(),
		RetrievalK:          cfg.RetrievalK,
		SimilarityThreshold: cfg.SimilarityThreshold,
		Temperature:         cfg.GenerationTemperature,
		HistoryMaxTurns:     cfg.HistoryMaxTurns,
		SupportURL:          cfg.SupportURL,
		DemoURL:             cfg.DemoURL,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Genkit:   g,
		Gateway:  gateway,
		Index:    ix,
		Answerer: answerer,
	}, nil
}

// provideGenkit initializes Genkit with the configured AI provider and
// returns it together with the provider's embedder.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, ai.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		plugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(plugin))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit registration; there is no discovery.
		plugin.DefineModel(g, ollama.ModelDefinition{Name: cfg.ModelName, Type: "chat"}, nil)
		plugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
		return g, ollama.Embedder(g, cfg.OllamaHost), nil

	case config.ProviderOpenAI:
		g := genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized genkit with openai provider", "model", cfg.ModelName)
		return g, genkit.LookupEmbedder(g, api.NewName(config.ProviderOpenAI, cfg.EmbedderModel)), nil

	default: // googleai
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with googleai provider")
		}
		logger.Info("initialized genkit with googleai provider", "model", cfg.ModelName)
		return g, googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel), nil
	}
}

// LoadOrRebuild makes the index ready. It loads the persisted index
// when one exists for the configured embedder model; a missing, corrupt
// or mismatched index is rebuilt from the knowledge sources, since the
// index is only a derived cache. force skips the load and always
// rebuilds.
func (a *App) LoadOrRebuild(ctx context.Context, force bool) error {
	if !force {
		snap, err := index.Load(a.Config.IndexDir, a.Gateway.Model())
		if err == nil {
			a.Index.Swap(snap)
			a.Logger.Info("loaded persisted index",
				"dir", a.Config.IndexDir, "passages", snap.Len(), "model", snap.Model)
			return nil
		}
		if !errors.Is(err, index.ErrNotFound) &&
			!errors.Is(err, index.ErrCorrupt) &&
			!errors.Is(err, index.ErrModelMismatch) {
			return fmt.Errorf("loading index: %w", err)
		}
		a.Logger.Warn("persisted index unusable, rebuilding", "reason", err)
	}

	return a.Rebuild(ctx)
}

// Rebuild runs the full ingestion pipeline — load sources, split,
// embed, index — then persists the new snapshot and swaps it in.
// Queries against the previous snapshot keep working until the swap.
func (a *App) Rebuild(ctx context.Context) error {
	loader := knowledge.NewLoader(a.Logger)
	fragments, err := loader.Load(loaderSources(a.Config.Sources))
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	a.Logger.Info("loaded knowledge sources", "fragments", len(fragments))

	var passages []knowledge.Passage
	for _, frag := range fragments {
		split, err := knowledge.Split(frag, a.Config.MaxChunkSize, a.Config.ChunkOverlap)
		if err != nil {
			return fmt.Errorf("splitting fragment %s: %w", frag.ID, err)
		}
		passages = append(passages, split...)
	}
	a.Logger.Info("split fragments into passages", "passages", len(passages))

	if err := a.Gateway.EmbedPassages(ctx, passages); err != nil {
		return fmt.Errorf("embedding passages: %w", err)
	}

	snap := index.NewSnapshot(a.Gateway.Model())
	for _, p := range passages {
		if err := snap.Add(p); err != nil {
			return fmt.Errorf("indexing passage %s: %w", p.ID, err)
		}
	}

	if err := index.Save(a.Config.IndexDir, snap); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}

	a.Index.Swap(snap)
	a.Logger.Info("rebuilt index",
		"passages", snap.Len(), "dimension", snap.Dimension, "model", snap.Model)
	return nil
}

// Healthy reports the current readiness of the application.
func (a *App) Healthy() Health {
	return Health{
		IndexReady:         a.Index.Ready(),
		IndexSize:          a.Index.Len(),
		ServicesConfigured: a.Genkit != nil && a.Gateway != nil && a.Answerer != nil,
		EmbedderModel:      a.Gateway.Model(),
		ModelName:          a.Config.FullModelName(),
	}
}

func loaderSources(sources []config.Source) []knowledge.Source {
	out := make([]knowledge.Source, len(sources))
	for i, s := range sources {
		out[i] = knowledge.Source{Path: s.Path, Type: s.Type, Required: s.Required}
	}
	return out
}
