// Package answer implements the retrieval-augmented answering
// pipeline: condense the question against the conversation, embed it,
// retrieve similar passages, assemble the grounded prompt, generate,
// and attribute sources.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/sprypt/faqbot/internal/index"
	"github.com/sprypt/faqbot/internal/retry"
)

// GenerationServiceError reports a failure of the language model
// service after retries were exhausted.
type GenerationServiceError struct {
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("generation service: %v", e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

// Retriever finds the most similar indexed passages for a query vector.
type Retriever interface {
	Search(query []float32, k int) []index.Result
}

// Embedder embeds a query string into the index's vector space.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Source is one passage excerpt that grounded an answer.
type Source struct {
	PassageID  string  `json:"passage_id"`
	FragmentID string  `json:"fragment_id"`
	Excerpt    string  `json:"excerpt"`
	Score      float64 `json:"score"`
}

// Result is the pipeline's terminal output.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	// Grounded is false when no retrieved passage met the similarity
	// threshold and the model was instructed to decline.
	Grounded bool `json:"grounded"`
}

// Config controls the answering pipeline.
type Config struct {
	ModelName           string  // Qualified generation model, e.g. "googleai/gemini-2.5-flash"
	RetrievalK          int     // Passages to retrieve per question
	SimilarityThreshold float64 // Minimum cosine similarity for a passage to count
	Temperature         float64 // Generation temperature
	HistoryMaxTurns     int     // Transcript bound for condensation; callers also apply it via History.Append
	SupportURL          string  // Escalation link for unanswerable questions
	DemoURL             string  // Demo link offered alongside escalation
	ExcerptLength       int     // Max excerpt runes per source, 0 for default
}

// DefaultExcerptLength bounds source excerpts returned to callers.
const DefaultExcerptLength = 200

func (c Config) validate() error {
	if c.ModelName == "" {
		return errors.New("model name is required")
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("retrieval k must be positive, got %d", c.RetrievalK)
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [-1, 1], got %g", c.SimilarityThreshold)
	}
	return nil
}

// Answerer runs the retrieval-augmented answering pipeline.
type Answerer struct {
	g         *genkit.Genkit
	embedder  Embedder
	retriever Retriever
	cfg       Config
	executor  *retry.Executor
	logger    *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer)

// WithRetryConfig overrides retry and rate-limit settings for
// generation calls.
func WithRetryConfig(cfg retry.Config) Option {
	return func(a *Answerer) {
		a.executor = retry.NewExecutor(cfg)
	}
}

// New creates an Answerer. The retriever and embedder must share one
// embedding space: queries are embedded with the same model the index
// was built with.
func New(g *genkit.Genkit, embedder Embedder, retriever Retriever, cfg Config, logger *slog.Logger, opts ...Option) (*Answerer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("answer config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExcerptLength <= 0 {
		cfg.ExcerptLength = DefaultExcerptLength
	}
	a := &Answerer{
		g:         g,
		embedder:  embedder,
		retriever: retriever,
		cfg:       cfg,
		executor:  retry.NewExecutor(retry.DefaultConfig()),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Answer runs the full pipeline for one question. The returned sources
// are exactly the passages supplied to the model, never re-derived; an
// ungrounded answer carries an empty source list. The caller appends
// the resulting turn to its own history.
func (a *Answerer) Answer(ctx context.Context, question string, history History) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is empty")
	}

	// Bound the transcript even when the caller didn't, so an oversized
	// history cannot inflate the condensation prompt.
	condensed := a.condense(ctx, question, history.Clamp(a.cfg.HistoryMaxTurns))

	vector, err := a.embedder.EmbedQuery(ctx, condensed)
	if err != nil {
		return nil, err
	}

	retrieved := a.retriever.Search(vector, a.cfg.RetrievalK)
	var kept []index.Result
	for _, r := range retrieved {
		if r.Score >= a.cfg.SimilarityThreshold {
			kept = append(kept, r)
		}
	}
	a.logger.Debug("retrieved passages",
		"question", condensed, "retrieved", len(retrieved), "above_threshold", len(kept))

	passages := make([]string, len(kept))
	for i, r := range kept {
		passages[i] = r.Passage.Text
	}

	text, err := a.generate(ctx, systemPrompt(a.cfg.SupportURL, a.cfg.DemoURL), answerPrompt(passages, condensed))
	if err != nil {
		return nil, &GenerationServiceError{Err: err}
	}

	sources := make([]Source, len(kept))
	for i, r := range kept {
		sources[i] = Source{
			PassageID:  r.Passage.ID,
			FragmentID: r.Passage.FragmentID,
			Excerpt:    excerpt(r.Passage.Text, a.cfg.ExcerptLength),
			Score:      r.Score,
		}
	}

	return &Result{
		Answer:   strings.TrimSpace(text),
		Sources:  sources,
		Grounded: len(kept) > 0,
	}, nil
}

// condense rewrites a follow-up question as a standalone one using the
// conversation. With no history the question is already standalone.
// Condensation is best-effort: on failure the raw question is used so a
// flaky model call cannot take down retrieval.
func (a *Answerer) condense(ctx context.Context, question string, history History) string {
	if len(history) == 0 {
		return question
	}

	text, err := a.generate(ctx, "", condensePrompt(history, question))
	if err != nil {
		a.logger.Warn("question condensation failed, using raw question", "error", err)
		return question
	}
	condensed := strings.TrimSpace(text)
	if condensed == "" {
		return question
	}
	return condensed
}

func (a *Answerer) generate(ctx context.Context, system, prompt string) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(a.cfg.ModelName),
		ai.WithPrompt(prompt),
		ai.WithConfig(map[string]any{"temperature": a.cfg.Temperature}),
	}
	if system != "" {
		opts = append(opts, ai.WithSystem(system))
	}

	var text string
	err := a.executor.Do(ctx, func(ctx context.Context) error {
		resp, callErr := genkit.Generate(ctx, a.g, opts...)
		if callErr != nil {
			return callErr
		}
		text = resp.Text()
		return nil
	})
	return text, err
}

// excerpt truncates text to at most n runes, appending an ellipsis when
// shortened.
func excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}
