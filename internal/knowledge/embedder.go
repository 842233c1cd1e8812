package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/firebase/genkit/go/ai"

	"github.com/sprypt/faqbot/internal/retry"
)

// DefaultEmbedBatchSize bounds how many passages are sent to the
// embedding service in one request.
const DefaultEmbedBatchSize = 32

// Gateway turns passage and query text into normalized embedding
// vectors. It batches passage requests, rate-limits and retries
// transient service failures, and never substitutes fallback vectors:
// a failed embedding surfaces as an EmbeddingServiceError.
type Gateway struct {
	embedder  ai.Embedder
	model     string
	batchSize int
	executor  *retry.Executor
	logger    *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithBatchSize overrides the passage batch size.
func WithBatchSize(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithRetryConfig overrides the retry and rate-limit settings.
func WithRetryConfig(cfg retry.Config) GatewayOption {
	return func(g *Gateway) {
		g.executor = retry.NewExecutor(cfg)
	}
}

// NewGateway creates a Gateway over the given embedder. The model name
// identifies which embedding space the vectors belong to; an index
// built with one model must never be queried with another.
func NewGateway(embedder ai.Embedder, model string, logger *slog.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		embedder:  embedder,
		model:     model,
		batchSize: DefaultEmbedBatchSize,
		executor:  retry.NewExecutor(retry.DefaultConfig()),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the embedding model identifier this gateway uses.
func (g *Gateway) Model() string { return g.model }

// EmbedPassages fills the Embedding field of every passage, preserving
// order. Passages are sent in batches; any service failure aborts the
// whole operation with an EmbeddingServiceError.
func (g *Gateway) EmbedPassages(ctx context.Context, passages []Passage) error {
	for start := 0; start < len(passages); start += g.batchSize {
		end := start + g.batchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]

		vectors, err := g.embed(ctx, batch)
		if err != nil {
			return err
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		g.logger.Debug("embedded batch", "model", g.model, "from", start, "count", len(batch))
	}
	return nil
}

// EmbedQuery embeds a single query string.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.embed(ctx, []Passage{{Text: text}})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *Gateway) embed(ctx context.Context, batch []Passage) ([][]float32, error) {
	docs := make([]*ai.Document, len(batch))
	for i, p := range batch {
		docs[i] = ai.DocumentFromText(p.Text, nil)
	}

	var resp *ai.EmbedResponse
	err := g.executor.Do(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = g.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
		return callErr
	})
	if err != nil {
		return nil, &EmbeddingServiceError{Err: err}
	}
	if len(resp.Embeddings) != len(batch) {
		return nil, &EmbeddingServiceError{
			Err: fmt.Errorf("requested %d embeddings, got %d", len(batch), len(resp.Embeddings)),
		}
	}

	vectors := make([][]float32, len(batch))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, &EmbeddingServiceError{Err: fmt.Errorf("empty embedding at position %d", i)}
		}
		vectors[i] = Normalize(emb.Embedding)
	}
	return vectors, nil
}

// Normalize scales v to unit length so cosine similarity reduces to a
// dot product. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
