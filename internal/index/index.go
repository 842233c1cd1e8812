// Package index provides the persistent vector index: an immutable
// snapshot built offline from embedded passages, served through an
// atomically swappable read structure. The index is a derived cache of
// the knowledge sources; rebuilding from sources is always the recovery
// path, never data loss.
package index

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sprypt/faqbot/internal/knowledge"
)

// Result is one retrieval hit: a passage and its cosine similarity to
// the query, in [-1, 1].
type Result struct {
	Passage knowledge.Passage
	Score   float64
}

// Snapshot is an immutable set of embedded passages built offline.
// Build it with Add calls, then publish it through Index.Swap. A
// published snapshot must not be mutated.
type Snapshot struct {
	Model     string    // Embedding model the vectors belong to
	Dimension int       // Vector dimension, fixed by the first Add
	BuiltAt   time.Time // When the build completed

	passages []knowledge.Passage
	byID     map[string]int // passage ID -> position in passages
}

// NewSnapshot creates an empty snapshot for the given embedding model.
func NewSnapshot(model string) *Snapshot {
	return &Snapshot{
		Model:   model,
		BuiltAt: time.Now().UTC(),
		byID:    make(map[string]int),
	}
}

// Add inserts a passage. Adding an existing ID overwrites the previous
// entry in place, keeping insertion idempotent. The passage must carry
// an embedding whose dimension matches the snapshot.
func (s *Snapshot) Add(p knowledge.Passage) error {
	if len(p.Embedding) == 0 {
		return fmt.Errorf("passage %s has no embedding", p.ID)
	}
	if s.Dimension == 0 {
		s.Dimension = len(p.Embedding)
	} else if len(p.Embedding) != s.Dimension {
		return fmt.Errorf("passage %s dimension %d does not match index dimension %d",
			p.ID, len(p.Embedding), s.Dimension)
	}

	if pos, ok := s.byID[p.ID]; ok {
		s.passages[pos] = p
		return nil
	}
	s.byID[p.ID] = len(s.passages)
	s.passages = append(s.passages, p)
	return nil
}

// Len returns the number of passages in the snapshot.
func (s *Snapshot) Len() int { return len(s.passages) }

// Index serves similarity search over the current snapshot. Reads run
// concurrently; Swap atomically replaces the whole snapshot, so readers
// see either the old or the new index, never a mix.
type Index struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// New creates an Index with no snapshot. It reports not ready until the
// first Swap.
func New() *Index {
	return &Index{}
}

// Swap publishes snap as the current snapshot and returns the previous
// one, which may be nil.
func (ix *Index) Swap(snap *Snapshot) *Snapshot {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	prev := ix.snap
	ix.snap = snap
	return prev
}

// Ready reports whether a snapshot has been published.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snap != nil
}

// Len returns the passage count of the current snapshot, 0 when none.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snap == nil {
		return 0
	}
	return ix.snap.Len()
}

// Model returns the embedding model of the current snapshot, empty when
// none.
func (ix *Index) Model() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snap == nil {
		return ""
	}
	return ix.snap.Model
}

// Search returns the top k passages by cosine similarity to the query
// vector, highest first. Equal scores keep insertion order. An empty or
// unpublished index returns no results. Vectors are unit length, so
// similarity is the plain dot product.
func (ix *Index) Search(query []float32, k int) []Result {
	ix.mu.RLock()
	snap := ix.snap
	ix.mu.RUnlock()

	if snap == nil || k <= 0 || len(snap.passages) == 0 {
		return nil
	}

	results := make([]Result, 0, len(snap.passages))
	for _, p := range snap.passages {
		if len(p.Embedding) != len(query) {
			continue
		}
		results = append(results, Result{Passage: p, Score: dot(query, p.Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
