package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Source type constants for knowledge fragments.
const (
	// SourceTypeTabular represents one question/answer row of a tabular source.
	SourceTypeTabular = "tabular-row"

	// SourceTypeText represents a free-form text document or section.
	SourceTypeText = "free-text"
)

// Fragment is one unit of raw knowledge before splitting.
// Created once at ingestion and immutable thereafter.
type Fragment struct {
	ID         string            // Deterministic identifier, see FragmentID
	Text       string            // Fragment text content
	SourceName string            // Originating source (file path or identifier)
	SourceType string            // SourceTypeTabular or SourceTypeText
	Metadata   map[string]string // Provenance details (row index, headers, section)
}

// Passage is a bounded-size chunk of a Fragment, the unit of embedding
// and retrieval.
type Passage struct {
	ID         string    // Deterministic identifier, see PassageID
	Text       string    // Passage text, length in [1, max_chunk_size]
	FragmentID string    // Back-reference to the owning Fragment
	Position   int       // Strictly increasing per fragment
	Embedding  []float32 // nil until embedded
}

// FragmentID derives a deterministic fragment identifier from the source
// name and a per-source key (row index, section number). Re-ingesting
// unchanged sources yields identical IDs, which keeps indexing idempotent.
func FragmentID(sourceName, key string) string {
	hash := sha256.Sum256([]byte(sourceName + "\x00" + key))
	return "frag_" + hex.EncodeToString(hash[:16])
}

// PassageID derives a deterministic passage identifier from the fragment
// ID and the passage position, so re-adding a passage overwrites rather
// than duplicates.
func PassageID(fragmentID string, position int) string {
	return fmt.Sprintf("%s:%d", fragmentID, position)
}
