package knowledge

import "fmt"

// SourceUnavailableError reports that a configured required source could
// not be read. Optional sources are skipped with a warning instead.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %q unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// SourceMalformedError reports that a source was readable but its shape
// does not match the expected contract (e.g. a CSV without question and
// answer columns).
type SourceMalformedError struct {
	Source string
	Reason string
}

func (e *SourceMalformedError) Error() string {
	return fmt.Sprintf("source %q malformed: %s", e.Source, e.Reason)
}

// EmbeddingServiceError reports a failure of the external embedding
// service. It is always propagated; falling back to a null vector would
// silently corrupt similarity search.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }
