package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/sprypt/faqbot/internal/knowledge"
)

// Sentinel errors returned by Load. Both mean the caller should rebuild
// the index from the knowledge sources.
var (
	// ErrNotFound means no index exists in the directory.
	ErrNotFound = errors.New("index not found")

	// ErrCorrupt means index files exist but cannot be trusted.
	ErrCorrupt = errors.New("index corrupt")

	// ErrModelMismatch means the stored index was built with a different
	// embedding model than the one configured.
	ErrModelMismatch = errors.New("index built with different embedding model")
)

const (
	manifestFile = "manifest.json"
	vectorsFile  = "index.json"
	lockFile     = ".lock"

	manifestVersion = 1
)

type manifest struct {
	Version   int       `json:"version"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Count     int       `json:"count"`
	BuiltAt   time.Time `json:"built_at"`
}

type storedPassage struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	FragmentID string    `json:"fragment_id"`
	Position   int       `json:"position"`
	Embedding  []float32 `json:"embedding"`
}

// Save writes the snapshot to dir, creating it if needed. Writes go to
// temp files first and are renamed into place, manifest last, so a
// crash mid-save leaves either the previous index or a state Load
// reports as missing or corrupt. A file lock serializes concurrent
// savers.
func Save(dir string, snap *Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking index dir: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	stored := make([]storedPassage, len(snap.passages))
	for i, p := range snap.passages {
		stored[i] = storedPassage{
			ID:         p.ID,
			Text:       p.Text,
			FragmentID: p.FragmentID,
			Position:   p.Position,
			Embedding:  p.Embedding,
		}
	}
	if err := writeJSONAtomic(dir, vectorsFile, stored); err != nil {
		return fmt.Errorf("writing vectors: %w", err)
	}

	m := manifest{
		Version:   manifestVersion,
		Model:     snap.Model,
		Dimension: snap.Dimension,
		Count:     len(snap.passages),
		BuiltAt:   snap.BuiltAt,
	}
	if err := writeJSONAtomic(dir, manifestFile, m); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	return nil
}

// Load reads the index stored in dir and verifies it was built with the
// given embedding model. It returns ErrNotFound when no index exists,
// ErrModelMismatch when the model differs, and ErrCorrupt when the
// stored files are inconsistent.
func Load(dir, model string) (*Snapshot, error) {
	// Block until any in-flight Save releases its exclusive lock, so a
	// reader never sees a fresh vectors file against a stale manifest.
	// Opening the lock file fails when the directory itself is absent.
	lock := flock.New(filepath.Join(dir, lockFile))
	if err := lock.RLock(); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("locking index dir: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	var m manifest
	if err := readJSON(filepath.Join(dir, manifestFile), &m); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading manifest: %v", ErrCorrupt, err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("%w: unsupported manifest version %d", ErrCorrupt, m.Version)
	}
	if m.Model != model {
		return nil, fmt.Errorf("%w: index has %q, configured %q", ErrModelMismatch, m.Model, model)
	}

	var stored []storedPassage
	if err := readJSON(filepath.Join(dir, vectorsFile), &stored); err != nil {
		return nil, fmt.Errorf("%w: reading vectors: %v", ErrCorrupt, err)
	}
	if len(stored) != m.Count {
		return nil, fmt.Errorf("%w: manifest count %d, stored %d", ErrCorrupt, m.Count, len(stored))
	}

	snap := NewSnapshot(m.Model)
	snap.BuiltAt = m.BuiltAt
	for _, sp := range stored {
		p := knowledge.Passage{
			ID:         sp.ID,
			Text:       sp.Text,
			FragmentID: sp.FragmentID,
			Position:   sp.Position,
			Embedding:  sp.Embedding,
		}
		if err := snap.Add(p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	if m.Count > 0 && snap.Dimension != m.Dimension {
		return nil, fmt.Errorf("%w: manifest dimension %d, stored %d", ErrCorrupt, m.Dimension, snap.Dimension)
	}

	return snap, nil
}

func writeJSONAtomic(dir, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, filepath.Join(dir, name))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
