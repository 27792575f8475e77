package driven

import (
	"context"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

// IndexStore provides query access over the corpus.
//
// Build replaces the whole index atomically. Concurrent readers observe
// either the previous complete index or the new one, never a mix.
// All read methods return domain.ErrIndexNotReady before the first
// successful Build or Load.
type IndexStore interface {
	// Build indexes docs and publishes the result.
	// If ctx is cancelled the partial result is discarded.
	Build(ctx context.Context, docs []*domain.Document) (domain.IndexStats, error)

	// Load publishes a previously exported snapshot.
	Load(snapshot *domain.Snapshot) error

	// Snapshot exports the published index.
	Snapshot() (*domain.Snapshot, error)

	// Ready reports whether an index has been published.
	Ready() bool

	// Stats returns statistics of the published index.
	Stats() (domain.IndexStats, error)

	// Query returns occurrences of term ranked by document term frequency
	// (descending), then path, then block offset.
	Query(term string) ([]domain.Occurrence, error)

	// Neighbors returns outgoing references of path by descending strength.
	Neighbors(path string) ([]domain.CrossReference, error)

	// Backlinks returns incoming references of path by descending strength.
	Backlinks(path string) ([]domain.CrossReference, error)

	// Document returns the indexed document at path.
	Document(path string) (*domain.Document, error)
}

// SnapshotStore persists index snapshots between processes.
type SnapshotStore interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Load returns the stored snapshot or domain.ErrIndexNotReady if none exists.
	Load(ctx context.Context) (*domain.Snapshot, error)

	// Close releases resources.
	Close() error
}
