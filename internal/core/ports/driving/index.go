package driving

import (
	"context"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

// IndexService builds and queries the corpus index.
type IndexService interface {
	// Build rebuilds the index from every Markdown file under root.
	// Unreadable files are skipped and listed in the report.
	Build(ctx context.Context, root string) (*domain.BuildReport, error)

	// Query returns ranked occurrences of term, at most limit of them.
	// A limit of zero uses the configured default.
	Query(ctx context.Context, term string, limit int) ([]domain.Occurrence, error)

	// Neighbors returns the outgoing references of a document.
	Neighbors(ctx context.Context, path string) ([]domain.CrossReference, error)

	// Backlinks returns the incoming references of a document.
	Backlinks(ctx context.Context, path string) ([]domain.CrossReference, error)

	// Document returns a parsed document with its metadata.
	Document(ctx context.Context, path string) (*domain.Document, error)

	// Stats returns statistics of the current index.
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// WatchService keeps the index current while corpus files change.
type WatchService interface {
	// Watch builds root once, then rebuilds on every change until ctx is
	// cancelled. onBuild receives the outcome of each rebuild.
	Watch(ctx context.Context, root string, onBuild func(*domain.BuildReport, error)) error
}
