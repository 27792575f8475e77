package driven

import (
	"context"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

// CorpusSource enumerates the Markdown files of a corpus.
type CorpusSource interface {
	// Load reads every corpus file under root eagerly.
	// Files that cannot be read are reported as skipped, not as errors.
	Load(ctx context.Context, root string) ([]domain.RawDocument, []domain.SkippedFile, error)

	// Watch emits changes to corpus files until ctx is cancelled.
	Watch(ctx context.Context, root string) (<-chan domain.Change, error)
}

// Parser converts raw Markdown into a Document.
type Parser interface {
	// Parse returns the parsed document or a *domain.EncodingError
	// when the content is not valid UTF-8.
	Parse(path string, raw []byte) (*domain.Document, error)
}

// MetadataExtractor computes the summary record of a Document.
// Implementations must be pure and deterministic.
type MetadataExtractor interface {
	Extract(doc *domain.Document) domain.Metadata
}

// TermNormaliser turns text into index terms.
// The same input must always yield the same terms.
type TermNormaliser interface {
	// Terms returns the normalised terms of text in order, stop-words removed.
	Terms(text string) []string

	// Normalise returns the term for a single word.
	// ok is false when the word is a stop-word or too short to index.
	Normalise(word string) (term string, ok bool)

	// Fingerprint identifies the configuration that shapes the terms.
	// Two normalisers with equal fingerprints produce equal terms.
	Fingerprint() string
}

// ResolveResult is the outcome of cross-reference resolution.
type ResolveResult struct {
	References []domain.CrossReference
	Warnings   []domain.AmbiguousLinkWarning
}

// Resolver infers relationships between documents.
// It requires the complete document set.
type Resolver interface {
	Resolve(ctx context.Context, docs []*domain.Document) (ResolveResult, error)
}
