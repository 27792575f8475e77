package domain

import "time"

// Occurrence records where a term appears.
type Occurrence struct {
	// Path identifies the document.
	Path string

	// BlockOffset is the index of the block within the document.
	BlockOffset int

	// Frequency is the term frequency within the block.
	Frequency int

	// DocFrequency is the term frequency within the whole document.
	// Query results are ranked by this value.
	DocFrequency int
}

// ReferenceKind describes how a CrossReference was inferred.
type ReferenceKind string

// Reference kinds.
const (
	// ReferenceTerms is inferred from shared vocabulary.
	ReferenceTerms ReferenceKind = "terms"

	// ReferenceLink comes from an explicit Markdown link.
	ReferenceLink ReferenceKind = "link"
)

// LinkStrength is the strength assigned to explicit link references.
const LinkStrength = 1.0

// CrossReference is a directed relation between two documents.
type CrossReference struct {
	Source   string
	Target   string
	Strength float64
	Kind     ReferenceKind
}

// SkippedFile records a document that could not be indexed.
type SkippedFile struct {
	Path   string
	Reason string
}

// IndexStats summarises a published index.
type IndexStats struct {
	BuildID   string
	Documents int
	Terms     int
	Edges     int
	Warnings  []AmbiguousLinkWarning
	BuiltAt   time.Time

	// TermFingerprint identifies the normaliser configuration the postings
	// were produced with. Snapshots are only loadable under the same settings.
	TermFingerprint string
}

// BuildReport is the outcome of a full rebuild.
type BuildReport struct {
	IndexStats

	// Root is the corpus directory that was indexed.
	Root string

	// Skipped lists files excluded from the index.
	Skipped []SkippedFile

	// Duration is the wall time of the rebuild.
	Duration time.Duration
}

// HasSkipped returns true if any file was excluded.
func (r *BuildReport) HasSkipped() bool {
	return len(r.Skipped) > 0
}

// Posting is a single term/occurrence pair, the flat form used by snapshots.
type Posting struct {
	Term string
	Occurrence
}

// Snapshot is the serialisable form of a published index.
type Snapshot struct {
	Stats      IndexStats
	Documents  []Document
	Postings   []Posting
	References []CrossReference
}
