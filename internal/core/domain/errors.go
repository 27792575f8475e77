package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent indexing and query failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEncoding indicates file content is not valid UTF-8.
	ErrEncoding = errors.New("invalid utf-8 encoding")

	// ErrIndexNotReady indicates a query was made before any successful build.
	// Callers should build the index first.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrStaleIndex indicates a stored snapshot was built with term settings
	// that differ from the current configuration. The index must be rebuilt.
	ErrStaleIndex = errors.New("index built with different term settings")

	// ErrAmbiguousLink indicates a relative link matched several documents.
	// It is never returned to callers; it classifies AmbiguousLinkWarning.
	ErrAmbiguousLink = errors.New("ambiguous link")
)

// EncodingError reports unreadable file content.
type EncodingError struct {
	// Path is the document that failed to decode.
	Path string

	// Offset is the byte offset of the first invalid sequence.
	Offset int
}

// Error implements error.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %v at byte %d", e.Path, ErrEncoding, e.Offset)
}

// Unwrap allows errors.Is(err, ErrEncoding).
func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// AmbiguousLinkWarning records a link that resolved to more than one document.
// The lexicographically first candidate is chosen.
type AmbiguousLinkWarning struct {
	Source     string
	Link       string
	Candidates []string
	Chosen     string
}

// Error implements error so warnings can be logged and inspected uniformly.
func (w AmbiguousLinkWarning) Error() string {
	return fmt.Sprintf("%s: link %q matches %s, using %s",
		w.Source, w.Link, strings.Join(w.Candidates, ", "), w.Chosen)
}

// Unwrap allows errors.Is(w, ErrAmbiguousLink).
func (w AmbiguousLinkWarning) Unwrap() error {
	return ErrAmbiguousLink
}
