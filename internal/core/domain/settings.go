package domain

import (
	"fmt"
	"time"
)

// Default setting values.
const (
	DefaultMinSharedTerms = 5
	DefaultQueryLimit     = 20
	DefaultCacheTTL       = 5 * time.Minute
	DefaultWatchInterval  = 2 * time.Second
)

// CrossRefSettings controls cross-reference inference.
type CrossRefSettings struct {
	// MinSharedTerms is the number of distinct terms two documents must
	// share before a term-based reference is emitted.
	MinSharedTerms int
}

// IndexSettings controls corpus loading and parsing.
type IndexSettings struct {
	// Workers bounds parallel parsing. Zero means one per CPU.
	Workers int

	// Extensions lists file extensions treated as Markdown.
	Extensions []string
}

// TermSettings controls term normalisation.
type TermSettings struct {
	// Stemming enables English stemming of tokens.
	Stemming bool

	// ExtraStopwords extends the built-in stop-word list.
	ExtraStopwords []string
}

// QuerySettings controls query behaviour.
type QuerySettings struct {
	// DefaultLimit caps results when the caller passes no limit.
	DefaultLimit int

	// CacheTTL is how long query results are cached per index build.
	// Zero disables caching.
	CacheTTL time.Duration
}

// WatchSettings controls watch mode.
type WatchSettings struct {
	// MinInterval is the minimum time between two rebuilds.
	MinInterval time.Duration
}

// Settings aggregates all configurable behaviour.
type Settings struct {
	CrossRef CrossRefSettings
	Index    IndexSettings
	Terms    TermSettings
	Query    QuerySettings
	Watch    WatchSettings
}

// DefaultSettings returns the settings used when no configuration exists.
func DefaultSettings() Settings {
	return Settings{
		CrossRef: CrossRefSettings{MinSharedTerms: DefaultMinSharedTerms},
		Index:    IndexSettings{Extensions: []string{".md", ".markdown"}},
		Terms:    TermSettings{Stemming: true},
		Query: QuerySettings{
			DefaultLimit: DefaultQueryLimit,
			CacheTTL:     DefaultCacheTTL,
		},
		Watch: WatchSettings{MinInterval: DefaultWatchInterval},
	}
}

// Validate checks settings for out-of-range values.
func (s Settings) Validate() error {
	if s.CrossRef.MinSharedTerms < 1 {
		return fmt.Errorf("%w: crossref.min_shared_terms must be at least 1", ErrInvalidInput)
	}
	if s.Index.Workers < 0 {
		return fmt.Errorf("%w: index.workers must not be negative", ErrInvalidInput)
	}
	if len(s.Index.Extensions) == 0 {
		return fmt.Errorf("%w: index.extensions must not be empty", ErrInvalidInput)
	}
	if s.Query.DefaultLimit < 1 {
		return fmt.Errorf("%w: query.default_limit must be at least 1", ErrInvalidInput)
	}
	if s.Query.CacheTTL < 0 {
		return fmt.Errorf("%w: query.cache_ttl must not be negative", ErrInvalidInput)
	}
	if s.Watch.MinInterval < 0 {
		return fmt.Errorf("%w: watch.min_interval must not be negative", ErrInvalidInput)
	}
	return nil
}
