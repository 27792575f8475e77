package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
	"github.com/custodia-labs/mdindex/internal/logger"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// published is one complete, immutable index generation.
type published struct {
	stats    domain.IndexStats
	docs     map[string]*domain.Document
	postings map[string][]domain.Occurrence
	outgoing map[string][]domain.CrossReference
	incoming map[string][]domain.CrossReference
}

// IndexStore is an in-memory implementation of driven.IndexStore.
//
// Each build assembles a new generation off to the side and publishes it
// with a single atomic pointer swap. Readers load the pointer once per call
// and never lock; writers are serialised by buildMu.
type IndexStore struct {
	current  atomic.Pointer[published]
	buildMu  sync.Mutex
	terms    driven.TermNormaliser
	resolver driven.Resolver
	now      func() time.Time
}

// NewIndexStore creates an empty, unbuilt index store.
func NewIndexStore(normaliser driven.TermNormaliser, resolver driven.Resolver) *IndexStore {
	return &IndexStore{
		terms:    normaliser,
		resolver: resolver,
		now:      time.Now,
	}
}

// Build indexes docs and publishes the new generation.
// On any error, including cancellation, the published index is untouched.
func (s *IndexStore) Build(ctx context.Context, docs []*domain.Document) (domain.IndexStats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	next := &published{
		docs:     make(map[string]*domain.Document, len(docs)),
		postings: make(map[string][]domain.Occurrence),
		outgoing: make(map[string][]domain.CrossReference),
		incoming: make(map[string][]domain.CrossReference),
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return domain.IndexStats{}, err
		}
		if doc == nil {
			return domain.IndexStats{}, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
		}
		if _, dup := next.docs[doc.Path]; dup {
			return domain.IndexStats{}, fmt.Errorf("%w: duplicate document path %q", domain.ErrInvalidInput, doc.Path)
		}
		next.docs[doc.Path] = doc
		s.indexDocument(next, doc)
	}

	for term := range next.postings {
		sortOccurrences(next.postings[term])
	}

	resolved, err := s.resolver.Resolve(ctx, docs)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("resolving cross-references: %w", err)
	}
	next.addReferences(resolved.References)

	next.stats = domain.IndexStats{
		BuildID:   uuid.NewString(),
		Documents: len(next.docs),
		Terms:     len(next.postings),
		Edges:     len(resolved.References),
		Warnings:  resolved.Warnings,
		BuiltAt:   s.now().UTC(),

		TermFingerprint: s.terms.Fingerprint(),
	}

	// A cancelled rebuild is abandoned without affecting readers.
	if err := ctx.Err(); err != nil {
		return domain.IndexStats{}, err
	}

	s.current.Store(next)
	logger.Debug("Published index %s: %d documents, %d terms, %d edges",
		next.stats.BuildID, next.stats.Documents, next.stats.Terms, next.stats.Edges)

	return next.stats, nil
}

// indexDocument adds the postings of one document.
func (s *IndexStore) indexDocument(p *published, doc *domain.Document) {
	docFreq := make(map[string]int)
	var local []domain.Posting

	for offset, b := range doc.Blocks {
		if b.Kind == domain.BlockFrontMatter {
			continue
		}
		blockFreq := make(map[string]int)
		var order []string
		for _, t := range s.terms.Terms(b.Text) {
			if blockFreq[t] == 0 {
				order = append(order, t)
			}
			blockFreq[t]++
			docFreq[t]++
		}
		for _, t := range order {
			local = append(local, domain.Posting{
				Term: t,
				Occurrence: domain.Occurrence{
					Path:        doc.Path,
					BlockOffset: offset,
					Frequency:   blockFreq[t],
				},
			})
		}
	}

	for _, posting := range local {
		posting.DocFrequency = docFreq[posting.Term]
		p.postings[posting.Term] = append(p.postings[posting.Term], posting.Occurrence)
	}
}

func (p *published) addReferences(refs []domain.CrossReference) {
	for _, ref := range refs {
		if ref.Source == ref.Target {
			continue
		}
		if _, ok := p.docs[ref.Source]; !ok {
			continue
		}
		if _, ok := p.docs[ref.Target]; !ok {
			continue
		}
		p.outgoing[ref.Source] = append(p.outgoing[ref.Source], ref)
		p.incoming[ref.Target] = append(p.incoming[ref.Target], ref)
	}
	for path := range p.outgoing {
		sortReferences(p.outgoing[path], func(r domain.CrossReference) string { return r.Target })
	}
	for path := range p.incoming {
		sortReferences(p.incoming[path], func(r domain.CrossReference) string { return r.Source })
	}
}

// Load publishes a previously exported snapshot without re-parsing.
//
// Load never replaces a published generation: if a build or another load
// has already published, the snapshot is discarded and Load returns nil.
// A snapshot whose term settings differ from the store's normaliser is
// rejected with domain.ErrStaleIndex, since its postings would not match
// the terms queries are normalised to.
func (s *IndexStore) Load(snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if s.current.Load() != nil {
		logger.Debug("Discarding snapshot %s: index already published", snapshot.Stats.BuildID)
		return nil
	}

	if want := s.terms.Fingerprint(); snapshot.Stats.TermFingerprint != want {
		return fmt.Errorf("%w: snapshot has %q, configured %q; rebuild the index",
			domain.ErrStaleIndex, snapshot.Stats.TermFingerprint, want)
	}

	next := &published{
		stats:    snapshot.Stats,
		docs:     make(map[string]*domain.Document, len(snapshot.Documents)),
		postings: make(map[string][]domain.Occurrence),
		outgoing: make(map[string][]domain.CrossReference),
		incoming: make(map[string][]domain.CrossReference),
	}

	for i := range snapshot.Documents {
		doc := snapshot.Documents[i]
		next.docs[doc.Path] = &doc
	}

	for _, posting := range snapshot.Postings {
		doc, ok := next.docs[posting.Path]
		if !ok {
			return fmt.Errorf("%w: posting for unknown document %q", domain.ErrInvalidInput, posting.Path)
		}
		if _, ok := doc.BlockAt(posting.BlockOffset); !ok {
			return fmt.Errorf("%w: posting for missing block %d of %q",
				domain.ErrInvalidInput, posting.BlockOffset, posting.Path)
		}
		next.postings[posting.Term] = append(next.postings[posting.Term], posting.Occurrence)
	}
	for term := range next.postings {
		sortOccurrences(next.postings[term])
	}

	next.addReferences(snapshot.References)
	next.stats.Documents = len(next.docs)
	next.stats.Terms = len(next.postings)

	s.current.Store(next)
	return nil
}

// Snapshot exports the published index.
func (s *IndexStore) Snapshot() (*domain.Snapshot, error) {
	p := s.current.Load()
	if p == nil {
		return nil, domain.ErrIndexNotReady
	}

	snap := &domain.Snapshot{Stats: p.stats}

	paths := make([]string, 0, len(p.docs))
	for path := range p.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		snap.Documents = append(snap.Documents, *p.docs[path])
		snap.References = append(snap.References, p.outgoing[path]...)
	}

	termList := make([]string, 0, len(p.postings))
	for term := range p.postings {
		termList = append(termList, term)
	}
	sort.Strings(termList)
	for _, term := range termList {
		for _, occ := range p.postings[term] {
			snap.Postings = append(snap.Postings, domain.Posting{Term: term, Occurrence: occ})
		}
	}

	return snap, nil
}

// Ready reports whether an index has been published.
func (s *IndexStore) Ready() bool {
	return s.current.Load() != nil
}

// Stats returns statistics of the published index.
func (s *IndexStore) Stats() (domain.IndexStats, error) {
	p := s.current.Load()
	if p == nil {
		return domain.IndexStats{}, domain.ErrIndexNotReady
	}
	return p.stats, nil
}

// Query returns the occurrences of a single term.
// Unknown terms and stop-words yield an empty result, not an error.
func (s *IndexStore) Query(term string) ([]domain.Occurrence, error) {
	p := s.current.Load()
	if p == nil {
		return nil, domain.ErrIndexNotReady
	}

	normalised := s.terms.Terms(term)
	switch len(normalised) {
	case 0:
		return []domain.Occurrence{}, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: query expects a single term, got %d", domain.ErrInvalidInput, len(normalised))
	}

	occ := p.postings[normalised[0]]
	out := make([]domain.Occurrence, len(occ))
	copy(out, occ)
	return out, nil
}

// Neighbors returns outgoing references of path by descending strength.
func (s *IndexStore) Neighbors(path string) ([]domain.CrossReference, error) {
	return s.references(path, func(p *published) []domain.CrossReference { return p.outgoing[path] })
}

// Backlinks returns incoming references of path by descending strength.
func (s *IndexStore) Backlinks(path string) ([]domain.CrossReference, error) {
	return s.references(path, func(p *published) []domain.CrossReference { return p.incoming[path] })
}

func (s *IndexStore) references(
	path string, pick func(*published) []domain.CrossReference,
) ([]domain.CrossReference, error) {
	p := s.current.Load()
	if p == nil {
		return nil, domain.ErrIndexNotReady
	}
	if _, ok := p.docs[path]; !ok {
		return nil, fmt.Errorf("document %q: %w", path, domain.ErrNotFound)
	}

	refs := pick(p)
	out := make([]domain.CrossReference, len(refs))
	copy(out, refs)
	return out, nil
}

// Document returns the indexed document at path.
// The returned document is shared and must not be modified.
func (s *IndexStore) Document(path string) (*domain.Document, error) {
	p := s.current.Load()
	if p == nil {
		return nil, domain.ErrIndexNotReady
	}
	doc, ok := p.docs[path]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", path, domain.ErrNotFound)
	}
	return doc, nil
}

// sortOccurrences ranks by document term frequency, then path, then block.
func sortOccurrences(occ []domain.Occurrence) {
	sort.Slice(occ, func(i, j int) bool {
		if occ[i].DocFrequency != occ[j].DocFrequency {
			return occ[i].DocFrequency > occ[j].DocFrequency
		}
		if occ[i].Path != occ[j].Path {
			return occ[i].Path < occ[j].Path
		}
		return occ[i].BlockOffset < occ[j].BlockOffset
	})
}

// sortReferences orders by descending strength, ties broken by key.
func sortReferences(refs []domain.CrossReference, key func(domain.CrossReference) string) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Strength != refs[j].Strength {
			return refs[i].Strength > refs[j].Strength
		}
		return key(refs[i]) < key(refs[j])
	})
}
