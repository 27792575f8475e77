package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
	"github.com/custodia-labs/mdindex/internal/core/ports/driving"
	"github.com/custodia-labs/mdindex/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService runs the indexing pipeline and answers queries.
//
// A build flows one way: corpus source, parser, metadata extractor, index
// store (which resolves cross-references and publishes), snapshot store.
// Reads lazily load the persisted snapshot when nothing has been built in
// this process.
type IndexService struct {
	source    driven.CorpusSource
	parser    driven.Parser
	extractor driven.MetadataExtractor
	store     driven.IndexStore
	snapshots driven.SnapshotStore

	workers      int
	defaultLimit int
	cacheTTL     time.Duration
	queryCache   *cache.Cache

	loadMu sync.Mutex
	log    *logrus.Entry
}

// IndexDeps are the driven ports an IndexService orchestrates.
type IndexDeps struct {
	Source    driven.CorpusSource
	Parser    driven.Parser
	Extractor driven.MetadataExtractor
	Store     driven.IndexStore
	Snapshots driven.SnapshotStore
}

// NewIndexService creates an index service. Only the Index and Query
// sections of settings are used here.
func NewIndexService(deps IndexDeps, settings domain.Settings) *IndexService {
	workers := settings.Index.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	limit := settings.Query.DefaultLimit
	if limit <= 0 {
		limit = domain.DefaultQueryLimit
	}

	s := &IndexService{
		source:       deps.Source,
		parser:       deps.Parser,
		extractor:    deps.Extractor,
		store:        deps.Store,
		snapshots:    deps.Snapshots,
		workers:      workers,
		defaultLimit: limit,
		cacheTTL:     settings.Query.CacheTTL,
		log:          logger.WithComponent("index"),
	}
	if s.cacheTTL > 0 {
		s.queryCache = cache.New(s.cacheTTL, 2*s.cacheTTL)
	}
	return s
}

// Build rebuilds the index from root and persists a snapshot.
//
// Files that fail to read or decode are listed in the report and logged;
// the rest of the corpus is still indexed. The report is returned with a nil
// error even when files were skipped.
//
// The new generation is published in process before the snapshot is saved.
// If the save fails, Build returns the error but this process keeps serving
// the new generation, and the previously persisted snapshot is left intact
// for other processes.
func (s *IndexService) Build(ctx context.Context, root string) (*domain.BuildReport, error) {
	start := time.Now()
	logger.Section("Build " + root)

	raws, skipped, err := s.source.Load(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	s.log.WithField("files", len(raws)).Debug("corpus loaded")

	docs, parseSkipped, err := s.parseAll(ctx, raws)
	if err != nil {
		return nil, err
	}
	skipped = append(skipped, parseSkipped...)

	stats, err := s.store.Build(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	if s.queryCache != nil {
		s.queryCache.Flush()
	}

	if s.snapshots != nil {
		snapshot, err := s.store.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("exporting snapshot: %w", err)
		}
		if err := s.snapshots.Save(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}
	}

	report := &domain.BuildReport{
		IndexStats: stats,
		Root:       root,
		Skipped:    skipped,
		Duration:   time.Since(start),
	}

	s.log.WithFields(logrus.Fields{
		"build":     stats.BuildID,
		"documents": stats.Documents,
		"terms":     stats.Terms,
		"edges":     stats.Edges,
		"skipped":   len(skipped),
		"duration":  report.Duration.Round(time.Millisecond),
	}).Info("index built")

	return report, nil
}

// parseAll parses and summarises raws in parallel, bounded by s.workers.
// Documents keep the order of raws.
func (s *IndexService) parseAll(
	ctx context.Context, raws []domain.RawDocument,
) ([]*domain.Document, []domain.SkippedFile, error) {
	parsed := make([]*domain.Document, len(raws))
	failures := make([]error, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range raws {
		raw := raws[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.parser.Parse(raw.Path, raw.Content)
			if err != nil {
				failures[i] = err
				return nil
			}
			doc.ModifiedAt = raw.ModifiedAt
			doc.Metadata = s.extractor.Extract(doc)
			parsed[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	docs := make([]*domain.Document, 0, len(raws))
	var skipped []domain.SkippedFile
	for i, doc := range parsed {
		if failures[i] != nil {
			logger.Warn("Skipping %s: %v", raws[i].Path, failures[i])
			skipped = append(skipped, domain.SkippedFile{Path: raws[i].Path, Reason: failures[i].Error()})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}

// Query returns at most limit ranked occurrences of term.
// Results are cached per build for the configured TTL.
func (s *IndexService) Query(ctx context.Context, term string, limit int) ([]domain.Occurrence, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	stats, err := s.store.Stats()
	if err != nil {
		return nil, err
	}
	key := stats.BuildID + "\x00" + strconv.Itoa(limit) + "\x00" + term

	if s.queryCache != nil {
		if cached, ok := s.queryCache.Get(key); ok {
			return copyOccurrences(cached.([]domain.Occurrence)), nil
		}
	}

	occ, err := s.store.Query(term)
	if err != nil {
		return nil, err
	}
	if len(occ) > limit {
		occ = occ[:limit]
	}

	if s.queryCache != nil {
		s.queryCache.Set(key, copyOccurrences(occ), cache.DefaultExpiration)
	}
	return occ, nil
}

// Neighbors returns the outgoing references of path.
func (s *IndexService) Neighbors(ctx context.Context, path string) ([]domain.CrossReference, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.store.Neighbors(path)
}

// Backlinks returns the incoming references of path.
func (s *IndexService) Backlinks(ctx context.Context, path string) ([]domain.CrossReference, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.store.Backlinks(path)
}

// Document returns the indexed document at path.
func (s *IndexService) Document(ctx context.Context, path string) (*domain.Document, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.store.Document(path)
}

// Stats returns statistics of the current index.
func (s *IndexService) Stats(ctx context.Context) (domain.IndexStats, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.IndexStats{}, err
	}
	return s.store.Stats()
}

// ensureLoaded publishes the persisted snapshot if nothing is built yet.
func (s *IndexService) ensureLoaded(ctx context.Context) error {
	if s.store.Ready() {
		return nil
	}
	if s.snapshots == nil {
		return domain.ErrIndexNotReady
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.store.Ready() {
		return nil
	}

	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotReady) {
			return err
		}
		return fmt.Errorf("loading snapshot: %w", err)
	}
	if err := s.store.Load(snapshot); err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}

	s.log.WithField("build", snapshot.Stats.BuildID).Debug("snapshot loaded")
	return nil
}

func copyOccurrences(occ []domain.Occurrence) []domain.Occurrence {
	out := make([]domain.Occurrence, len(occ))
	copy(out, occ)
	return out
}
