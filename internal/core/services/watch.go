package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
	"github.com/custodia-labs/mdindex/internal/core/ports/driving"
	"github.com/custodia-labs/mdindex/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// WatchService rebuilds the index whenever the corpus changes.
// Bursts of changes are coalesced and rebuilds are spaced at least
// minInterval apart.
type WatchService struct {
	index       driving.IndexService
	source      driven.CorpusSource
	minInterval time.Duration
	log         *logrus.Entry
}

// NewWatchService creates a watch service.
func NewWatchService(index driving.IndexService, source driven.CorpusSource, minInterval time.Duration) *WatchService {
	return &WatchService{
		index:       index,
		source:      source,
		minInterval: minInterval,
		log:         logger.WithComponent("watch"),
	}
}

// Watch builds root once, then rebuilds after changes until ctx is done.
// Failed rebuilds are reported through onBuild and do not stop watching.
// It returns nil when ctx is cancelled.
func (s *WatchService) Watch(
	ctx context.Context, root string, onBuild func(*domain.BuildReport, error),
) error {
	changes, err := s.source.Watch(ctx, root)
	if err != nil {
		return err
	}

	limit := rate.Inf
	if s.minInterval > 0 {
		limit = rate.Every(s.minInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	limiter.Allow()
	s.rebuild(ctx, root, onBuild)

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			s.log.WithFields(logrus.Fields{"path": change.Path, "type": change.Type}).Debug("change detected")

			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			s.drain(changes)
			s.rebuild(ctx, root, onBuild)
		}
	}
}

func (s *WatchService) rebuild(ctx context.Context, root string, onBuild func(*domain.BuildReport, error)) {
	report, err := s.index.Build(ctx, root)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.log.Warnf("rebuild failed: %v", err)
	}
	if onBuild != nil {
		onBuild(report, err)
	}
}

// drain discards changes that queued up while waiting; the next rebuild
// covers them.
func (s *WatchService) drain(changes <-chan domain.Change) {
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			s.log.WithField("path", change.Path).Debug("change coalesced")
		default:
			return
		}
	}
}
