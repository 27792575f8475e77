package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

// --- Mock implementations ---

// mockIndexService records builds.
type mockIndexService struct {
	mu       sync.Mutex
	builds   int
	buildErr error
}

func (m *mockIndexService) Build(_ context.Context, root string) (*domain.BuildReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds++
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return &domain.BuildReport{Root: root}, nil
}

func (m *mockIndexService) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}

func (m *mockIndexService) Query(context.Context, string, int) ([]domain.Occurrence, error) {
	return nil, nil
}

func (m *mockIndexService) Neighbors(context.Context, string) ([]domain.CrossReference, error) {
	return nil, nil
}

func (m *mockIndexService) Backlinks(context.Context, string) ([]domain.CrossReference, error) {
	return nil, nil
}

func (m *mockIndexService) Document(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIndexService) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, nil
}

// mockCorpusSource hands out a controllable change channel.
type mockCorpusSource struct {
	changes  chan domain.Change
	watchErr error
}

func (m *mockCorpusSource) Load(context.Context, string) ([]domain.RawDocument, []domain.SkippedFile, error) {
	return nil, nil, nil
}

func (m *mockCorpusSource) Watch(context.Context, string) (<-chan domain.Change, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	return m.changes, nil
}

// --- Tests ---

func TestWatchService_InitialBuildAndRebuild(t *testing.T) {
	index := &mockIndexService{}
	source := &mockCorpusSource{changes: make(chan domain.Change)}
	service := NewWatchService(index, source, 0)

	ctx, cancel := context.WithCancel(context.Background())
	builds := make(chan *domain.BuildReport, 10)
	done := make(chan error, 1)

	go func() {
		done <- service.Watch(ctx, "/corpus", func(r *domain.BuildReport, err error) {
			assert.NoError(t, err)
			builds <- r
		})
	}()

	select {
	case r := <-builds:
		assert.Equal(t, "/corpus", r.Root)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial build")
	}

	source.changes <- domain.Change{Type: domain.ChangeUpdated, Path: "a.md"}

	select {
	case <-builds:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after change")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, index.Builds())
}

func TestWatchService_RateLimitsRebuilds(t *testing.T) {
	index := &mockIndexService{}
	source := &mockCorpusSource{changes: make(chan domain.Change, 10)}
	service := NewWatchService(index, source, 200*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	builds := make(chan struct{}, 10)
	done := make(chan error, 1)

	go func() {
		done <- service.Watch(ctx, "/corpus", func(*domain.BuildReport, error) {
			builds <- struct{}{}
		})
	}()
	<-builds

	start := time.Now()
	for i := 0; i < 5; i++ {
		source.changes <- domain.Change{Type: domain.ChangeUpdated, Path: "a.md"}
	}
	<-builds
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	// Queued changes are coalesced into the rebuild.
	time.Sleep(400 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, index.Builds())
}

func TestWatchService_FailedBuildKeepsWatching(t *testing.T) {
	boom := errors.New("boom")
	index := &mockIndexService{buildErr: boom}
	source := &mockCorpusSource{changes: make(chan domain.Change)}
	service := NewWatchService(index, source, 0)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 10)
	done := make(chan error, 1)

	go func() {
		done <- service.Watch(ctx, "/corpus", func(_ *domain.BuildReport, err error) {
			errs <- err
		})
	}()

	assert.ErrorIs(t, <-errs, boom)
	source.changes <- domain.Change{Type: domain.ChangeCreated, Path: "b.md"}
	assert.ErrorIs(t, <-errs, boom)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchService_ClosedChannelStops(t *testing.T) {
	source := &mockCorpusSource{changes: make(chan domain.Change)}
	close(source.changes)
	service := NewWatchService(&mockIndexService{}, source, 0)

	err := service.Watch(context.Background(), "/corpus", nil)

	assert.NoError(t, err)
}

func TestWatchService_WatchError(t *testing.T) {
	boom := errors.New("no watcher")
	service := NewWatchService(&mockIndexService{}, &mockCorpusSource{watchErr: boom}, 0)

	err := service.Watch(context.Background(), "/corpus", nil)

	assert.ErrorIs(t, err, boom)
}
