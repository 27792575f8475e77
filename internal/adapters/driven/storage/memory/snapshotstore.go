package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore holds the last saved snapshot in memory.
type SnapshotStore struct {
	mu    sync.RWMutex
	saved *domain.Snapshot
	saves int
}

// NewSnapshotStore creates an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Save replaces the stored snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = snapshot
	s.saves++
	return nil
}

// Load returns the stored snapshot, or domain.ErrIndexNotReady if none.
func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.saved == nil {
		return nil, domain.ErrIndexNotReady
	}
	return s.saved, nil
}

// Saves returns how many snapshots have been saved.
func (s *SnapshotStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Close is a no-op.
func (s *SnapshotStore) Close() error {
	return nil
}
