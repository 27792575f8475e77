package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	occurrences []domain.Occurrence
	refs        []domain.CrossReference
	docs        map[string]*domain.Document
	stats       domain.IndexStats
	err         error

	lastTerm  string
	lastLimit int
}

func (m *mockIndexService) Build(_ context.Context, _ string) (*domain.BuildReport, error) {
	return &domain.BuildReport{IndexStats: m.stats}, m.err
}

func (m *mockIndexService) Query(_ context.Context, term string, limit int) ([]domain.Occurrence, error) {
	m.lastTerm, m.lastLimit = term, limit
	return m.occurrences, m.err
}

func (m *mockIndexService) Neighbors(_ context.Context, _ string) ([]domain.CrossReference, error) {
	return m.refs, m.err
}

func (m *mockIndexService) Backlinks(_ context.Context, _ string) ([]domain.CrossReference, error) {
	return m.refs, m.err
}

func (m *mockIndexService) Document(_ context.Context, path string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.docs[path]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", path, domain.ErrNotFound)
	}
	return doc, nil
}

func (m *mockIndexService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}
