package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/logger"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	report      *domain.BuildReport
	occurrences []domain.Occurrence
	outgoing    []domain.CrossReference
	incoming    []domain.CrossReference
	docs        map[string]*domain.Document
	err         error

	builtRoot string
	lastTerm  string
	lastLimit int
}

func (m *mockIndexService) Build(_ context.Context, root string) (*domain.BuildReport, error) {
	m.builtRoot = root
	if m.err != nil {
		return nil, m.err
	}
	report := *m.report
	report.Root = root
	return &report, nil
}

func (m *mockIndexService) Query(_ context.Context, term string, limit int) ([]domain.Occurrence, error) {
	m.lastTerm, m.lastLimit = term, limit
	return m.occurrences, m.err
}

func (m *mockIndexService) Neighbors(_ context.Context, path string) ([]domain.CrossReference, error) {
	if _, err := m.Document(context.Background(), path); err != nil {
		return nil, err
	}
	return m.outgoing, nil
}

func (m *mockIndexService) Backlinks(_ context.Context, path string) ([]domain.CrossReference, error) {
	if _, err := m.Document(context.Background(), path); err != nil {
		return nil, err
	}
	return m.incoming, nil
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
	if m.err != nil {
		return domain.IndexStats{}, m.err
	}
	return m.report.IndexStats, nil
}

// mockWatchService reports a fixed sequence of builds then returns.
type mockWatchService struct {
	reports []*domain.BuildReport
	errs    []error
	root    string
}

func (m *mockWatchService) Watch(
	_ context.Context, root string, onBuild func(*domain.BuildReport, error),
) error {
	m.root = root
	for i, r := range m.reports {
		var err error
		if i < len(m.errs) {
			err = m.errs[i]
		}
		onBuild(r, err)
	}
	return nil
}

// mockSettingsService keeps values in a map.
type mockSettingsService struct {
	values map[string]string
	err    error
}

func (m *mockSettingsService) Get() (domain.Settings, error) {
	return domain.DefaultSettings(), m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Values() (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *mockSettingsService) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) ConfigPath() string {
	return "/tmp/mdindex/config.toml"
}

func testCorpus() map[string]*domain.Document {
	return map[string]*domain.Document{
		"python/decorators.md": {
			Path:  "python/decorators.md",
			Title: "Decorators",
			Blocks: []domain.Block{
				{Kind: domain.BlockHeading, Level: 1, Text: "Decorators", StartLine: 1, EndLine: 1},
				{Kind: domain.BlockParagraph, Text: "uses decorators and decorators", StartLine: 3, EndLine: 3},
			},
			FrontMatter: map[string]any{"tags": "python"},
			Checksum:    "abc123",
			Metadata: domain.Metadata{
				Title:         "Decorators",
				Outline:       []domain.HeadingRef{{Level: 1, Text: "Decorators"}, {Level: 2, Text: "Usage"}},
				CodeLanguages: []string{"python"},
				WordCount:     5,
				CodeBlocks:    1,
				Links:         1,
			},
		},
		"python/closures.md": {
			Path:   "python/closures.md",
			Title:  "Closures",
			Blocks: []domain.Block{{Kind: domain.BlockParagraph, Text: "decorators build on closures", StartLine: 1}},
		},
	}
}

// setupTestServices installs mocks and resets command state.
// It returns a cleanup function restoring the previous services.
func setupTestServices() (*mockIndexService, *mockWatchService, *mockSettingsService, func()) {
	prevIndex, prevWatch, prevSettings, prevWiring := indexService, watchService, settingsService, wiring

	index := &mockIndexService{
		report: &domain.BuildReport{IndexStats: domain.IndexStats{
			BuildID: "build-1", Documents: 2, Terms: 7, Edges: 2,
		}},
		docs: testCorpus(),
	}
	watch := &mockWatchService{}
	settings := &mockSettingsService{values: map[string]string{
		"crossref.min_shared_terms": "5",
		"query.default_limit":       "20",
		"terms.extra_stopwords":     "",
	}}

	indexService, watchService, settingsService = index, watch, settings
	wiring = nil
	queryLimit, queryJSON, referencesJSON, showJSON = 0, false, false, false

	return index, watch, settings, func() {
		indexService, watchService, settingsService, wiring = prevIndex, prevWatch, prevSettings, prevWiring
		rootCmd.SetArgs(nil)
		opts = Options{}
		logger.SetVerbose(false)
	}
}
