package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
	"github.com/custodia-labs/mdindex/internal/crossref"
	"github.com/custodia-labs/mdindex/internal/parsers/markdown"
	"github.com/custodia-labs/mdindex/internal/terms"
)

func newTestIndexStore(opts ...crossref.Option) *IndexStore {
	n := terms.New()
	return NewIndexStore(n, crossref.New(n, opts...))
}

func parseDocs(t *testing.T, files ...string) []*domain.Document {
	t.Helper()
	require.Equal(t, 0, len(files)%2, "files are path/content pairs")

	p := markdown.New()
	docs := make([]*domain.Document, 0, len(files)/2)
	for i := 0; i < len(files); i += 2 {
		doc, err := p.Parse(files[i], []byte(files[i+1]))
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	return docs
}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(context.Context, []*domain.Document) (driven.ResolveResult, error) {
	return driven.ResolveResult{}, r.err
}

func TestIndexStore_NotReadyBeforeBuild(t *testing.T) {
	store := newTestIndexStore()

	assert.False(t, store.Ready())

	_, err := store.Query("anything")
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	_, err = store.Neighbors("a.md")
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	_, err = store.Backlinks("a.md")
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	_, err = store.Document("a.md")
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	_, err = store.Stats()
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	_, err = store.Snapshot()
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
}

func TestIndexStore_QueryRanksByDocumentFrequency(t *testing.T) {
	store := newTestIndexStore(crossref.WithMinSharedTerms(1))
	docs := parseDocs(t,
		"A.md", "# Intro\nuses decorators and decorators",
		"B.md", "# Other\ndecorators are nice",
	)

	stats, err := store.Build(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.NotEmpty(t, stats.BuildID)

	occ, err := store.Query("decorators")
	require.NoError(t, err)
	require.Len(t, occ, 2)

	assert.Equal(t, "A.md", occ[0].Path)
	assert.Equal(t, 1, occ[0].BlockOffset)
	assert.Equal(t, 2, occ[0].Frequency)
	assert.Equal(t, 2, occ[0].DocFrequency)

	assert.Equal(t, "B.md", occ[1].Path)
	assert.Equal(t, 1, occ[1].DocFrequency)

	neighbors, err := store.Neighbors("A.md")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "B.md", neighbors[0].Target)
	assert.Greater(t, neighbors[0].Strength, 0.0)
	assert.LessOrEqual(t, neighbors[0].Strength, 1.0)
}

func TestIndexStore_OccurrencesPointAtContainingBlock(t *testing.T) {
	store := newTestIndexStore()
	docs := parseDocs(t,
		"guide.md", "# Setup\n\nInstall poetry first.\n\n```sh\npoetry install\n```\n",
	)

	_, err := store.Build(context.Background(), docs)
	require.NoError(t, err)

	occ, err := store.Query("poetry")
	require.NoError(t, err)
	require.Len(t, occ, 2)

	term := terms.New()
	want, _ := term.Normalise("poetry")
	for _, o := range occ {
		doc, err := store.Document(o.Path)
		require.NoError(t, err)
		block, ok := doc.BlockAt(o.BlockOffset)
		require.True(t, ok)
		assert.Contains(t, term.Terms(block.Text), want)
	}
}

func TestIndexStore_QueryNormalisesInput(t *testing.T) {
	store := newTestIndexStore()
	_, err := store.Build(context.Background(), parseDocs(t, "a.md", "Decorators everywhere"))
	require.NoError(t, err)

	lower, err := store.Query("decorators")
	require.NoError(t, err)
	upper, err := store.Query("  DECORATORS ")
	require.NoError(t, err)

	assert.NotEmpty(t, lower)
	assert.Equal(t, lower, upper)
}

func TestIndexStore_QueryUnknownAndStopword(t *testing.T) {
	store := newTestIndexStore()
	_, err := store.Build(context.Background(), parseDocs(t, "a.md", "the quick fox"))
	require.NoError(t, err)

	occ, err := store.Query("zebra")
	require.NoError(t, err)
	assert.Empty(t, occ)

	occ, err = store.Query("the")
	require.NoError(t, err)
	assert.Empty(t, occ)
	assert.NotNil(t, occ)
}

func TestIndexStore_QueryRejectsMultipleTerms(t *testing.T) {
	store := newTestIndexStore()
	_, err := store.Build(context.Background(), parseDocs(t, "a.md", "quick fox"))
	require.NoError(t, err)

	_, err = store.Query("quick fox")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexStore_EmptyBuildIsQueryable(t *testing.T) {
	store := newTestIndexStore()

	stats, err := store.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Documents)
	assert.True(t, store.Ready())

	occ, err := store.Query("anything")
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestIndexStore_FrontMatterNotIndexed(t *testing.T) {
	store := newTestIndexStore()
	docs := parseDocs(t, "a.md", "---\ntitle: secretword\n---\n# Visible\nbody text\n")

	_, err := store.Build(context.Background(), docs)
	require.NoError(t, err)

	occ, err := store.Query("secretword")
	require.NoError(t, err)
	assert.Empty(t, occ)

	occ, err = store.Query("visible")
	require.NoError(t, err)
	assert.Len(t, occ, 1)
}

func TestIndexStore_LinksAndBacklinks(t *testing.T) {
	store := newTestIndexStore()
	docs := parseDocs(t,
		"A.md", "# Alpha\nsee [beta](B.md)",
		"B.md", "# Beta\nnothing in common",
		"C.md", "# Gamma\nalso [beta](B.md)",
	)

	stats, err := store.Build(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Edges)

	out, err := store.Neighbors("A.md")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.CrossReference{
		Source: "A.md", Target: "B.md", Strength: 1.0, Kind: domain.ReferenceLink,
	}, out[0])

	in, err := store.Backlinks("B.md")
	require.NoError(t, err)
	require.Len(t, in, 2)
	assert.Equal(t, "A.md", in[0].Source)
	assert.Equal(t, "C.md", in[1].Source)

	none, err := store.Neighbors("B.md")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.Neighbors("missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Backlinks("missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexStore_ResultsAreCopies(t *testing.T) {
	store := newTestIndexStore()
	_, err := store.Build(context.Background(), parseDocs(t, "A.md", "[b](B.md) word", "B.md", "word"))
	require.NoError(t, err)

	occ, err := store.Query("word")
	require.NoError(t, err)
	occ[0].Path = "mutated"

	refs, err := store.Neighbors("A.md")
	require.NoError(t, err)
	refs[0].Target = "mutated"

	again, err := store.Query("word")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].Path)

	refsAgain, err := store.Neighbors("A.md")
	require.NoError(t, err)
	assert.Equal(t, "B.md", refsAgain[0].Target)
}

func TestIndexStore_DuplicatePathKeepsPreviousIndex(t *testing.T) {
	store := newTestIndexStore()
	_, err := store.Build(context.Background(), parseDocs(t, "a.md", "original"))
	require.NoError(t, err)
	before, err := store.Stats()
	require.NoError(t, err)

	_, err = store.Build(context.Background(), parseDocs(t, "b.md", "one", "b.md", "two"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	after, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, before.BuildID, after.BuildID)

	occ, err := store.Query("original")
	require.NoError(t, err)
	assert.Len(t, occ, 1)
}

func TestIndexStore_CancelledBuildKeepsPreviousIndex(t *testing.T) {
	store := newTestIndexStore()
	_, err := store.Build(context.Background(), parseDocs(t, "a.md", "original"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Build(ctx, parseDocs(t, "b.md", "replacement"))
	assert.ErrorIs(t, err, context.Canceled)

	occ, err := store.Query("original")
	require.NoError(t, err)
	assert.Len(t, occ, 1)
	occ, err = store.Query("replacement")
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestIndexStore_ResolverErrorKeepsPreviousIndex(t *testing.T) {
	boom := errors.New("boom")
	store := NewIndexStore(terms.New(), failingResolver{err: boom})

	_, err := store.Build(context.Background(), parseDocs(t, "a.md", "text"))

	assert.ErrorIs(t, err, boom)
	assert.False(t, store.Ready())
}

func TestIndexStore_SnapshotRoundTrip(t *testing.T) {
	original := newTestIndexStore(crossref.WithMinSharedTerms(1))
	_, err := original.Build(context.Background(), parseDocs(t,
		"A.md", "# Intro\nuses decorators and decorators [b](B.md)",
		"B.md", "# Other\ndecorators are nice",
	))
	require.NoError(t, err)

	snap, err := original.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Documents, 2)
	assert.NotEmpty(t, snap.Postings)

	restored := newTestIndexStore()
	require.NoError(t, restored.Load(snap))

	for _, term := range []string{"decorators", "intro", "nice"} {
		want, err := original.Query(term)
		require.NoError(t, err)
		got, err := restored.Query(term)
		require.NoError(t, err)
		assert.Equal(t, want, got, term)
	}

	wantRefs, err := original.Neighbors("A.md")
	require.NoError(t, err)
	gotRefs, err := restored.Neighbors("A.md")
	require.NoError(t, err)
	assert.Equal(t, wantRefs, gotRefs)

	wantStats, _ := original.Stats()
	gotStats, _ := restored.Stats()
	assert.Equal(t, wantStats.BuildID, gotStats.BuildID)
	assert.Equal(t, wantStats.Terms, gotStats.Terms)
}

func TestIndexStore_LoadRejectsDanglingPostings(t *testing.T) {
	store := newTestIndexStore()
	stats := domain.IndexStats{TermFingerprint: terms.New().Fingerprint()}

	err := store.Load(&domain.Snapshot{
		Stats:    stats,
		Postings: []domain.Posting{{Term: "x", Occurrence: domain.Occurrence{Path: "ghost.md"}}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.Load(&domain.Snapshot{
		Stats:     stats,
		Documents: []domain.Document{{Path: "a.md"}},
		Postings:  []domain.Posting{{Term: "x", Occurrence: domain.Occurrence{Path: "a.md", BlockOffset: 3}}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, store.Load(nil), domain.ErrInvalidInput)
	assert.False(t, store.Ready())
}

func TestIndexStore_LoadRejectsDifferentTermSettings(t *testing.T) {
	stemmed := newTestIndexStore()
	_, err := stemmed.Build(context.Background(), parseDocs(t, "a.md", "running decorators"))
	require.NoError(t, err)
	snap, err := stemmed.Snapshot()
	require.NoError(t, err)

	n := terms.New(terms.WithStemming(false))
	unstemmed := NewIndexStore(n, crossref.New(n))

	err = unstemmed.Load(snap)
	assert.ErrorIs(t, err, domain.ErrStaleIndex)
	assert.Contains(t, err.Error(), "rebuild")
	assert.False(t, unstemmed.Ready())

	withStopword := terms.New(terms.WithStopwords("decorators"))
	err = NewIndexStore(withStopword, crossref.New(withStopword)).Load(snap)
	assert.ErrorIs(t, err, domain.ErrStaleIndex)
}

func TestIndexStore_BuildRecordsTermSettings(t *testing.T) {
	store := newTestIndexStore()
	stats, err := store.Build(context.Background(), parseDocs(t, "a.md", "text"))
	require.NoError(t, err)

	assert.Equal(t, terms.New().Fingerprint(), stats.TermFingerprint)
}

func TestIndexStore_LoadKeepsPublishedBuild(t *testing.T) {
	ctx := context.Background()

	older := newTestIndexStore()
	_, err := older.Build(ctx, parseDocs(t, "old.md", "# Old\nlegacy"))
	require.NoError(t, err)
	snap, err := older.Snapshot()
	require.NoError(t, err)

	store := newTestIndexStore()
	built, err := store.Build(ctx, parseDocs(t, "new.md", "# New\nfresh"))
	require.NoError(t, err)

	require.NoError(t, store.Load(snap))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, built.BuildID, stats.BuildID)

	occ, err := store.Query("fresh")
	require.NoError(t, err)
	assert.Len(t, occ, 1)
	_, err = store.Document("old.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexStore_ConcurrentReadsDuringRebuild(t *testing.T) {
	store := newTestIndexStore()
	first := parseDocs(t, "a.md", "alpha alpha", "b.md", "alpha")
	second := parseDocs(t, "a.md", "alpha", "b.md", "alpha alpha", "c.md", "alpha")

	_, err := store.Build(context.Background(), first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				occ, err := store.Query("alpha")
				if !assert.NoError(t, err) {
					return
				}
				// Either generation is acceptable, a mix is not.
				if len(occ) != 2 && len(occ) != 3 {
					t.Errorf("unexpected result size %d", len(occ))
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		docs := first
		if i%2 == 0 {
			docs = second
		}
		_, err := store.Build(context.Background(), docs)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}
