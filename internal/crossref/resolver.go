// Package crossref infers relationships between documents.
//
// Two kinds of references are produced. Term references connect every pair
// of documents that share at least MinSharedTerms distinct terms, in both
// directions, weighted by the Jaccard similarity of their term sets. Link
// references come from explicit Markdown links and always have strength 1.0,
// replacing any term reference between the same pair.
package crossref

import (
	"context"
	"path"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
	"github.com/custodia-labs/mdindex/internal/links"
	"github.com/custodia-labs/mdindex/internal/logger"
)

// Ensure Resolver implements the interface.
var _ driven.Resolver = (*Resolver)(nil)

// Resolver builds the cross-reference graph of a corpus.
type Resolver struct {
	terms     driven.TermNormaliser
	links     *links.Extractor
	minShared int
	log       *logrus.Entry
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMinSharedTerms sets the shared-term threshold K. Values below 1 are ignored.
func WithMinSharedTerms(k int) Option {
	return func(r *Resolver) {
		if k > 0 {
			r.minShared = k
		}
	}
}

// New creates a resolver that derives terms with normaliser.
func New(normaliser driven.TermNormaliser, opts ...Option) *Resolver {
	r := &Resolver{
		terms:     normaliser,
		links:     links.NewExtractor(),
		minShared: domain.DefaultMinSharedTerms,
		log:       logger.WithComponent("crossref"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MinSharedTerms returns the configured threshold.
func (r *Resolver) MinSharedTerms() int {
	return r.minShared
}

type edgeKey struct {
	source string
	target string
}

// Resolve computes all references between docs. It never fails on content;
// the only error is cancellation of ctx.
func (r *Resolver) Resolve(ctx context.Context, docs []*domain.Document) (driven.ResolveResult, error) {
	sorted := make([]*domain.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	edges := make(map[edgeKey]domain.CrossReference)

	if err := r.termReferences(ctx, sorted, edges); err != nil {
		return driven.ResolveResult{}, err
	}

	warnings, err := r.linkReferences(ctx, sorted, edges)
	if err != nil {
		return driven.ResolveResult{}, err
	}

	refs := make([]domain.CrossReference, 0, len(edges))
	for _, e := range edges {
		refs = append(refs, e)
	}
	SortByStrength(refs)
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Source < refs[j].Source })

	r.log.WithFields(logrus.Fields{
		"documents":  len(sorted),
		"references": len(refs),
		"warnings":   len(warnings),
	}).Debug("resolved cross-references")

	return driven.ResolveResult{References: refs, Warnings: warnings}, nil
}

// termReferences adds a reference pair for every two documents sharing at
// least minShared distinct terms.
func (r *Resolver) termReferences(
	ctx context.Context, docs []*domain.Document, edges map[edgeKey]domain.CrossReference,
) error {
	sets := make([]map[string]struct{}, len(docs))
	inverted := make(map[string][]int)

	for i, doc := range docs {
		sets[i] = TermSet(r.terms, doc)
		for term := range sets[i] {
			inverted[term] = append(inverted[term], i)
		}
	}

	shared := make(map[[2]int]int)
	for _, holders := range inverted {
		if err := ctx.Err(); err != nil {
			return err
		}
		for a := 0; a < len(holders); a++ {
			for b := a + 1; b < len(holders); b++ {
				i, j := holders[a], holders[b]
				if i > j {
					i, j = j, i
				}
				shared[[2]int{i, j}]++
			}
		}
	}

	for pair, count := range shared {
		if count < r.minShared {
			continue
		}
		i, j := pair[0], pair[1]
		union := len(sets[i]) + len(sets[j]) - count
		strength := float64(count) / float64(union)

		edges[edgeKey{docs[i].Path, docs[j].Path}] = domain.CrossReference{
			Source: docs[i].Path, Target: docs[j].Path, Strength: strength, Kind: domain.ReferenceTerms,
		}
		edges[edgeKey{docs[j].Path, docs[i].Path}] = domain.CrossReference{
			Source: docs[j].Path, Target: docs[i].Path, Strength: strength, Kind: domain.ReferenceTerms,
		}
	}
	return nil
}

// linkReferences adds a strength 1.0 reference for every explicit link that
// resolves to another document in the corpus.
func (r *Resolver) linkReferences(
	ctx context.Context, docs []*domain.Document, edges map[edgeKey]domain.CrossReference,
) ([]domain.AmbiguousLinkWarning, error) {
	paths := make(map[string]struct{}, len(docs))
	byBase := make(map[string][]string)
	for _, doc := range docs {
		paths[doc.Path] = struct{}{}
		base := path.Base(doc.Path)
		byBase[base] = append(byBase[base], doc.Path)
	}

	var warnings []domain.AmbiguousLinkWarning
	warned := make(map[edgeKey]bool)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, l := range r.links.Extract(doc.Raw) {
			target, ok := links.LocalTarget(doc.Path, l.Destination)
			if !ok {
				continue
			}

			candidates := matchTargets(target, paths, byBase)
			if len(candidates) == 0 {
				continue
			}

			chosen := candidates[0]
			if len(candidates) > 1 && !warned[edgeKey{doc.Path, l.Destination}] {
				warned[edgeKey{doc.Path, l.Destination}] = true
				w := domain.AmbiguousLinkWarning{
					Source:     doc.Path,
					Link:       l.Destination,
					Candidates: candidates,
					Chosen:     chosen,
				}
				warnings = append(warnings, w)
				r.log.WithFields(logrus.Fields{
					"source":     doc.Path,
					"link":       l.Destination,
					"candidates": len(candidates),
				}).Warnf("ambiguous link, using %s", chosen)
			}

			if chosen == doc.Path {
				continue
			}

			edges[edgeKey{doc.Path, chosen}] = domain.CrossReference{
				Source:   doc.Path,
				Target:   chosen,
				Strength: domain.LinkStrength,
				Kind:     domain.ReferenceLink,
			}
		}
	}

	return warnings, nil
}

// matchTargets returns the documents a resolved link target may refer to,
// sorted. Tiers are tried in order and the first non-empty tier wins:
// the exact path; the path with a Markdown extension or index file; any
// document with the same base name.
func matchTargets(target string, paths map[string]struct{}, byBase map[string][]string) []string {
	if _, ok := paths[target]; ok {
		return []string{target}
	}

	var expanded []string
	for _, candidate := range []string{
		target + ".md",
		target + ".markdown",
		path.Join(target, "README.md"),
		path.Join(target, "index.md"),
	} {
		if _, ok := paths[candidate]; ok {
			expanded = append(expanded, candidate)
		}
	}
	if len(expanded) > 0 {
		sort.Strings(expanded)
		return expanded
	}

	base := path.Base(target)
	var byName []string
	byName = append(byName, byBase[base]...)
	if path.Ext(base) == "" {
		byName = append(byName, byBase[base+".md"]...)
	}
	sort.Strings(byName)
	return byName
}

// TermSet returns the distinct terms of a document, front matter excluded.
func TermSet(normaliser driven.TermNormaliser, doc *domain.Document) map[string]struct{} {
	set := make(map[string]struct{})
	for _, b := range doc.Blocks {
		if b.Kind == domain.BlockFrontMatter {
			continue
		}
		for _, t := range normaliser.Terms(b.Text) {
			set[t] = struct{}{}
		}
	}
	return set
}

// SortByStrength orders references by descending strength, then target path.
func SortByStrength(refs []domain.CrossReference) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Strength != refs[j].Strength {
			return refs[i].Strength > refs[j].Strength
		}
		return refs[i].Target < refs[j].Target
	})
}
