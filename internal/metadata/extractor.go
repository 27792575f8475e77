// Package metadata computes the per-document summary record.
package metadata

import (
	"sort"
	"strings"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
	"github.com/custodia-labs/mdindex/internal/links"
)

// Ensure Extractor implements the interface.
var _ driven.MetadataExtractor = (*Extractor)(nil)

// Extractor walks parsed blocks once and summarises them.
type Extractor struct {
	links *links.Extractor
}

// New creates a metadata extractor.
func New() *Extractor {
	return &Extractor{links: links.NewExtractor()}
}

// Extract returns the metadata of doc. It does not modify doc.
//
// The outline is built with a stack keyed by heading level: a heading at
// level N closes every open heading at level N or deeper, and the headings
// still open become its parents.
func (e *Extractor) Extract(doc *domain.Document) domain.Metadata {
	meta := domain.Metadata{Title: doc.Title}

	var open []domain.HeadingRef
	languages := make(map[string]struct{})

	for _, b := range doc.Blocks {
		switch b.Kind {
		case domain.BlockHeading:
			for len(open) > 0 && open[len(open)-1].Level >= b.Level {
				open = open[:len(open)-1]
			}
			parents := make([]string, len(open))
			for i, h := range open {
				parents[i] = h.Text
			}
			ref := domain.HeadingRef{Level: b.Level, Text: b.Text, Parents: parents}
			meta.Outline = append(meta.Outline, ref)
			open = append(open, ref)

		case domain.BlockCode:
			meta.CodeBlocks++
			if b.Language != "" {
				languages[b.Language] = struct{}{}
			}

		case domain.BlockParagraph, domain.BlockListItem:
			meta.WordCount += len(strings.Fields(b.Text))
		}
	}

	meta.CodeLanguages = make([]string, 0, len(languages))
	for lang := range languages {
		meta.CodeLanguages = append(meta.CodeLanguages, lang)
	}
	sort.Strings(meta.CodeLanguages)

	meta.Links = len(e.links.Extract(doc.Raw))

	return meta
}
