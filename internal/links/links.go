// Package links finds explicit Markdown links in document text.
//
// Links are located by walking a goldmark AST rather than by pattern
// matching, so reference-style links are resolved and link syntax shown
// inside code spans or fenced code is ignored.
package links

import (
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Link is one explicit link found in a document.
type Link struct {
	// Text is the link label.
	Text string

	// Destination is the raw link target.
	Destination string
}

// Extractor parses Markdown and collects links.
// It is stateless and safe for concurrent use.
type Extractor struct {
	md goldmark.Markdown
}

// NewExtractor creates an extractor with GFM syntax enabled.
func NewExtractor() *Extractor {
	return &Extractor{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Extract returns all links of src in document order.
func (e *Extractor) Extract(src string) []Link {
	source := []byte(src)
	root := e.md.Parser().Parse(text.NewReader(source))

	var found []Link
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if l, ok := n.(*ast.Link); ok {
			found = append(found, Link{
				Text:        string(l.Text(source)),
				Destination: string(l.Destination),
			})
		}
		return ast.WalkContinue, nil
	})

	return found
}

// LocalTarget returns the corpus-relative path a link points at, resolved
// against the directory of the linking document. ok is false for external
// URLs, pure fragments and links that escape the corpus root.
func LocalTarget(fromPath, destination string) (string, bool) {
	dest := strings.TrimSpace(destination)
	if dest == "" || strings.HasPrefix(dest, "#") {
		return "", false
	}

	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}

	p := u.Path
	if p == "" {
		return "", false
	}

	if strings.HasPrefix(p, "/") {
		p = path.Clean(strings.TrimPrefix(p, "/"))
	} else {
		p = path.Join(path.Dir(fromPath), p)
	}

	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}
