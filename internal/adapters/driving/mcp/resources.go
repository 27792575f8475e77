package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

const uriScheme = "mdindex://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{+path}",
		Name:        "document",
		Description: "Metadata and outline of an indexed Markdown document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "raw/{+path}",
		Name:        "document-source",
		Description: "Markdown source of an indexed document",
		MIMEType:    "text/markdown",
	}, s.handleRawResource)
}

// documentInfo is the JSON shape of the document resource.
type documentInfo struct {
	Path          string         `json:"path"`
	Title         string         `json:"title"`
	Checksum      string         `json:"checksum"`
	ModifiedAt    string         `json:"modified_at,omitempty"`
	Blocks        int            `json:"blocks"`
	WordCount     int            `json:"word_count"`
	CodeBlocks    int            `json:"code_blocks"`
	CodeLanguages []string       `json:"code_languages,omitempty"`
	Links         int            `json:"links"`
	Outline       []headingInfo  `json:"outline,omitempty"`
	FrontMatter   map[string]any `json:"front_matter,omitempty"`
}

type headingInfo struct {
	Level   int      `json:"level"`
	Text    string   `json:"text"`
	Parents []string `json:"parents,omitempty"`
}

// handleDocumentResource returns the metadata of one document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	doc, err := s.lookup(ctx, req.Params.URI, "documents/")
	if err != nil {
		return nil, err
	}

	info := documentInfo{
		Path:          doc.Path,
		Title:         doc.Title,
		Checksum:      doc.Checksum,
		Blocks:        len(doc.Blocks),
		WordCount:     doc.Metadata.WordCount,
		CodeBlocks:    doc.Metadata.CodeBlocks,
		CodeLanguages: doc.Metadata.CodeLanguages,
		Links:         doc.Metadata.Links,
		FrontMatter:   doc.FrontMatter,
	}
	if !doc.ModifiedAt.IsZero() {
		info.ModifiedAt = doc.ModifiedAt.UTC().Format(time.RFC3339)
	}
	for _, h := range doc.Metadata.Outline {
		info.Outline = append(info.Outline, headingInfo{Level: h.Level, Text: h.Text, Parents: h.Parents})
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleRawResource returns the Markdown source of one document.
func (s *Server) handleRawResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	doc, err := s.lookup(ctx, req.Params.URI, "raw/")
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     doc.Raw,
		}},
	}, nil
}

func (s *Server) lookup(ctx context.Context, uri, kind string) (*domain.Document, error) {
	path := extractPath(uri, kind)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	doc, err := s.ports.Index.Document(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// extractPath extracts the document path from a URI like
// mdindex://documents/guides/setup.md.
func extractPath(uri, kind string) string {
	prefix := uriScheme + kind
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
