package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Term  string `json:"term" jsonschema:"a single word to look up in the index"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of occurrences to return (default from settings)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Term        string             `json:"term"`
	Occurrences []OccurrenceOutput `json:"occurrences"`
	Count       int                `json:"count"`
}

// OccurrenceOutput is one ranked block containing the queried term.
type OccurrenceOutput struct {
	Path         string `json:"path"`
	BlockOffset  int    `json:"block_offset"`
	Kind         string `json:"kind,omitempty"`
	StartLine    int    `json:"start_line,omitempty"`
	Text         string `json:"text,omitempty"`
	Frequency    int    `json:"frequency"`
	DocFrequency int    `json:"doc_frequency"`
}

// PathInput is the input schema for the reference tools.
type PathInput struct {
	Path string `json:"path" jsonschema:"document path relative to the corpus root, e.g. guides/setup.md"`
}

// ReferencesOutput is the output schema for the neighbors and backlinks tools.
type ReferencesOutput struct {
	Path       string            `json:"path"`
	References []ReferenceOutput `json:"references"`
	Count      int               `json:"count"`
}

// ReferenceOutput is one weighted edge.
type ReferenceOutput struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
	Kind     string  `json:"kind"`
}

// StatsInput is the (empty) input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	BuildID   string `json:"build_id"`
	Documents int    `json:"documents"`
	Terms     int    `json:"terms"`
	Edges     int    `json:"edges"`
	Warnings  int    `json:"warnings"`
	BuiltAt   string `json:"built_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Find the blocks containing a word, ranked by how often each document uses it",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "neighbors",
		Description: "List documents referenced by a document, strongest first",
	}, s.handleNeighbors)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "backlinks",
		Description: "List documents that reference a document, strongest first",
	}, s.handleBacklinks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Describe the current index build",
	}, s.handleStats)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	occ, err := s.ports.Index.Query(ctx, input.Term, input.Limit)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Term:        input.Term,
		Occurrences: make([]OccurrenceOutput, len(occ)),
		Count:       len(occ),
	}

	docs := make(map[string]*domain.Document)
	for i, o := range occ {
		out := OccurrenceOutput{
			Path:         o.Path,
			BlockOffset:  o.BlockOffset,
			Frequency:    o.Frequency,
			DocFrequency: o.DocFrequency,
		}

		doc, ok := docs[o.Path]
		if !ok {
			// A missing document only loses the block preview.
			doc, _ = s.ports.Index.Document(ctx, o.Path)
			docs[o.Path] = doc
		}
		if doc != nil {
			if b, ok := doc.BlockAt(o.BlockOffset); ok {
				out.Kind = string(b.Kind)
				out.StartLine = b.StartLine
				out.Text = b.Text
			}
		}
		output.Occurrences[i] = out
	}

	return nil, output, nil
}

// handleNeighbors handles the neighbors tool invocation.
func (s *Server) handleNeighbors(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PathInput,
) (*mcp.CallToolResult, ReferencesOutput, error) {
	refs, err := s.ports.Index.Neighbors(ctx, input.Path)
	if err != nil {
		return nil, ReferencesOutput{}, fmt.Errorf("neighbors of %s: %w", input.Path, err)
	}
	return nil, referencesOutput(input.Path, refs), nil
}

// handleBacklinks handles the backlinks tool invocation.
func (s *Server) handleBacklinks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PathInput,
) (*mcp.CallToolResult, ReferencesOutput, error) {
	refs, err := s.ports.Index.Backlinks(ctx, input.Path)
	if err != nil {
		return nil, ReferencesOutput{}, fmt.Errorf("backlinks of %s: %w", input.Path, err)
	}
	return nil, referencesOutput(input.Path, refs), nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Index.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{
		BuildID:   stats.BuildID,
		Documents: stats.Documents,
		Terms:     stats.Terms,
		Edges:     stats.Edges,
		Warnings:  len(stats.Warnings),
		BuiltAt:   stats.BuiltAt.Format(time.RFC3339),
	}, nil
}

func referencesOutput(path string, refs []domain.CrossReference) ReferencesOutput {
	out := ReferencesOutput{
		Path:       path,
		References: make([]ReferenceOutput, len(refs)),
		Count:      len(refs),
	}
	for i, r := range refs {
		out.References[i] = ReferenceOutput{
			Source:   r.Source,
			Target:   r.Target,
			Strength: r.Strength,
			Kind:     string(r.Kind),
		}
	}
	return out
}
