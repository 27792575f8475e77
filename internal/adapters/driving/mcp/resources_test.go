package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

func TestExtractPath(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		kind     string
		expected string
	}{
		{"nested document", "mdindex://documents/guides/setup.md", "documents/", "guides/setup.md"},
		{"raw document", "mdindex://raw/a.md", "raw/", "a.md"},
		{"wrong kind", "mdindex://raw/a.md", "documents/", ""},
		{"invalid scheme", "file://documents/a.md", "documents/", ""},
		{"empty URI", "", "documents/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPath(tt.uri, tt.kind))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()
	index := &mockIndexService{docs: map[string]*domain.Document{
		"guides/setup.md": {
			Path:        "guides/setup.md",
			Title:       "Setup",
			Raw:         "# Setup\n",
			Checksum:    "abc",
			Blocks:      []domain.Block{{Kind: domain.BlockHeading, Level: 1, Text: "Setup"}},
			FrontMatter: map[string]any{"tags": []any{"ops"}},
			Metadata: domain.Metadata{
				Title:      "Setup",
				WordCount:  1,
				CodeBlocks: 0,
				Outline:    []domain.HeadingRef{{Level: 1, Text: "Setup"}},
			},
		},
	}}
	server := newTestServer(t, index)

	t.Run("returns metadata as JSON", func(t *testing.T) {
		result, err := server.handleDocumentResource(ctx, readRequest("mdindex://documents/guides/setup.md"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var info documentInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, "guides/setup.md", info.Path)
		assert.Equal(t, "Setup", info.Title)
		assert.Equal(t, 1, info.Blocks)
		require.Len(t, info.Outline, 1)
		assert.Equal(t, "Setup", info.Outline[0].Text)
		assert.Contains(t, info.FrontMatter, "tags")
	})

	t.Run("returns raw markdown", func(t *testing.T) {
		result, err := server.handleRawResource(ctx, readRequest("mdindex://raw/guides/setup.md"))
		require.NoError(t, err)
		assert.Equal(t, "# Setup\n", result.Contents[0].Text)
		assert.Equal(t, "text/markdown", result.Contents[0].MIMEType)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		_, err := server.handleDocumentResource(ctx, readRequest("mdindex://documents/missing.md"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed uri is not found", func(t *testing.T) {
		_, err := server.handleDocumentResource(ctx, readRequest("other://documents/a.md"))
		require.Error(t, err)
	})
}

// connect serves server over in-memory transports and returns a client session.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServer_ReadResource_NestedPaths(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &mockIndexService{docs: map[string]*domain.Document{
		"a.md":            {Path: "a.md", Title: "A", Raw: "# A\n"},
		"guides/setup.md": {Path: "guides/setup.md", Title: "Setup", Raw: "# Setup\n"},
	}})
	session := connect(t, server)

	t.Run("top-level raw document", func(t *testing.T) {
		result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "mdindex://raw/a.md"})
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "# A\n", result.Contents[0].Text)
	})

	t.Run("nested raw document", func(t *testing.T) {
		result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "mdindex://raw/guides/setup.md"})
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "# Setup\n", result.Contents[0].Text)
	})

	t.Run("nested document metadata", func(t *testing.T) {
		result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "mdindex://documents/guides/setup.md"})
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)

		var info documentInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, "guides/setup.md", info.Path)
		assert.Equal(t, "Setup", info.Title)
	})

	t.Run("unknown nested document", func(t *testing.T) {
		_, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "mdindex://raw/guides/missing.md"})
		assert.Error(t, err)
	})
}
