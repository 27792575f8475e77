package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

func TestBuildCmd_Use(t *testing.T) {
	assert.Equal(t, "build <root-dir>", buildCmd.Use)
}

func TestBuildCmd_RequiresExactlyOneArg(t *testing.T) {
	_, _, cleanup := setupTestServicesNoWatch()
	defer cleanup()

	_, _, err := execute("build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestBuildCmd_PrintsSummary(t *testing.T) {
	index, _, cleanup := setupTestServicesNoWatch()
	defer cleanup()

	out, _, err := execute("build", "./notes")
	require.NoError(t, err)

	assert.Equal(t, "./notes", index.builtRoot)
	assert.Contains(t, out, "Indexed ./notes")
	assert.Contains(t, out, "Documents: 2")
	assert.Contains(t, out, "Terms:     7")
	assert.Contains(t, out, "Edges:     2")
	assert.Contains(t, out, "Skipped:   0")
	assert.Contains(t, out, "build-1")
}

func TestBuildCmd_SkippedFilesExitTwo(t *testing.T) {
	index, _, cleanup := setupTestServicesNoWatch()
	defer cleanup()
	index.report.Skipped = []domain.SkippedFile{{Path: "bad.md", Reason: "invalid utf-8 encoding"}}
	index.report.Warnings = []domain.AmbiguousLinkWarning{{
		Source: "index.md", Link: "setup.md", Chosen: "guides/setup.md",
	}}

	out, _, err := execute("build", "./notes")
	require.Error(t, err)
	assert.Equal(t, ExitSkipped, ExitCode(err))

	assert.Contains(t, out, "Skipped:   1")
	assert.Contains(t, out, "skipped bad.md: invalid utf-8 encoding")
	assert.Contains(t, out, `ambiguous index.md links "setup.md", using guides/setup.md`)
}

func TestBuildCmd_Failure(t *testing.T) {
	index, _, cleanup := setupTestServicesNoWatch()
	defer cleanup()
	index.err = errors.New("root does not exist")

	_, _, err := execute("build", "./missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build failed")
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestBuildCmd_NotConfigured(t *testing.T) {
	_, _, cleanup := setupTestServicesNoWatch()
	defer cleanup()
	indexService = nil

	_, _, err := execute("build", "./notes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index service not configured")
}

// setupTestServicesNoWatch is setupTestServices for commands that do not
// use the watch service.
func setupTestServicesNoWatch() (*mockIndexService, *mockSettingsService, func()) {
	index, _, settings, cleanup := setupTestServices()
	return index, settings, cleanup
}
