package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

func TestSettingsCmd_ShowsGroupedKeys(t *testing.T) {
	_, _, cleanup := setupTestServicesNoWatch()
	defer cleanup()

	for _, args := range [][]string{{"settings"}, {"settings", "show"}} {
		out, _, err := execute(args...)
		require.NoError(t, err)

		assert.Contains(t, out, "Current Settings")
		assert.Contains(t, out, "/tmp/mdindex/config.toml")
		assert.Contains(t, out, "[crossref]\n  min_shared_terms = 5\n")
		assert.Contains(t, out, "[query]\n  default_limit = 20\n")
		assert.Contains(t, out, "extra_stopwords = (none)")
	}
}

func TestSettingsCmd_Set(t *testing.T) {
	_, settings, cleanup := setupTestServicesNoWatch()
	defer cleanup()

	out, _, err := execute("settings", "set", "query.default_limit", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Set query.default_limit = 10")
	assert.Equal(t, "10", settings.values["query.default_limit"])
}

func TestSettingsCmd_SetUnknownKey(t *testing.T) {
	_, _, cleanup := setupTestServicesNoWatch()
	defer cleanup()

	_, _, err := execute("settings", "set", "nope", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_SetRequiresTwoArgs(t *testing.T) {
	_, _, cleanup := setupTestServicesNoWatch()
	defer cleanup()

	_, _, err := execute("settings", "set", "query.default_limit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestSettingsCmd_ShowError(t *testing.T) {
	_, settings, cleanup := setupTestServicesNoWatch()
	defer cleanup()
	settings.err = errors.New("bad config")

	_, _, err := execute("settings", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get settings")
}
