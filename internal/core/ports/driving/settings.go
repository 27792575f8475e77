package driving

import "github.com/custodia-labs/mdindex/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns current settings merged over defaults.
	Get() (domain.Settings, error)

	// Set validates and persists a single setting by key.
	Set(key, value string) error

	// Values returns the effective value of every key, rendered as Set
	// accepts it.
	Values() (map[string]string, error)

	// Keys lists the recognised setting keys.
	Keys() []string

	// ConfigPath returns the configuration file location.
	ConfigPath() string
}
