package driven

// ConfigStore holds user settings as flat dot-notation keys,
// for example "crossref.min_shared_terms".
type ConfigStore interface {
	// Get retrieves a raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns the value as a string, or "" if unset or not a string.
	GetString(key string) string

	// GetInt returns the value as an int, or 0 if unset or not numeric.
	GetInt(key string) int

	// GetBool returns the value as a bool, or false if unset or not a bool.
	GetBool(key string) bool

	// GetStringSlice returns the value as a string slice, or nil.
	GetStringSlice(key string) []string

	// Set stores a value and persists it.
	Set(key string, value any) error

	// Delete removes a key and persists the change. Unknown keys are ignored.
	Delete(key string) error

	// Keys lists the keys currently set, sorted.
	Keys() []string

	// Save persists the current configuration.
	Save() error

	// Load re-reads configuration from storage.
	Load() error

	// Path returns where the configuration is stored.
	Path() string
}
