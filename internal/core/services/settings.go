package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
	"github.com/custodia-labs/mdindex/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyMinSharedTerms = "crossref.min_shared_terms"
	KeyWorkers        = "index.workers"
	KeyExtensions     = "index.extensions"
	KeyStemming       = "terms.stemming"
	KeyExtraStopwords = "terms.extra_stopwords"
	KeyDefaultLimit   = "query.default_limit"
	KeyCacheTTL       = "query.cache_ttl"
	KeyWatchInterval  = "watch.min_interval"
)

// setting converts one config key between its string form on the command
// line, its stored form, and its field in domain.Settings.
type setting struct {
	parse func(string) (any, error)
	apply func(*domain.Settings, any) error
}

var settingSpecs = map[string]setting{
	KeyMinSharedTerms: {parse: parseInt, apply: func(s *domain.Settings, v any) error {
		return assignInt(&s.CrossRef.MinSharedTerms, v)
	}},
	KeyWorkers: {parse: parseInt, apply: func(s *domain.Settings, v any) error {
		return assignInt(&s.Index.Workers, v)
	}},
	KeyExtensions: {parse: parseList, apply: func(s *domain.Settings, v any) error {
		return assignList(&s.Index.Extensions, v)
	}},
	KeyStemming: {parse: parseBool, apply: func(s *domain.Settings, v any) error {
		return assignBool(&s.Terms.Stemming, v)
	}},
	KeyExtraStopwords: {parse: parseList, apply: func(s *domain.Settings, v any) error {
		return assignList(&s.Terms.ExtraStopwords, v)
	}},
	KeyDefaultLimit: {parse: parseInt, apply: func(s *domain.Settings, v any) error {
		return assignInt(&s.Query.DefaultLimit, v)
	}},
	KeyCacheTTL: {parse: parseDuration, apply: func(s *domain.Settings, v any) error {
		return assignDuration(&s.Query.CacheTTL, v)
	}},
	KeyWatchInterval: {parse: parseDuration, apply: func(s *domain.Settings, v any) error {
		return assignDuration(&s.Watch.MinInterval, v)
	}},
}

// SettingsService reads and writes settings through a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the stored settings merged over defaults.
// Unknown keys in the store are ignored.
func (s *SettingsService) Get() (domain.Settings, error) {
	result := domain.DefaultSettings()

	for _, key := range s.Keys() {
		raw, ok := s.configStore.Get(key)
		if !ok {
			continue
		}
		if err := settingSpecs[key].apply(&result, raw); err != nil {
			return domain.Settings{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
	}

	if err := result.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return result, nil
}

// Set parses value for key, validates the resulting settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	spec, ok := settingSpecs[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := spec.parse(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	current, err := s.Get()
	if err != nil {
		return err
	}
	if err := spec.apply(&current, parsed); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := current.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Values returns the effective value of every recognised key.
func (s *SettingsService) Values() (map[string]string, error) {
	st, err := s.Get()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(settingSpecs))
	for key := range settingSpecs {
		values[key], _ = Value(st, key)
	}
	return values, nil
}

// Keys lists the recognised setting keys.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingSpecs))
	for k := range settingSpecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigPath returns where settings are stored.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Value renders the effective value of key as Set would accept it.
func Value(st domain.Settings, key string) (string, bool) {
	switch key {
	case KeyMinSharedTerms:
		return strconv.Itoa(st.CrossRef.MinSharedTerms), true
	case KeyWorkers:
		return strconv.Itoa(st.Index.Workers), true
	case KeyExtensions:
		return strings.Join(st.Index.Extensions, ","), true
	case KeyStemming:
		return strconv.FormatBool(st.Terms.Stemming), true
	case KeyExtraStopwords:
		return strings.Join(st.Terms.ExtraStopwords, ","), true
	case KeyDefaultLimit:
		return strconv.Itoa(st.Query.DefaultLimit), true
	case KeyCacheTTL:
		return st.Query.CacheTTL.String(), true
	case KeyWatchInterval:
		return st.Watch.MinInterval.String(), true
	}
	return "", false
}

// Parsers from command-line strings to stored values.

func parseInt(s string) (any, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseBool(s string) (any, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}

// parseDuration validates s and keeps it as a string, which TOML stores natively.
func parseDuration(s string) (any, error) {
	s = strings.TrimSpace(s)
	if _, err := time.ParseDuration(s); err != nil {
		return nil, err
	}
	return s, nil
}

// parseList splits a comma-separated list, dropping empty items.
func parseList(s string) (any, error) {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

// Assigners from stored values, as decoded by any ConfigStore, to fields.

func assignInt(dst *int, v any) error {
	switch n := v.(type) {
	case int:
		*dst = n
	case int64:
		*dst = int(n)
	case float64:
		*dst = int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return err
		}
		*dst = parsed
	default:
		return fmt.Errorf("expected integer, got %T", v)
	}
	return nil
}

func assignBool(dst *bool, v any) error {
	switch b := v.(type) {
	case bool:
		*dst = b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return err
		}
		*dst = parsed
	default:
		return fmt.Errorf("expected boolean, got %T", v)
	}
	return nil
}

func assignDuration(dst *time.Duration, v any) error {
	switch d := v.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return err
		}
		*dst = parsed
	case time.Duration:
		*dst = d
	default:
		return fmt.Errorf("expected duration string, got %T", v)
	}
	return nil
}

func assignList(dst *[]string, v any) error {
	switch l := v.(type) {
	case []string:
		*dst = append([]string(nil), l...)
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected list of strings, got %T element", item)
			}
			out = append(out, str)
		}
		*dst = out
	case string:
		parsed, _ := parseList(l)
		*dst = parsed.([]string)
	default:
		return fmt.Errorf("expected list of strings, got %T", v)
	}
	return nil
}
