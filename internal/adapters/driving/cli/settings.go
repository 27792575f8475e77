package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in config.toml.

Keys:
  crossref.min_shared_terms  shared terms needed to link two documents (default 5)
  index.workers              parallel parsers (default: number of CPUs)
  index.extensions           comma-separated file extensions (default .md)
  terms.stemming             stem English words (default true)
  terms.extra_stopwords      comma-separated words to ignore
  query.default_limit        matches returned by query (default 20)
  query.cache_ttl            how long query results are cached (0 disables)
  watch.min_interval         minimum time between watch rebuilds`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	p := newPrinter(cmd.OutOrStdout())
	cmd.Println(p.title("Current Settings"))
	cmd.Println(p.muted(settingsService.ConfigPath()))
	cmd.Println()

	section := ""
	for _, key := range settingsService.Keys() {
		prefix, name, _ := strings.Cut(key, ".")
		if prefix != section {
			if section != "" {
				cmd.Println()
			}
			section = prefix
			cmd.Printf("[%s]\n", section)
		}
		value := values[key]
		if value == "" {
			value = p.muted("(none)")
		}
		cmd.Printf("  %s = %s\n", name, value)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}
