// Package cli implements the index command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driving"
	"github.com/custodia-labs/mdindex/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Options are the global flags every command shares.
type Options struct {
	DataDir   string
	ConfigDir string
	Verbose   bool
}

// Services are the driving ports commands run against.
type Services struct {
	Index    driving.IndexService
	Watch    driving.WatchService
	Settings driving.SettingsService

	// Close releases resources held by the services. May be nil.
	Close func() error
}

// Wiring builds the services for the given global options.
type Wiring func(Options) (*Services, error)

var (
	indexService    driving.IndexService
	watchService    driving.WatchService
	settingsService driving.SettingsService
	closeServices   func() error

	wiring Wiring
	opts   Options
)

// skipWiring marks commands that run without services.
const skipWiring = "skip-wiring"

var rootCmd = &cobra.Command{
	Use:   "index",
	Short: "Index and query a Markdown knowledge base",
	Long: `index parses a directory of Markdown files into typed blocks, infers
cross-references between documents and answers term and neighbour queries.

Build the index once, then query it:
  index build ./notes
  index query decorators
  index neighbors python/decorators.md`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.SetOut(os.Stdout)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "print debug output")
	flags.StringVar(&opts.DataDir, "data-dir", "", "directory holding the index database (default ~/.mdindex/data)")
	flags.StringVar(&opts.ConfigDir, "config-dir", "", "directory holding config.toml (default ~/.mdindex)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetWiring installs the function that builds services before a command runs.
func SetWiring(w Wiring) {
	wiring = w
}

// prepare applies global flags and wires services unless they are already
// injected or the command does not need them.
func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)

	if cmd.Annotations[skipWiring] == "true" || wiring == nil || indexService != nil {
		return nil
	}

	services, err := wiring(opts)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	indexService = services.Index
	watchService = services.Watch
	settingsService = services.Settings
	closeServices = services.Close
	return nil
}

// Execute runs the command line and reports the error, if any, on stderr.
// Map the returned error to a process status with ExitCode.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)

	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("Closing services: %v", cerr)
		}
		closeServices = nil
	}

	if err != nil {
		reportError(rootCmd, err)
	}
	return err
}

func reportError(cmd *cobra.Command, err error) {
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr) && exitErr.Code == ExitSkipped:
		cmd.PrintErrln(newPrinter(cmd.ErrOrStderr()).warning("Warning: " + exitErr.Error()))
	case errors.Is(err, domain.ErrIndexNotReady):
		cmd.PrintErrln("Error: index not built; run 'index build <root-dir>' first")
	case errors.Is(err, domain.ErrStaleIndex):
		cmd.PrintErrln("Error: term settings changed since the last build; run 'index build <root-dir>' to rebuild")
	default:
		cmd.PrintErrln("Error: " + err.Error())
	}
}

// commandContext returns the context cobra was executed with.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
