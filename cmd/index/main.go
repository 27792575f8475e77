// Command index builds and queries a Markdown knowledge-base index.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/mdindex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/mdindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mdindex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/mdindex/internal/adapters/driving/cli"
	"github.com/custodia-labs/mdindex/internal/connectors/filesystem"
	"github.com/custodia-labs/mdindex/internal/core/services"
	"github.com/custodia-labs/mdindex/internal/crossref"
	"github.com/custodia-labs/mdindex/internal/metadata"
	"github.com/custodia-labs/mdindex/internal/parsers/markdown"
	"github.com/custodia-labs/mdindex/internal/terms"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetWiring(wire)
	os.Exit(cli.ExitCode(cli.Execute(context.Background())))
}

// wire assembles the services from the stored configuration.
func wire(opts cli.Options) (*cli.Services, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings from %s: %w", configStore.Path(), err)
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dir, err := sqlite.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}
	snapshots, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	normaliser := terms.New(
		terms.WithStemming(settings.Terms.Stemming),
		terms.WithStopwords(settings.Terms.ExtraStopwords...),
	)
	resolver := crossref.New(normaliser, crossref.WithMinSharedTerms(settings.CrossRef.MinSharedTerms))
	source := filesystem.New(filesystem.WithExtensions(settings.Index.Extensions...))

	indexService := services.NewIndexService(services.IndexDeps{
		Source:    source,
		Parser:    markdown.New(),
		Extractor: metadata.New(),
		Store:     memory.NewIndexStore(normaliser, resolver),
		Snapshots: snapshots,
	}, settings)

	return &cli.Services{
		Index:    indexService,
		Watch:    services.NewWatchService(indexService, source, settings.Watch.MinInterval),
		Settings: settingsService,
		Close:    snapshots.Close,
	}, nil
}
