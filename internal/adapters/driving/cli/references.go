package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

var referencesJSON bool

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <path>",
	Short: "List documents a document refers to",
	Long: `Lists the outgoing cross-references of a document, strongest first.
Explicit links have strength 1.0; other edges are weighted by shared
vocabulary. The path is relative to the indexed root.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReferences(cmd, args[0], "Neighbors", indexNeighbors)
	},
}

var backlinksCmd = &cobra.Command{
	Use:   "backlinks <path>",
	Short: "List documents that refer to a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReferences(cmd, args[0], "Backlinks", indexBacklinks)
	},
}

func init() {
	neighborsCmd.Flags().BoolVar(&referencesJSON, "json", false, "output references as JSON")
	backlinksCmd.Flags().BoolVar(&referencesJSON, "json", false, "output references as JSON")
	rootCmd.AddCommand(neighborsCmd)
	rootCmd.AddCommand(backlinksCmd)
}

type referenceLookup func(ctx context.Context, path string) ([]domain.CrossReference, error)

func indexNeighbors(ctx context.Context, path string) ([]domain.CrossReference, error) {
	return indexService.Neighbors(ctx, path)
}

func indexBacklinks(ctx context.Context, path string) ([]domain.CrossReference, error) {
	return indexService.Backlinks(ctx, path)
}

// referenceOutput is the JSON shape of one edge.
type referenceOutput struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
	Kind     string  `json:"kind"`
}

func runReferences(cmd *cobra.Command, path, heading string, lookup referenceLookup) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	refs, err := lookup(commandContext(cmd), path)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotReady) {
			return err
		}
		return fmt.Errorf("%s failed: %w", strings.ToLower(heading), err)
	}

	if referencesJSON {
		out := make([]referenceOutput, len(refs))
		for i, r := range refs {
			out[i] = referenceOutput{Source: r.Source, Target: r.Target, Strength: r.Strength, Kind: string(r.Kind)}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal references: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	p := newPrinter(cmd.OutOrStdout())
	cmd.Printf("%s of %s\n", p.title(heading), p.path(path))
	if len(refs) == 0 {
		cmd.Println("  (none)")
		return nil
	}
	for _, r := range refs {
		other := r.Target
		if other == path {
			other = r.Source
		}
		cmd.Printf("  %.3f  %s %s\n", r.Strength, p.path(other), p.muted("("+string(r.Kind)+")"))
	}
	return nil
}
