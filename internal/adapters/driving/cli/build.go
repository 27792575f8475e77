package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

var buildCmd = &cobra.Command{
	Use:   "build <root-dir>",
	Short: "Build the index from a directory of Markdown files",
	Long: `Walks every Markdown file under root-dir, skipping hidden files and
directories, and replaces the stored index with a fresh build.

Files that cannot be read or are not valid UTF-8 are skipped and reported;
the rest of the corpus is still indexed and saved. The command then exits
with status 2.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	report, err := indexService.Build(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printReport(cmd, report)

	if report.HasSkipped() {
		return skippedError(len(report.Skipped))
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.BuildReport) {
	p := newPrinter(cmd.OutOrStdout())

	cmd.Printf("%s %s\n", p.success("Indexed"), p.path(report.Root))
	cmd.Printf("  Documents: %d\n", report.Documents)
	cmd.Printf("  Terms:     %d\n", report.Terms)
	cmd.Printf("  Edges:     %d\n", report.Edges)
	cmd.Printf("  Skipped:   %d\n", len(report.Skipped))
	cmd.Println(p.muted(fmt.Sprintf("  Build %s in %s", report.BuildID, report.Duration.Round(time.Millisecond))))

	for _, s := range report.Skipped {
		cmd.Printf("  %s %s: %s\n", p.warning("skipped"), s.Path, s.Reason)
	}
	for _, w := range report.Warnings {
		cmd.Printf("  %s %s links %q, using %s\n", p.warning("ambiguous"), w.Source, w.Link, w.Chosen)
	}
}
