package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch <root-dir>",
	Short: "Rebuild the index whenever Markdown files change",
	Long: `Builds root-dir once, then watches it and rebuilds after files are
created, changed or removed. Bursts of changes are coalesced; the minimum
time between rebuilds is the watch.min_interval setting.

Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchService == nil {
		return errors.New("watch service not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPrinter(cmd.OutOrStdout())
	cmd.Printf("Watching %s\n", p.path(args[0]))

	return watchService.Watch(ctx, args[0], func(report *domain.BuildReport, err error) {
		if err != nil {
			cmd.PrintErrln(p.warning("Rebuild failed: ") + err.Error())
			return
		}
		printReport(cmd, report)
	})
}
