package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

var (
	queryLimit int
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query <term>",
	Short: "Find the blocks containing a term",
	Long: `Looks up a single word in the index. The word is normalised the same
way document text is (case folded, stemmed) so "Decorators" matches
"decorator". Matches are ranked by how often each document uses the term.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "maximum number of matches (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output matches as JSON")
	rootCmd.AddCommand(queryCmd)
}

// queryMatch is one occurrence with its block for display.
type queryMatch struct {
	Path         string `json:"path"`
	BlockOffset  int    `json:"block_offset"`
	Kind         string `json:"kind,omitempty"`
	StartLine    int    `json:"start_line,omitempty"`
	Text         string `json:"text,omitempty"`
	Frequency    int    `json:"frequency"`
	DocFrequency int    `json:"doc_frequency"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	ctx := commandContext(cmd)
	occ, err := indexService.Query(ctx, args[0], queryLimit)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotReady) {
			return err
		}
		return fmt.Errorf("query failed: %w", err)
	}

	matches := make([]queryMatch, len(occ))
	for i, o := range occ {
		matches[i] = queryMatch{
			Path:         o.Path,
			BlockOffset:  o.BlockOffset,
			Frequency:    o.Frequency,
			DocFrequency: o.DocFrequency,
		}
		if doc, err := indexService.Document(ctx, o.Path); err == nil {
			if b, ok := doc.BlockAt(o.BlockOffset); ok {
				matches[i].Kind = string(b.Kind)
				matches[i].StartLine = b.StartLine
				matches[i].Text = b.Text
			}
		}
	}

	if queryJSON {
		data, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal matches: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(matches) == 0 {
		cmd.Println("No matches found.")
		return nil
	}

	p := newPrinter(cmd.OutOrStdout())
	for i, m := range matches {
		cmd.Printf("  [%d] %s:%d %s\n", i+1, p.path(m.Path), m.StartLine,
			p.muted(fmt.Sprintf("(%s, %d in document)", m.Kind, m.DocFrequency)))
		if m.Text != "" {
			cmd.Printf("      %s\n", snippet(m.Text, 100))
		}
	}
	return nil
}

// snippet returns the first line of text, cut to at most n runes.
func snippet(text string, n int) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
