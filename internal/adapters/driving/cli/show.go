package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show a document's metadata and outline",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output metadata as JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	doc, err := indexService.Document(commandContext(cmd), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotReady) {
			return err
		}
		return fmt.Errorf("show failed: %w", err)
	}

	if showJSON {
		data, err := json.MarshalIndent(struct {
			Path        string          `json:"path"`
			Title       string          `json:"title"`
			Checksum    string          `json:"checksum"`
			Blocks      int             `json:"blocks"`
			FrontMatter map[string]any  `json:"front_matter,omitempty"`
			Metadata    domain.Metadata `json:"metadata"`
		}{doc.Path, doc.Title, doc.Checksum, len(doc.Blocks), doc.FrontMatter, doc.Metadata}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	p := newPrinter(cmd.OutOrStdout())
	md := doc.Metadata

	cmd.Println(p.title(doc.Title))
	cmd.Printf("  Path:       %s\n", p.path(doc.Path))
	cmd.Printf("  Blocks:     %d\n", len(doc.Blocks))
	cmd.Printf("  Words:      %d\n", md.WordCount)
	cmd.Printf("  Links:      %d\n", md.Links)
	cmd.Printf("  Code:       %d block(s)", md.CodeBlocks)
	if len(md.CodeLanguages) > 0 {
		cmd.Printf(" [%s]", strings.Join(md.CodeLanguages, ", "))
	}
	cmd.Println()
	cmd.Println(p.muted("  Checksum:   " + doc.Checksum))

	if len(doc.FrontMatter) > 0 {
		keys := make([]string, 0, len(doc.FrontMatter))
		for k := range doc.FrontMatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Println()
		cmd.Println(p.title("Front matter"))
		for _, k := range keys {
			cmd.Printf("  %s: %v\n", k, doc.FrontMatter[k])
		}
	}

	if len(md.Outline) > 0 {
		cmd.Println()
		cmd.Println(p.title("Outline"))
		for _, h := range md.Outline {
			cmd.Printf("  %s%s\n", strings.Repeat("  ", h.Level-1), h.Text)
		}
	}
	return nil
}
