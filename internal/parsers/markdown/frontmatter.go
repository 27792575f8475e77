package markdown

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/custodia-labs/mdindex/internal/core/domain"
)

// parseFrontMatter detects a leading "---" (YAML) or "+++" (TOML) section.
// It returns the decoded fields, the FrontMatter block and the index of the
// first line after the section. Sections that fail to decode are left to
// the regular scan as plain text.
func parseFrontMatter(lines []string) (map[string]any, domain.Block, int, bool) {
	if len(lines) < 2 {
		return nil, domain.Block{}, 0, false
	}

	delim := strings.TrimRight(lines[0], " \t")
	if delim != "---" && delim != "+++" {
		return nil, domain.Block{}, 0, false
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == delim {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, domain.Block{}, 0, false
	}

	section := strings.Join(lines[:end+1], "\n")

	var meta map[string]any
	if _, err := frontmatter.Parse(strings.NewReader(section+"\n"), &meta); err != nil || meta == nil {
		return nil, domain.Block{}, 0, false
	}

	block := domain.Block{
		Kind:      domain.BlockFrontMatter,
		Text:      strings.Join(lines[1:end], "\n"),
		Raw:       section,
		StartLine: 1,
		EndLine:   end + 1,
	}

	return cleanMap(meta), block, end + 1, true
}

// cleanMap converts YAML's map[interface{}]interface{} values into
// map[string]any so front matter can be serialised as JSON.
func cleanMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cleanValue(v)
	}
	return out
}

func cleanValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cleanMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = cleanValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cleanValue(item)
		}
		return out
	default:
		return v
	}
}
