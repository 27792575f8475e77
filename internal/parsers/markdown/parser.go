package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser turns Markdown text into an ordered Block sequence.
// It never rejects prose: the only failure is invalid UTF-8.
type Parser struct{}

// New creates a new Markdown parser.
func New() *Parser {
	return &Parser{}
}

// Parse converts raw Markdown into a Document.
// Blocks are produced by a single forward scan over lines:
// ATX headings, fenced code blocks, list items and blank-line separated
// paragraphs. An unterminated fence closes at end of file.
func (p *Parser) Parse(path string, raw []byte) (*domain.Document, error) {
	if offset := invalidUTF8Offset(raw); offset >= 0 {
		return nil, &domain.EncodingError{Path: path, Offset: offset}
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	s := &scanner{lines: lines}

	var frontMatter map[string]any
	if fm, block, next, ok := parseFrontMatter(lines); ok {
		frontMatter = fm
		s.blocks = append(s.blocks, block)
		s.pos = next
	}

	s.scan()

	sum := sha256.Sum256(raw)
	doc := &domain.Document{
		Path:        path,
		Raw:         string(raw),
		Blocks:      s.blocks,
		FrontMatter: frontMatter,
		Checksum:    hex.EncodeToString(sum[:]),
	}
	doc.Title = documentTitle(doc)

	return doc, nil
}

// scanner holds the state of one forward pass.
type scanner struct {
	lines  []string
	pos    int
	blocks []domain.Block

	// open paragraph or list item
	openKind  domain.BlockKind
	openLines []string
	openStart int
	openText  []string
}

func (s *scanner) scan() {
	for s.pos < len(s.lines) {
		line := s.lines[s.pos]

		if fence, lang, ok := openFence(line); ok {
			s.flush()
			s.scanCode(fence, lang)
			continue
		}

		if strings.TrimSpace(line) == "" {
			s.flush()
			s.pos++
			continue
		}

		if level, text, ok := heading(line); ok {
			s.flush()
			s.blocks = append(s.blocks, domain.Block{
				Kind:      domain.BlockHeading,
				Level:     level,
				Text:      text,
				Raw:       line,
				StartLine: s.pos + 1,
				EndLine:   s.pos + 1,
			})
			s.pos++
			continue
		}

		if text, ok := listItem(line); ok {
			s.flush()
			s.open(domain.BlockListItem, line, text)
			s.pos++
			continue
		}

		if s.openKind == "" {
			s.open(domain.BlockParagraph, line, strings.TrimSpace(line))
		} else {
			// Continuation of the open paragraph or list item.
			s.openLines = append(s.openLines, line)
			s.openText = append(s.openText, strings.TrimSpace(line))
		}
		s.pos++
	}
	s.flush()
}

// scanCode consumes a fenced code block starting at s.pos.
func (s *scanner) scanCode(fence fenceMarker, lang string) {
	start := s.pos
	end := len(s.lines) - 1
	closed := false

	for j := start + 1; j < len(s.lines); j++ {
		if fence.closes(s.lines[j]) {
			end = j
			closed = true
			break
		}
	}

	bodyEnd := end
	if closed {
		bodyEnd = end - 1
	} else {
		// Unterminated: close at EOF, ignoring trailing blank lines.
		for end > start && strings.TrimSpace(s.lines[end]) == "" {
			end--
		}
		bodyEnd = end
	}

	var body []string
	if bodyEnd > start {
		body = s.lines[start+1 : bodyEnd+1]
	}

	s.blocks = append(s.blocks, domain.Block{
		Kind:      domain.BlockCode,
		Language:  lang,
		Text:      strings.Join(body, "\n"),
		Raw:       strings.Join(s.lines[start:end+1], "\n"),
		StartLine: start + 1,
		EndLine:   end + 1,
	})

	if closed {
		s.pos = end + 1
	} else {
		s.pos = len(s.lines)
	}
}

func (s *scanner) open(kind domain.BlockKind, line, text string) {
	s.openKind = kind
	s.openLines = []string{line}
	s.openText = []string{text}
	s.openStart = s.pos
}

func (s *scanner) flush() {
	if s.openKind == "" {
		return
	}
	s.blocks = append(s.blocks, domain.Block{
		Kind:      s.openKind,
		Text:      strings.Join(s.openText, "\n"),
		Raw:       strings.Join(s.openLines, "\n"),
		StartLine: s.openStart + 1,
		EndLine:   s.openStart + len(s.openLines),
	})
	s.openKind = ""
	s.openLines = nil
	s.openText = nil
}

// heading recognises "# Title" through "###### Title".
func heading(line string) (int, string, bool) {
	trimmed, ok := stripIndent(line)
	if !ok {
		return 0, "", false
	}

	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}

	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}

	text := strings.TrimSpace(rest)
	// Optional closing sequence: "## Title ##".
	if i := strings.LastIndex(text, " #"); i >= 0 && strings.Trim(text[i+1:], "#") == "" {
		text = strings.TrimSpace(text[:i])
	} else if strings.Trim(text, "#") == "" {
		text = ""
	}

	return level, text, true
}

// listItem recognises "-", "*", "+" bullets and "1." / "1)" numbering.
func listItem(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return "", false
	}

	switch trimmed[0] {
	case '-', '*', '+':
		if len(trimmed) > 1 && (trimmed[1] == ' ' || trimmed[1] == '\t') {
			return strings.TrimSpace(trimmed[2:]), true
		}
		return "", false
	}

	digits := 0
	for digits < len(trimmed) && digits < 9 && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits+1 >= len(trimmed) {
		return "", false
	}
	if trimmed[digits] != '.' && trimmed[digits] != ')' {
		return "", false
	}
	if trimmed[digits+1] != ' ' && trimmed[digits+1] != '\t' {
		return "", false
	}
	return strings.TrimSpace(trimmed[digits+2:]), true
}

// stripIndent removes up to three leading spaces.
// Four or more spaces is not a block marker.
func stripIndent(line string) (string, bool) {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	if n > 3 {
		return "", false
	}
	return line[n:], true
}

// invalidUTF8Offset returns the byte offset of the first invalid sequence, or -1.
func invalidUTF8Offset(raw []byte) int {
	if utf8.Valid(raw) {
		return -1
	}
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// documentTitle prefers front matter, then the first H1, then the file name.
func documentTitle(doc *domain.Document) string {
	if title, ok := doc.FrontMatter["title"].(string); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}

	for _, b := range doc.Blocks {
		if b.Kind == domain.BlockHeading && b.Level == 1 && b.Text != "" {
			return b.Text
		}
	}

	filename := filepath.Base(doc.Path)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
