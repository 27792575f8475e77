package domain

import "time"

// BlockKind identifies the variant of a Block.
type BlockKind string

// Block variants.
const (
	// BlockHeading is an ATX heading (# through ######).
	BlockHeading BlockKind = "heading"

	// BlockParagraph is a run of plain text lines.
	BlockParagraph BlockKind = "paragraph"

	// BlockCode is a fenced code block.
	BlockCode BlockKind = "code"

	// BlockListItem is a single bulleted or numbered item.
	BlockListItem BlockKind = "list_item"

	// BlockFrontMatter is a leading YAML or TOML metadata section.
	BlockFrontMatter BlockKind = "front_matter"
)

// IsValid returns true if the kind is recognised.
func (k BlockKind) IsValid() bool {
	switch k {
	case BlockHeading, BlockParagraph, BlockCode, BlockListItem, BlockFrontMatter:
		return true
	default:
		return false
	}
}

// IsProse returns true for blocks whose text counts towards word totals.
func (k BlockKind) IsProse() bool {
	return k == BlockParagraph || k == BlockListItem
}

// String returns the string representation.
func (k BlockKind) String() string {
	return string(k)
}

// Block is a typed contiguous unit of a Document.
// Only the fields relevant to Kind are populated: Level for headings,
// Language for code blocks.
type Block struct {
	// Kind is the block variant.
	Kind BlockKind

	// Level is the heading level (1-6). Zero for other kinds.
	Level int

	// Language is the fence info string of a code block, if any.
	Language string

	// Text is the block content with Markdown markers removed.
	Text string

	// Raw is the exact source span the block was parsed from.
	Raw string

	// StartLine is the 1-based first source line of the block.
	StartLine int

	// EndLine is the 1-based last source line of the block.
	EndLine int
}

// Document is one parsed source file.
// It is immutable after parsing.
type Document struct {
	// Path is the slash-separated path relative to the corpus root.
	// It uniquely identifies the document.
	Path string

	// Raw is the original file text.
	Raw string

	// Title is the front matter title, the first level-1 heading,
	// or a humanised file name, in that order of preference.
	Title string

	// Blocks is the ordered block sequence in source order.
	Blocks []Block

	// FrontMatter holds decoded front matter fields, if present.
	FrontMatter map[string]any

	// Metadata is the extracted summary record.
	Metadata Metadata

	// Checksum is the hex sha256 of the raw bytes.
	Checksum string

	// ModifiedAt is the source file modification time.
	ModifiedAt time.Time
}

// BlockAt returns the block at offset, or false if out of range.
func (d *Document) BlockAt(offset int) (Block, bool) {
	if offset < 0 || offset >= len(d.Blocks) {
		return Block{}, false
	}
	return d.Blocks[offset], true
}

// RawDocument is a file read from the corpus before parsing.
type RawDocument struct {
	// Path is the slash-separated path relative to the corpus root.
	Path string

	// Content is the unparsed file content.
	Content []byte

	// ModifiedAt is the file modification time.
	ModifiedAt time.Time
}

// HeadingRef is one entry of a document outline.
type HeadingRef struct {
	// Level is the heading level (1-6).
	Level int

	// Text is the heading text.
	Text string

	// Parents holds the texts of the enclosing open headings, outermost first.
	Parents []string
}

// Metadata is the per-document summary record.
type Metadata struct {
	Title         string
	Outline       []HeadingRef
	CodeLanguages []string
	WordCount     int
	CodeBlocks    int
	Links         int
}
