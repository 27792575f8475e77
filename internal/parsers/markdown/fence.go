package markdown

import "strings"

// fenceMarker is the opening run of a fenced code block.
type fenceMarker struct {
	char   byte
	length int
}

// openFence recognises ``` or ~~~ (three or more) with an optional info string.
// The first word of the info string is the block language.
func openFence(line string) (fenceMarker, string, bool) {
	trimmed, ok := stripIndent(line)
	if !ok || len(trimmed) < 3 {
		return fenceMarker{}, "", false
	}

	c := trimmed[0]
	if c != '`' && c != '~' {
		return fenceMarker{}, "", false
	}

	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return fenceMarker{}, "", false
	}

	info := strings.TrimSpace(trimmed[n:])
	if c == '`' && strings.Contains(info, "`") {
		// Inline code such as ```x``` is not a fence.
		return fenceMarker{}, "", false
	}

	lang := ""
	if fields := strings.Fields(info); len(fields) > 0 {
		lang = strings.ToLower(strings.Trim(fields[0], "{}."))
	}

	return fenceMarker{char: c, length: n}, lang, true
}

// closes reports whether line closes a block opened by f: the same
// character repeated at least as many times, and nothing else.
func (f fenceMarker) closes(line string) bool {
	trimmed, ok := stripIndent(line)
	if !ok {
		return false
	}
	trimmed = strings.TrimRight(trimmed, " \t")
	if len(trimmed) < f.length {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != f.char {
			return false
		}
	}
	return true
}
