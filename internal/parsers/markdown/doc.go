// Package markdown implements the document parser.
//
// The parser is tolerant: hand-written prose is never rejected. Anything
// that is not a heading, fence or list marker becomes paragraph text, and
// a code fence left open at end of file is closed there. The only failure
// is content that is not valid UTF-8, reported as *domain.EncodingError.
//
// Each Block keeps its exact source span in Raw, so joining the spans of
// all blocks in order reproduces the document modulo blank lines.
package markdown
