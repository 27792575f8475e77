// Package connectors holds the corpus sources documents are read from.
//
// The filesystem connector is the only source: it loads a directory tree of
// Markdown files and reports changes to it for watch mode.
package connectors
