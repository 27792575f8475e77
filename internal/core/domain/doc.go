// Package domain defines the core entities of the Markdown indexer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A parsed Markdown file and its ordered Blocks
//   - Block: A typed unit of a Document (heading, paragraph, code, list item)
//   - Metadata: The summary record extracted from a Document
//   - Occurrence: Where a Term appears (document path and block offset)
//   - CrossReference: A directed, weighted relation between two Documents
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
