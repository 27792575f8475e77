// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and adapters implement them.
//
// # Required Interfaces
//
//   - CorpusSource: Enumerates and reads Markdown files from a root directory
//   - Parser: Turns raw text into an ordered Block sequence
//   - MetadataExtractor: Summarises a parsed Document
//   - TermNormaliser: Produces index Terms from text
//   - Resolver: Infers CrossReferences between Documents
//   - IndexStore: Atomically published term and reference index
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SnapshotStore: Persists the index between runs. Without it every
//     process must build before it can query.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or parser package
package driven
