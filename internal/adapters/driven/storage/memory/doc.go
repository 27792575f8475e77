// Package memory provides in-memory implementations of driven ports.
//
// IndexStore is the live index used by every command. ConfigStore and
// SnapshotStore are lightweight stand-ins for their persistent
// counterparts, used in tests and when persistence is disabled.
package memory
