// Package file provides filesystem-backed implementations of driven ports.
//
// Adapters:
//   - ConfigStore: user settings in a TOML file
package file
