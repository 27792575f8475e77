// Package driving defines what the CLI and the MCP server may ask of the
// core: building, querying and configuring the index. These are the
// "driving" ports of the hexagon.
//
// internal/core/services implements them.
package driving
