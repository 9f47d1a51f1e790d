// Package engine is the composition root that assembles backends, chains
// and parallel groups from configuration. Frontends (the CLI, the MCP
// server) look components up by name and never construct providers
// directly.
package engine
