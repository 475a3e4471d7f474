// Package main hosts the Songbook CLI entrypoint and command graph.
//
// The Cobra-based command tree manages the song catalog (add, update,
// remove, list, search), folder imports, exports, backups, document
// streaming, and thumbnail inspection. It centralizes configuration
// resolution and engine lifecycle so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands
// or flags here.
package main
