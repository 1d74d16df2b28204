// Package logging configures slog output for the CLI and processing
// pipeline.
//
// It exposes attribute helper aliases, component loggers, and two handler
// flavors: a human-oriented console handler and machine-readable JSON. The
// console format prints a header line followed by indented fields so the
// per-file pipeline stages remain scannable in a terminal.
package logging
