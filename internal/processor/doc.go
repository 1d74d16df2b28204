// Package processor runs the rebuild pipeline: detect segment linking,
// flatten the chapter tree, split the source, collect the referenced
// segments, fix subtitle styles, optionally re-encode, and append
// everything into a single self-contained file.
//
// Each input file is processed inside its own error boundary; a failure
// records a per-file result and the batch moves on.
package processor
