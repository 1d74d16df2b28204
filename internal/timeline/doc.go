// Package timeline reconstructs a single absolute timeline from a chapter
// sequence containing cross-file segment references.
//
// The walk is modeled as a fold over the chapter entries: an explicit
// reconstruction state is threaded through a pure step function that emits at
// most one part placeholder and one split point per entry, and reports how
// the entry's bounds must be rewritten. A second pass assigns physical files
// to the emitted placeholders once splitting has been realized.
package timeline
