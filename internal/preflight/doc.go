// Package preflight verifies the environment before a run starts:
// directory access, scratch space headroom, and external binaries.
package preflight
