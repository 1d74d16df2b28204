// Package workspace manages the scratch area where linked files are taken
// apart and rebuilt. One workspace holds a lock file plus one run directory
// per processed file, each with fixed subdirectories for attachments,
// split parts, encodes and subtitle scripts.
package workspace
