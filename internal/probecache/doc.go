// Package probecache persists segment probe results keyed by file identity.
// Probing every candidate file with mkvmerge dominates startup time for
// large directories; the cache skips the probe when a file's size and
// modification time are unchanged.
package probecache
