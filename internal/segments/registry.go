package segments

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"unlinkmkv/internal/chapters"
	"unlinkmkv/internal/logging"
	"unlinkmkv/internal/timecode"
)

// Entry describes one resolvable segment source.
type Entry struct {
	UID      string
	File     string
	Duration timecode.Timecode
}

// ProbeFunc extracts a container's own segment UID and duration. Implemented
// by the mkvtool collaborator; injected here so registry construction stays
// testable without external binaries.
type ProbeFunc func(ctx context.Context, file string) (uid string, duration timecode.Timecode, err error)

// Registry maps normalized segment UIDs to candidate files. Immutable after
// construction.
type Registry struct {
	entries map[string]Entry
}

// Build scans every .mkv file in dir, probing each for identity. Files the
// probe rejects are skipped with a warning; a duplicate UID aborts the build.
func Build(ctx context.Context, dir string, probe ProbeFunc, logger *slog.Logger) (*Registry, error) {
	logger = logging.NewComponentLogger(logger, "segments")

	matches, err := filepath.Glob(filepath.Join(dir, "*.mkv"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(matches)

	entries := make(map[string]Entry, len(matches))
	for _, file := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		uid, duration, err := probe(ctx, file)
		if err != nil {
			logger.Warn("skipping unprobeable file",
				logging.String("file", file),
				logging.Error(err),
				logging.String(logging.FieldEventType, "segment_probe_failed"))
			continue
		}
		key := NormalizeUID(uid, chapters.UIDHex)
		if key == "" {
			logger.Warn("file reports no segment uid", logging.String("file", file))
			continue
		}
		if existing, ok := entries[key]; ok {
			return nil, fmt.Errorf("duplicate segment uid %s: %s and %s", key, existing.File, file)
		}
		entries[key] = Entry{UID: key, File: file, Duration: duration}
		logger.Debug("registered segment",
			logging.String("uid", key),
			logging.String("file", file),
			logging.String("duration", duration.String()))
	}

	return &Registry{entries: entries}, nil
}

// Resolve looks up a normalized UID.
func (r *Registry) Resolve(uid string) (Entry, bool) {
	entry, ok := r.entries[uid]
	return entry, ok
}

// ResolveFor looks up a UID on behalf of currentFile. A chapter referencing
// the file's own UID must not resolve to itself.
func (r *Registry) ResolveFor(uid, currentFile string) (Entry, bool) {
	entry, ok := r.entries[uid]
	if !ok {
		return Entry{}, false
	}
	if sameFile(entry.File, currentFile) {
		return Entry{}, false
	}
	return entry, true
}

// Len returns the number of registered segments.
func (r *Registry) Len() int {
	return len(r.entries)
}

// NormalizeUID converts a raw chapter UID into the registry key form:
// hex UIDs lose all whitespace and fold to lower case, ascii UIDs are
// rewritten as the hex encoding of their bytes.
func NormalizeUID(raw string, format chapters.UIDFormat) string {
	if format == chapters.UIDASCII {
		trimmed := strings.TrimSpace(raw)
		var b strings.Builder
		b.Grow(len(trimmed) * 2)
		for i := 0; i < len(trimmed); i++ {
			fmt.Fprintf(&b, "%02x", trimmed[i])
		}
		return b.String()
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, raw)
	return strings.ToLower(cleaned)
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	return filepath.Base(a) == filepath.Base(b)
}
