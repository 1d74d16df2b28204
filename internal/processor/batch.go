package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"unlinkmkv/internal/logging"
)

// ExpandInputs resolves the command line arguments into an ordered list of
// candidate files. Directories contribute their .mkv files, non-recursive;
// directory-derived files for which skip returns true are left out, while
// explicitly named files always make the list. skip may be nil.
func ExpandInputs(paths []string, skip func(string) bool) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			add(abs)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(abs, "*.mkv"))
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			if skip != nil && skip(match) {
				continue
			}
			add(match)
		}
	}
	return files, nil
}

// SkipExistingOutputs returns a skip func for ExpandInputs that drops files
// whose rebuilt output already exists.
func (p *Processor) SkipExistingOutputs() func(string) bool {
	return func(file string) bool {
		_, err := os.Stat(p.OutputPath(file))
		return err == nil
	}
}

// ProcessAll runs the pipeline over every file, isolating failures so one
// broken file never stops the batch. Results come back in input order.
func (p *Processor) ProcessAll(ctx context.Context, files []string) []Result {
	results := make([]Result, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{File: file, Status: "canceled", Err: err})
			continue
		}
		result := p.ProcessFile(ctx, file)
		if result.Err != nil {
			p.logger.Error("file failed",
				logging.String(logging.FieldInput, filepath.Base(file)),
				logging.String("status", result.Status),
				logging.Error(result.Err),
				logging.String(logging.FieldEventType, "file_failed"))
		}
		results = append(results, result)
	}
	return results
}

// Summarize renders a one-line outcome per result, for the log tail.
func Summarize(results []Result) string {
	var b strings.Builder
	rebuilt, skipped, failed := 0, 0, 0
	for _, result := range results {
		switch {
		case result.Err != nil:
			failed++
		case !result.Linked:
			skipped++
		default:
			rebuilt++
		}
	}
	fmt.Fprintf(&b, "%d rebuilt, %d not linked, %d failed of %d files",
		rebuilt, skipped, failed, len(results))
	return b.String()
}
