package preflight

import (
	"unlinkmkv/internal/config"
	"unlinkmkv/internal/deps"
	"unlinkmkv/internal/mkvtool"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
	if cfg.Paths.OutDir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutDir))
	}

	bins := mkvtool.Binaries{
		Merge:    cfg.Tools.Merge,
		Extract:  cfg.Tools.Extract,
		Info:     cfg.Tools.Info,
		PropEdit: cfg.Tools.PropEdit,
		FFmpeg:   cfg.Tools.FFmpeg,
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(bins)) {
		result := Result{Name: status.Name, Passed: status.Available}
		switch {
		case status.Available:
			result.Detail = status.Command
		case status.Optional:
			result.Passed = true
			result.Detail = status.Detail + " (optional)"
		default:
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
