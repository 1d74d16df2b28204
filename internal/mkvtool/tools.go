package mkvtool

import (
	"log/slog"

	"unlinkmkv/internal/logging"
)

// Binaries names the external executables the pipeline schedules.
type Binaries struct {
	Merge    string
	Extract  string
	Info     string
	PropEdit string
	FFmpeg   string
}

// DefaultBinaries returns the conventional PATH names.
func DefaultBinaries() Binaries {
	return Binaries{
		Merge:    "mkvmerge",
		Extract:  "mkvextract",
		Info:     "mkvinfo",
		PropEdit: "mkvpropedit",
		FFmpeg:   "ffmpeg",
	}
}

// Tools is the collaborator bundle handed to the pipeline.
type Tools struct {
	bins   Binaries
	locale string
	runner CommandRunner
	logger *slog.Logger
}

// New constructs the collaborator bundle. Empty binary names fall back to
// their PATH defaults.
func New(bins Binaries, locale string, logger *slog.Logger) *Tools {
	defaults := DefaultBinaries()
	if bins.Merge == "" {
		bins.Merge = defaults.Merge
	}
	if bins.Extract == "" {
		bins.Extract = defaults.Extract
	}
	if bins.Info == "" {
		bins.Info = defaults.Info
	}
	if bins.PropEdit == "" {
		bins.PropEdit = defaults.PropEdit
	}
	if bins.FFmpeg == "" {
		bins.FFmpeg = defaults.FFmpeg
	}
	if locale == "" {
		locale = "en_US"
	}
	return &Tools{
		bins:   bins,
		locale: locale,
		runner: defaultCommandRunner,
		logger: logging.NewComponentLogger(logger, "mkvtool"),
	}
}

// WithCommandRunner injects a custom command runner for tests.
func (t *Tools) WithCommandRunner(r CommandRunner) *Tools {
	if r != nil {
		t.runner = r
	}
	return t
}

// Binaries exposes the resolved executable names, e.g. for preflight checks.
func (t *Tools) Binaries() Binaries { return t.bins }

func (t *Tools) uiLanguage() []string {
	return []string{"--ui-language", t.locale}
}
