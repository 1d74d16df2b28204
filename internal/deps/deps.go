// Package deps checks the external binaries the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"unlinkmkv/internal/mkvtool"
)

// Requirement defines one external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the toolchain for the given binary set. ffmpeg is
// optional; it is only needed for FLAC conversion and re-encode passes.
func Requirements(bins mkvtool.Binaries) []Requirement {
	return []Requirement{
		{Name: "mkvmerge", Command: bins.Merge, Description: "probes, splits and rebuilds containers"},
		{Name: "mkvextract", Command: bins.Extract, Description: "extracts chapters, tracks and attachments"},
		{Name: "mkvinfo", Command: bins.Info, Description: "reads container metadata"},
		{Name: "mkvpropedit", Command: bins.PropEdit, Description: "restores title and track metadata"},
		{Name: "ffmpeg", Command: bins.FFmpeg, Description: "FLAC conversion and re-encode passes", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional binaries.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
