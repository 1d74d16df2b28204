package encode

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"unlinkmkv/internal/mkvtool"
)

// Details holds the stream facts the encoding templates can reference.
// Duration is whole seconds, Bitrate is kbit/s, Size is KiB.
type Details struct {
	Duration int64
	Bitrate  int64
	Size     int64
}

// Vars renders the details as template variables.
func (d Details) Vars() map[string]string {
	return map[string]string{
		"var_duration": strconv.FormatInt(d.Duration, 10),
		"var_bitrate":  strconv.FormatInt(d.Bitrate, 10),
		"var_size":     strconv.FormatInt(d.Size, 10),
	}
}

var (
	durationPattern = regexp.MustCompile(`(?i)duration: (\d+):(\d+):(\d+\.\d+)`)
	bitratePattern  = regexp.MustCompile(`(?i)bitrate: (\d+) k`)
)

// ProbeDetails scrapes duration and bitrate from the ffmpeg banner and the
// size from the filesystem. ffmpeg exits nonzero when invoked without an
// output file, so a run error is only reported when the banner was
// unusable too.
func ProbeDetails(ctx context.Context, tools *mkvtool.Tools, file string) (Details, error) {
	info, statErr := os.Stat(file)
	if statErr != nil {
		return Details{}, fmt.Errorf("probe %s: %w", file, statErr)
	}
	details := Details{Size: (info.Size() + 512) / 1024}

	output, runErr := tools.RunFFmpeg(ctx, "-i", file)

	found := false
	if m := durationPattern.FindStringSubmatch(output); m != nil {
		hours, _ := strconv.ParseInt(m[1], 10, 64)
		minutes, _ := strconv.ParseInt(m[2], 10, 64)
		seconds, _ := strconv.ParseFloat(m[3], 64)
		details.Duration = hours*3600 + minutes*60 + int64(seconds+0.5)
		found = true
	}
	if m := bitratePattern.FindStringSubmatch(output); m != nil {
		details.Bitrate, _ = strconv.ParseInt(m[1], 10, 64)
		found = true
	}
	if !found && runErr != nil {
		return Details{}, runErr
	}
	return details, nil
}
