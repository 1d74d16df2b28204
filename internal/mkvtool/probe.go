package mkvtool

import (
	"context"
	"encoding/json"
	"fmt"

	"unlinkmkv/internal/timecode"
)

// SegmentInfo is a container's own identity as reported by mkvmerge.
type SegmentInfo struct {
	UID      string
	Duration timecode.Timecode
}

type identifyPayload struct {
	Container struct {
		Properties struct {
			SegmentUID string `json:"segment_uid"`
			Duration   int64  `json:"duration"`
		} `json:"properties"`
	} `json:"container"`
}

// Identify probes a container for its segment UID and duration using the
// mkvmerge JSON identification output.
func (t *Tools) Identify(ctx context.Context, file string) (SegmentInfo, error) {
	output, err := t.run(ctx, t.bins.Merge, "-F", "json", "--identify", file)
	if err != nil {
		return SegmentInfo{}, err
	}

	var payload identifyPayload
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return SegmentInfo{}, fmt.Errorf("identify %s: parse mkvmerge json: %w", file, err)
	}
	return SegmentInfo{
		UID:      payload.Container.Properties.SegmentUID,
		Duration: timecode.FromNanoseconds(payload.Container.Properties.Duration),
	}, nil
}
