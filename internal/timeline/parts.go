package timeline

import (
	"fmt"
	"time"

	"unlinkmkv/internal/timecode"
)

// Segment is a part placeholder emitted by the chapter walk, in chapter
// order. External segments carry their resolved source file; internal
// segments are realized against the original file or its split slices during
// assignment.
type Segment struct {
	External bool
	UID      string
	File     string
	Start    timecode.Timecode // original chapter start, pre-rewrite
}

// Plan is the timeline builder's output: part placeholders plus the ordered
// list of points at which the original file must be physically divided.
type Plan struct {
	Segments    []Segment
	SplitPoints []timecode.Timecode
}

// addSplit records a split point, keeping the list strictly increasing and
// free of duplicates.
func (p *Plan) addSplit(tc timecode.Timecode) {
	if tc.IsZero() {
		return
	}
	if n := len(p.SplitPoints); n > 0 && tc <= p.SplitPoints[n-1] {
		return
	}
	p.SplitPoints = append(p.SplitPoints, tc)
}

// NeedsSplit reports whether the original file must be divided at all.
func (p *Plan) NeedsSplit() bool {
	return len(p.SplitPoints) > 0
}

// InternalRunCount returns the number of coalesced internal runs.
func (p *Plan) InternalRunCount() int {
	runs := 0
	prevInternal := false
	for _, seg := range p.Segments {
		if !seg.External {
			if !prevInternal {
				runs++
			}
			prevInternal = true
			continue
		}
		prevInternal = false
	}
	return runs
}

// ExternalFiles returns the distinct resolved files in emission order.
func (p *Plan) ExternalFiles() []string {
	seen := map[string]struct{}{}
	var files []string
	for _, seg := range p.Segments {
		if !seg.External {
			continue
		}
		if _, ok := seen[seg.File]; ok {
			continue
		}
		seen[seg.File] = struct{}{}
		files = append(files, seg.File)
	}
	return files
}

// externalPartThreshold qualifies an external chapter as an emittable part:
// unless overridden by policy, only chapters starting within the first second
// of their source segment contribute a part.
const externalPartThreshold = timecode.Timecode(time.Second)

// AssignParts maps the plan's placeholders to physical files in emission
// order. splitSlices are the numbered files produced by realizing
// SplitPoints; they must cover every internal run when splitting occurred.
// With no splits, all internal content is contiguous and the original file is
// used directly. Consecutive internal placeholders coalesce into one part.
func (p *Plan) AssignParts(originalFile string, splitSlices []string, ignoreSegmentStart bool) ([]string, error) {
	var parts []string
	prevInternal := false
	run := 0
	for _, seg := range p.Segments {
		if seg.External {
			prevInternal = false
			if !ignoreSegmentStart && seg.Start >= externalPartThreshold {
				continue
			}
			parts = append(parts, seg.File)
			continue
		}
		if prevInternal {
			continue
		}
		prevInternal = true
		run++
		if len(splitSlices) == 0 {
			parts = append(parts, originalFile)
			continue
		}
		if run > len(splitSlices) {
			return nil, fmt.Errorf("internal run %d has no split slice (%d produced)", run, len(splitSlices))
		}
		parts = append(parts, splitSlices[run-1])
	}
	return parts, nil
}
