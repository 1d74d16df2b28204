package timeline

import (
	"log/slog"

	"unlinkmkv/internal/chapters"
	"unlinkmkv/internal/logging"
	"unlinkmkv/internal/segments"
	"unlinkmkv/internal/services"
	"unlinkmkv/internal/timecode"
)

// Resolver looks up a normalized segment UID. Self-references must already be
// excluded by the caller's registry.
type Resolver func(uid string) (segments.Entry, bool)

// state carries the reconstruction clock across the chapter walk.
type state struct {
	// offset is the cumulative duration of external content inserted so
	// far; internal chapter bounds shift by this amount.
	offset timecode.Timecode
	// timelineEnd is the rewritten end of the previous chapter, i.e. the
	// running end of the output timeline.
	timelineEnd timecode.Timecode
	// lastInternalEnd is the original-file end time of the most recent
	// internal chapter.
	lastInternalEnd timecode.Timecode
	// lastExternalUID coalesces consecutive references to one segment.
	lastExternalUID string
	// prevInternal marks whether the previous processed entry belonged to
	// the original file.
	prevInternal bool
	// anyExternal records whether the timeline pulls in outside content at
	// all; without it the original file is used whole and unsplit.
	anyExternal bool
}

// entryView is the fold's read-only projection of one chapter atom.
type entryView struct {
	start   timecode.Timecode
	end     timecode.Timecode
	enabled bool
	uid     string // normalized; empty when the atom carries no reference
}

// stepResult describes the mutations and emissions for one chapter entry.
type stepResult struct {
	newStart timecode.Timecode
	newEnd   timecode.Timecode
	split    *timecode.Timecode
	segment  *Segment
}

// step advances the reconstruction state over a single chapter entry. It is
// pure: all mutation of the chapter tree happens in the caller.
func step(st state, entry entryView, resolve Resolver) (state, stepResult, error) {
	var out stepResult

	external := entry.uid != "" && entry.enabled
	if external && entry.uid == st.lastExternalUID {
		// Run continuation: the duplicate marker is dropped, the clock
		// does not advance a second time, and the bounds shift like the
		// surrounding run.
		out.newStart = entry.start.Add(st.offset)
		out.newEnd = entry.end.Add(st.offset)
		st.timelineEnd = out.newEnd
		st.prevInternal = false
		return st, out, nil
	}

	if external {
		resolved, ok := resolve(entry.uid)
		if !ok {
			return st, out, services.Wrap(services.ErrMissingSegment, "timeline", "resolve",
				"uid "+entry.uid, nil)
		}
		if st.prevInternal && !st.lastInternalEnd.IsZero() {
			split := st.lastInternalEnd
			out.split = &split
		}
		st.offset = st.offset.Add(resolved.Duration)
		out.newStart = st.timelineEnd
		out.newEnd = st.timelineEnd.Add(entry.end)
		st.timelineEnd = out.newEnd
		st.lastExternalUID = entry.uid
		st.prevInternal = false
		st.anyExternal = true
		out.segment = &Segment{External: true, UID: entry.uid, File: resolved.File, Start: entry.start}
		return st, out, nil
	}

	// Internal: this range comes from the file currently being processed.
	out.newStart = entry.start.Add(st.offset)
	out.newEnd = entry.end.Add(st.offset)
	st.timelineEnd = out.newEnd
	st.lastInternalEnd = entry.end
	st.lastExternalUID = ""
	st.prevInternal = true
	out.segment = &Segment{Start: entry.start}
	return st, out, nil
}

// Build walks the chapter atoms in order, rewriting their bounds in place and
// collecting the plan of parts and split points. Atoms missing timestamps are
// skipped. The chapter tree is left free of segment UID markers.
func Build(atoms []*chapters.Atom, resolve Resolver, logger *slog.Logger) (*Plan, error) {
	logger = logging.NewComponentLogger(logger, "timeline")

	plan := &Plan{}
	st := state{}
	for _, atom := range atoms {
		start, end, ok := atom.Times()
		if !ok {
			continue
		}
		view := entryView{start: start, end: end, enabled: atom.Enabled()}
		if raw, format, ok := atom.SegmentUID(); ok {
			view.uid = segments.NormalizeUID(raw, format)
		}

		next, result, err := step(st, view, resolve)
		if err != nil {
			return nil, err
		}
		st = next

		atom.SetTimes(result.newStart, result.newEnd)
		atom.RemoveSegmentUID()
		if result.split != nil {
			plan.addSplit(*result.split)
		}
		if result.segment != nil {
			plan.Segments = append(plan.Segments, *result.segment)
		}

		logger.Debug("chapter processed",
			logging.String("kind", kindLabel(result.segment)),
			logging.String("start", result.newStart.String()),
			logging.String("end", result.newEnd.String()),
			logging.String("offset", st.offset.String()))
	}

	// A trailing internal run still needs carving whenever external content
	// was spliced into the timeline; otherwise the whole original file would
	// leak into the output.
	if st.prevInternal && st.anyExternal && !st.lastInternalEnd.IsZero() {
		plan.addSplit(st.lastInternalEnd)
	}

	return plan, nil
}

func kindLabel(seg *Segment) string {
	switch {
	case seg == nil:
		return "continuation"
	case seg.External:
		return "external"
	default:
		return "internal"
	}
}
