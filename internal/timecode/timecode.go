package timecode

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timecode is a non-negative instant or duration with nanosecond resolution.
// The zero value is 00:00:00.000000000.
type Timecode int64

// Zero is the origin timecode.
const Zero Timecode = 0

const (
	nanosPerSecond = int64(time.Second)
	nanosPerMinute = 60 * nanosPerSecond
	nanosPerHour   = 60 * nanosPerMinute
)

// Parse converts a HH:MM:SS or HH:MM:SS.fraction string into a Timecode.
// The fractional part accepts up to nine digits; shorter fractions are
// right-padded with zeros. Hours may exceed two digits.
func Parse(value string) (Timecode, error) {
	trimmed := strings.TrimSpace(value)
	fields := strings.Split(trimmed, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("timecode %q: expected HH:MM:SS.nnnnnnnnn", value)
	}

	hours, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("timecode %q: invalid hours field", value)
	}
	minutes, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("timecode %q: invalid minutes field", value)
	}

	secondsField := fields[2]
	fraction := ""
	if dot := strings.IndexByte(secondsField, '.'); dot >= 0 {
		fraction = secondsField[dot+1:]
		secondsField = secondsField[:dot]
	}
	seconds, err := strconv.ParseInt(secondsField, 10, 64)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("timecode %q: invalid seconds field", value)
	}

	var nanos int64
	if fraction != "" {
		if len(fraction) > 9 {
			return 0, fmt.Errorf("timecode %q: fraction exceeds nanosecond precision", value)
		}
		padded := fraction + strings.Repeat("0", 9-len(fraction))
		nanos, err = strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timecode %q: invalid fraction", value)
		}
	}

	return Timecode(hours*nanosPerHour + minutes*nanosPerMinute + seconds*nanosPerSecond + nanos), nil
}

// MustParse is Parse for trusted literals; it panics on malformed input.
func MustParse(value string) Timecode {
	tc, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return tc
}

// FromNanoseconds converts a raw nanosecond count (as reported by container
// probes) into a Timecode. Negative inputs clamp to zero.
func FromNanoseconds(ns int64) Timecode {
	if ns < 0 {
		return 0
	}
	return Timecode(ns)
}

// Add returns the exact sum of two timecodes. Integer representation makes
// the seconds/minutes carry implicit; hours grow without bound.
func (t Timecode) Add(other Timecode) Timecode {
	return t + other
}

// IsZero reports whether the timecode is exactly 00:00:00.000000000.
func (t Timecode) IsZero() bool { return t == 0 }

// Nanoseconds returns the raw nanosecond count.
func (t Timecode) Nanoseconds() int64 { return int64(t) }

// String renders the canonical HH:MM:SS.nnnnnnnnn form. The rendering is
// exact and reversible through Parse for every representable value.
func (t Timecode) String() string {
	ns := int64(t)
	if ns < 0 {
		ns = 0
	}
	hours := ns / nanosPerHour
	ns %= nanosPerHour
	minutes := ns / nanosPerMinute
	ns %= nanosPerMinute
	seconds := ns / nanosPerSecond
	ns %= nanosPerSecond
	return fmt.Sprintf("%02d:%02d:%02d.%09d", hours, minutes, seconds, ns)
}
