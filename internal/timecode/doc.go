// Package timecode implements exact arithmetic over Matroska chapter
// timestamps of the form HH:MM:SS.nnnnnnnnn.
//
// Values are stored as integer nanosecond counts so addition carries exactly
// across the seconds and minutes fields without floating-point rounding.
// Hours are unbounded.
package timecode
