// Package encode drives the optional ffmpeg passes: converting FLAC audio
// to ALAC so containers can be split, and re-encoding rebuilt parts with
// user-supplied video and audio templates.
package encode
