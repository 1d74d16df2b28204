// Package mkvtool wraps the external mkvtoolnix and ffmpeg binaries behind
// narrow, injectable collaborators.
//
// Every call shells out synchronously; a non-zero exit is wrapped as an
// external tool failure carrying the full command line and captured output.
// The command runner is injectable so the pipeline and its tests never
// require the real binaries.
package mkvtool
