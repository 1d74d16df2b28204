package mkvtool

import (
	"context"
	"fmt"
	"strings"

	"unlinkmkv/internal/timecode"
)

// ExtractChapters dumps a file's chapter XML.
func (t *Tools) ExtractChapters(ctx context.Context, file string) (string, error) {
	args := append(t.uiLanguage(), "chapters", file)
	return t.run(ctx, t.bins.Extract, args...)
}

// Split divides source at the given timecodes, writing numbered slices to
// outPattern (a printf-style %03d pattern).
func (t *Tools) Split(ctx context.Context, source string, points []timecode.Timecode, outPattern string) error {
	if len(points) == 0 {
		return fmt.Errorf("split %s: no split points", source)
	}
	rendered := make([]string, 0, len(points))
	for _, p := range points {
		rendered = append(rendered, p.String())
	}
	args := append(t.uiLanguage(),
		"--no-chapters", "-o", outPattern, source,
		"--split", "timecodes:"+strings.Join(rendered, ","))
	_, err := t.run(ctx, t.bins.Merge, args...)
	return err
}

// ExtractTracks pulls the given track IDs into their destination paths.
func (t *Tools) ExtractTracks(ctx context.Context, file string, tracks map[int]string) error {
	if len(tracks) == 0 {
		return nil
	}
	args := append(t.uiLanguage(), "tracks", file)
	for id, dest := range tracks {
		args = append(args, fmt.Sprintf("%d:%s", id, dest))
	}
	_, err := t.run(ctx, t.bins.Extract, args...)
	return err
}

// ExtractAttachments pulls the given attachment IDs into destination paths.
func (t *Tools) ExtractAttachments(ctx context.Context, file string, attachments map[int]string) error {
	if len(attachments) == 0 {
		return nil
	}
	args := append(t.uiLanguage(), "attachments", file)
	for id, dest := range attachments {
		args = append(args, fmt.Sprintf("%d:%s", id, dest))
	}
	_, err := t.run(ctx, t.bins.Extract, args...)
	return err
}

// attachmentArgs renders --attach-file pairs for collected font files.
func attachmentArgs(attachments []string) []string {
	args := make([]string, 0, len(attachments)*4)
	for _, path := range attachments {
		args = append(args,
			"--attachment-mime-type", "application/x-truetype-font",
			"--attach-file", path)
	}
	return args
}

// RemuxWithSubtitles rebuilds one part, replacing its subtitle tracks with
// the rewritten script files and attaching the shared fonts.
func (t *Tools) RemuxWithSubtitles(ctx context.Context, output, source string, subs, attachments []string) error {
	args := append(t.uiLanguage(), "-o", output, "--no-chapters", "--no-subtitles", source)
	args = append(args, subs...)
	args = append(args, attachmentArgs(attachments)...)
	_, err := t.run(ctx, t.bins.Merge, args...)
	return err
}

// AppendParts concatenates the ordered parts into output using mkvmerge
// append syntax, optionally installing the flattened chapter file. Source
// attachments are dropped (they were collected separately).
func (t *Tools) AppendParts(ctx context.Context, output string, parts []string, chaptersFile string) error {
	if len(parts) == 0 {
		return fmt.Errorf("append to %s: no parts", output)
	}
	args := append(t.uiLanguage(), "--no-chapters", "-M")
	if chaptersFile != "" {
		args = append(args, "--chapters", chaptersFile)
	}
	args = append(args, "-o", output)
	for i, part := range parts {
		if i > 0 {
			args = append(args, "+")
		}
		args = append(args, part)
	}
	_, err := t.run(ctx, t.bins.Merge, args...)
	return err
}

// ReplaceSubtitles rebuilds output from source with its subtitle tracks
// replaced by the provided files. Needed once more after the final append;
// mkvmerge reorders appended subtitle tracks otherwise.
func (t *Tools) ReplaceSubtitles(ctx context.Context, output, source string, subs []string) error {
	args := append(t.uiLanguage(), "-o", output, "-S", source)
	args = append(args, subs...)
	_, err := t.run(ctx, t.bins.Merge, args...)
	return err
}

// Info dumps the mkvinfo element listing used by the metadata, attachment,
// and subtitle-track scrapers.
func (t *Tools) Info(ctx context.Context, file string) (string, error) {
	args := append(t.uiLanguage(), file)
	return t.run(ctx, t.bins.Info, args...)
}

// PropEdit applies one group of metadata edits to file.
func (t *Tools) PropEdit(ctx context.Context, file string, edit []string) error {
	args := append(t.uiLanguage(), edit...)
	args = append(args, file)
	_, err := t.run(ctx, t.bins.PropEdit, args...)
	return err
}

// RunFFmpeg invokes ffmpeg with the given arguments, returning the combined
// output for detail scraping.
func (t *Tools) RunFFmpeg(ctx context.Context, args ...string) (string, error) {
	return t.run(ctx, t.bins.FFmpeg, args...)
}
