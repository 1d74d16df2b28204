package encode

import (
	"context"

	"unlinkmkv/internal/mkvtool"
)

// Default templates used when re-encoding is requested without custom ones.
const (
	DefaultVideoTemplate = "-c:v libx264 -b:v {var_minrate}k -minrate {var_minrate}k -maxrate {var_maxrate}k -bufsize 1835k"
	DefaultAudioTemplate = "-map 0 -acodec ac3 -ab 320k"
)

// Options selects the optional encoding passes for rebuilt parts.
type Options struct {
	FixVideo      bool
	FixAudio      bool
	VideoTemplate string
	AudioTemplate string
	// Vars carries user-defined var_* template variables; expressions may
	// reference the probed var_duration, var_bitrate and var_size.
	Vars map[string]string
}

// Enabled reports whether any encoding pass will run.
func (o Options) Enabled() bool { return o.FixVideo || o.FixAudio }

// ConvertToALAC transcodes every audio track to ALAC while copying all
// other tracks. mkvmerge refuses to split FLAC-bearing containers, so
// linked files go through this pass first.
func ConvertToALAC(ctx context.Context, tools *mkvtool.Tools, source, dest string) error {
	_, err := tools.RunFFmpeg(ctx, "-i", source, "-vcodec", "copy",
		"-map", "0", "-acodec", "alac", dest)
	return err
}

// Args renders the ffmpeg video and audio argument lists for one part,
// expanding the video template against the part's probed details. Disabled
// passes fall back to stream copies.
func (o Options) Args(ctx context.Context, tools *mkvtool.Tools, part string) (vopt, aopt []string, err error) {
	vopt = []string{"-vcodec", "copy"}
	aopt = []string{"-map", "0", "-acodec", "copy"}

	if o.FixVideo {
		details, err := ProbeDetails(ctx, tools, part)
		if err != nil {
			return nil, nil, err
		}
		vars := details.Vars()
		for name, value := range o.Vars {
			vars[name] = value
		}
		template := o.VideoTemplate
		if template == "" {
			template = DefaultVideoTemplate
		}
		vopt = RenderTemplate(template, ExpandVars(vars))
	}
	if o.FixAudio {
		template := o.AudioTemplate
		if template == "" {
			template = DefaultAudioTemplate
		}
		aopt = RenderTemplate(template, nil)
	}
	return vopt, aopt, nil
}

// Reencode rewrites one part with the rendered argument lists.
func Reencode(ctx context.Context, tools *mkvtool.Tools, part, output string, vopt, aopt []string) error {
	args := append([]string{"-i", part}, vopt...)
	args = append(args, aopt...)
	args = append(args, output)
	_, err := tools.RunFFmpeg(ctx, args...)
	return err
}
