package config

const (
	defaultWorkDir  = "~/.local/share/unlinkmkv/work"
	defaultLogDir   = "~/.local/share/unlinkmkv/logs"
	defaultLocale   = "en_US"
	defaultEdition  = 1
	defaultLogLevel = "info"
	defaultFormat   = "console"

	defaultVideoTemplate = "-c:v libx264 -b:v {var_minrate}k -minrate {var_minrate}k -maxrate {var_maxrate}k -bufsize 1835k"
	defaultAudioTemplate = "-map 0 -acodec ac3 -ab 320k"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Tools: Tools{
			Merge:    "mkvmerge",
			Extract:  "mkvextract",
			Info:     "mkvinfo",
			PropEdit: "mkvpropedit",
			FFmpeg:   "ffmpeg",
			Locale:   defaultLocale,
		},
		Processing: Processing{
			Edition:       defaultEdition,
			Chapters:      true,
			Cleanup:       true,
			FixSubtitles:  true,
			VideoTemplate: defaultVideoTemplate,
			AudioTemplate: defaultAudioTemplate,
		},
		ProbeCache: ProbeCache{
			Enabled: true,
			Path:    defaultProbeCachePath(),
		},
		Logging: Logging{
			Format: defaultFormat,
			Level:  defaultLogLevel,
		},
	}
}
