package config

import "strings"

// normalize expands path fields and canonicalizes enum values. Runs before
// Validate so validation sees the final values.
func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return err
	}
	if c.Paths.OutDir, err = expandPath(c.Paths.OutDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.ProbeCache.Path, err = expandPath(c.ProbeCache.Path); err != nil {
		return err
	}

	c.Tools.Merge = strings.TrimSpace(c.Tools.Merge)
	c.Tools.Extract = strings.TrimSpace(c.Tools.Extract)
	c.Tools.Info = strings.TrimSpace(c.Tools.Info)
	c.Tools.PropEdit = strings.TrimSpace(c.Tools.PropEdit)
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.Locale = strings.TrimSpace(c.Tools.Locale)
	if c.Tools.Locale == "" {
		c.Tools.Locale = defaultLocale
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	c.Processing.PlayResX = strings.TrimSpace(c.Processing.PlayResX)
	c.Processing.PlayResY = strings.TrimSpace(c.Processing.PlayResY)
	if c.Processing.VideoTemplate == "" {
		c.Processing.VideoTemplate = defaultVideoTemplate
	}
	if c.Processing.AudioTemplate == "" {
		c.Processing.AudioTemplate = defaultAudioTemplate
	}
	return nil
}
