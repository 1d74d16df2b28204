package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks the configuration for contradictions. Call after
// normalize; it assumes enums are already lowercased.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		problems = append(problems, "paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if c.Processing.Edition < 1 {
		problems = append(problems, fmt.Sprintf("processing.edition must be 1 or greater, got %d", c.Processing.Edition))
	}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}
	for name, value := range map[string]string{
		"processing.play_res_x": c.Processing.PlayResX,
		"processing.play_res_y": c.Processing.PlayResY,
	} {
		if value == "" {
			continue
		}
		if _, err := strconv.Atoi(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s %q is not a number", name, value))
		}
	}
	for name := range c.Processing.Vars {
		if !strings.HasPrefix(name, "var_") {
			problems = append(problems, fmt.Sprintf("processing.vars key %q must start with var_", name))
		}
	}
	if c.ProbeCache.Enabled && strings.TrimSpace(c.ProbeCache.Path) == "" {
		problems = append(problems, "probe_cache.path must be set when probe_cache.enabled is true")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
