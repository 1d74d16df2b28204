package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// WorkDir is the scratch area where files are split and rebuilt.
	WorkDir string `toml:"work_dir"`
	// OutDir receives rebuilt files. Empty means rebuild next to the source.
	OutDir string `toml:"out_dir"`
	LogDir string `toml:"log_dir"`
}

// Tools contains the external binary locations and their UI locale.
type Tools struct {
	Merge    string `toml:"mkvmerge"`
	Extract  string `toml:"mkvextract"`
	Info     string `toml:"mkvinfo"`
	PropEdit string `toml:"mkvpropedit"`
	FFmpeg   string `toml:"ffmpeg"`
	Locale   string `toml:"locale"`
}

// Processing contains the per-run pipeline switches.
type Processing struct {
	// Edition selects which chapter edition to keep, 1-based.
	Edition int `toml:"edition"`
	// Chapters controls whether the rebuilt file keeps its flattened
	// chapter list.
	Chapters bool `toml:"chapters"`
	// Cleanup removes the run directory after a successful rebuild.
	Cleanup bool `toml:"cleanup"`
	// IgnoreDefaultFlag keeps non-default chapter editions instead of
	// dropping them before edition selection.
	IgnoreDefaultFlag bool `toml:"ignore_default_flag"`
	// IgnoreSegmentStart includes external segments in the rebuilt file
	// regardless of where their first chapter starts.
	IgnoreSegmentStart bool `toml:"ignore_segment_start"`

	FixSubtitles bool   `toml:"fix_subtitles"`
	PlayResX     string `toml:"play_res_x"`
	PlayResY     string `toml:"play_res_y"`

	FixVideo      bool              `toml:"fix_video"`
	FixAudio      bool              `toml:"fix_audio"`
	VideoTemplate string            `toml:"fix_video_template"`
	AudioTemplate string            `toml:"fix_audio_template"`
	Vars          map[string]string `toml:"vars"`
}

// ProbeCache contains configuration for the segment probe cache.
type ProbeCache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: scratch, output and log directories
//   - Tools: external binary locations and locale
//   - Processing: edition selection, subtitle and encode switches
//   - ProbeCache: persistent segment probe results
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Processing Processing `toml:"processing"`
	ProbeCache ProbeCache `toml:"probe_cache"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/unlinkmkv/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("unlinkmkv.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
// OutDir is created on a best-effort basis so a run can start when external
// storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutDir) != "" {
		_ = os.MkdirAll(c.Paths.OutDir, 0o755)
	}
	if c.ProbeCache.Enabled && strings.TrimSpace(c.ProbeCache.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.ProbeCache.Path), 0o755); err != nil {
			return fmt.Errorf("create probe cache directory: %w", err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultProbeCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "unlinkmkv", "probes.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/unlinkmkv/probes.db"
	}
	return filepath.Join(home, ".cache", "unlinkmkv", "probes.db")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
