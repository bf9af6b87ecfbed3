package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/romso/r4d4r/internal/pipeline"
	"github.com/romso/r4d4r/internal/radar"
)

// DisplayConfig tunes the live dashboard.
type DisplayConfig struct {
	Cadence        Duration `toml:"cadence,omitzero"`
	BannerDuration Duration `toml:"banner_duration,omitzero"`
	ConsoleHeight  int      `toml:"console_height,omitzero"`
	StopTimeout    Duration `toml:"stop_timeout,omitzero"`
	NoColor        bool     `toml:"no_color,omitempty"`
}

// RadarConfig tunes the radar animation.
type RadarConfig struct {
	Radius      int     `toml:"radius"`
	SweepStep   float64 `toml:"sweep_step"`
	SpawnChance float64 `toml:"spawn_chance"`
	MaxBlips    int     `toml:"max_blips"`
	MaxAge      int     `toml:"max_age"`
	HitFrames   int     `toml:"hit_frames"`
}

// StageConfig overrides one stage of the recon table.
type StageConfig struct {
	Timeout Duration `toml:"timeout,omitzero"`
	// Enabled defaults to true when absent.
	Enabled *bool  `toml:"enabled"`
	Binary  string `toml:"binary"`
}

// Duration is a positive span read from TOML. Integers are whole seconds,
// strings are either whole seconds or Go durations ("90s", "5m").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Duration) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case int64:
		if v <= 0 {
			return fmt.Errorf("duration must be positive, got %d", v)
		}
		*d = Duration(time.Duration(v) * time.Second)
		return nil
	case string:
		parsed, err := ParseTimeout(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("duration must be an integer number of seconds or a string, got %T", v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds all r4d4r configuration.
type Config struct {
	OutputDir string                 `toml:"output_dir"`
	Timeout   Duration               `toml:"timeout,omitzero"`
	Display   DisplayConfig          `toml:"display"`
	Radar     RadarConfig            `toml:"radar"`
	Stages    map[string]StageConfig `toml:"stages"`
}

const (
	defaultOutputDir      = "r4d4r_result"
	defaultTimeout        = 120 * time.Second
	defaultCadence        = 80 * time.Millisecond
	defaultBannerDuration = 3 * time.Second
	defaultConsoleHeight  = 8
	defaultStopTimeout    = time.Second
)

// OutputDirOrDefault returns OutputDir if set, otherwise "r4d4r_result".
func (c Config) OutputDirOrDefault() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return defaultOutputDir
}

// TimeoutOrDefault returns the per-stage default timeout.
func (c Config) TimeoutOrDefault() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout.Std()
	}
	return defaultTimeout
}

// CadenceOrDefault returns the display frame period.
func (c Config) CadenceOrDefault() time.Duration {
	if c.Display.Cadence > 0 {
		return c.Display.Cadence.Std()
	}
	return defaultCadence
}

// BannerDurationOrDefault returns how long the banner is shown.
func (c Config) BannerDurationOrDefault() time.Duration {
	if c.Display.BannerDuration > 0 {
		return c.Display.BannerDuration.Std()
	}
	return defaultBannerDuration
}

// ConsoleHeightOrDefault returns the number of log lines shown.
func (c Config) ConsoleHeightOrDefault() int {
	if c.Display.ConsoleHeight > 0 {
		return c.Display.ConsoleHeight
	}
	return defaultConsoleHeight
}

// StopTimeoutOrDefault returns how long the display may take to exit.
func (c Config) StopTimeoutOrDefault() time.Duration {
	if c.Display.StopTimeout > 0 {
		return c.Display.StopTimeout.Std()
	}
	return defaultStopTimeout
}

// RadarOrDefault returns the simulation settings with unset fields taken
// from radar.DefaultConfig.
func (c Config) RadarOrDefault() radar.Config {
	cfg := radar.DefaultConfig()
	r := c.Radar
	if r.Radius > 0 {
		cfg.Radius = r.Radius
	}
	if r.SweepStep > 0 {
		cfg.SweepStep = r.SweepStep
	}
	if r.SpawnChance > 0 {
		cfg.SpawnChance = r.SpawnChance
	}
	if r.MaxBlips > 0 {
		cfg.MaxBlips = r.MaxBlips
	}
	if r.MaxAge > 0 {
		cfg.MaxAge = r.MaxAge
	}
	if r.HitFrames > 0 {
		cfg.HitFrames = r.HitFrames
	}
	return cfg
}

// StageOptions converts the [stages] tables for pipeline.ReconGraph.
func (c Config) StageOptions() map[string]pipeline.StageOptions {
	opts := make(map[string]pipeline.StageOptions, len(c.Stages))
	for name, s := range c.Stages {
		opts[name] = pipeline.StageOptions{
			Timeout:  s.Timeout.Std(),
			Disabled: s.Enabled != nil && !*s.Enabled,
			Binary:   s.Binary,
		}
	}
	return opts
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns an empty config without error.
// Environment variables always take precedence over file values:
//   - R4D4R_OUTDIR  overrides output_dir
//   - R4D4R_TIMEOUT overrides timeout (seconds or a Go duration)
//   - NO_COLOR      sets display.no_color when non-empty
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default path for the r4d4r config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "r4d4r", "config.toml")
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("R4D4R_OUTDIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("R4D4R_TIMEOUT"); v != "" {
		d, err := ParseTimeout(v)
		if err != nil {
			return fmt.Errorf("R4D4R_TIMEOUT: %w", err)
		}
		cfg.Timeout = Duration(d)
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.Display.NoColor = true
	}
	return nil
}

// ParseTimeout accepts a whole number of seconds or a Go duration string.
func ParseTimeout(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
