package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/romso/r4d4r/internal/config"
)

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
output_dir = "out"
timeout = "90s"

[display]
cadence = "50ms"
console_height = 12

[radar]
radius = 10
max_blips = 5

[stages.subzy]
timeout = "10m"

[stages.blh]
enabled = false

[stages.merge]
binary = "/usr/local/bin/sort"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OutputDirOrDefault() != "out" {
		t.Errorf("expected output dir 'out', got '%s'", cfg.OutputDirOrDefault())
	}
	if cfg.TimeoutOrDefault() != 90*time.Second {
		t.Errorf("expected timeout 90s, got %s", cfg.TimeoutOrDefault())
	}
	if cfg.CadenceOrDefault() != 50*time.Millisecond {
		t.Errorf("expected cadence 50ms, got %s", cfg.CadenceOrDefault())
	}
	if cfg.ConsoleHeightOrDefault() != 12 {
		t.Errorf("expected console height 12, got %d", cfg.ConsoleHeightOrDefault())
	}
	r := cfg.RadarOrDefault()
	if r.Radius != 10 || r.MaxBlips != 5 || r.SweepStep != 0.12 {
		t.Errorf("unexpected radar config: %+v", r)
	}

	opts := cfg.StageOptions()
	if opts["subzy"].Timeout != 10*time.Minute {
		t.Errorf("expected subzy timeout 10m, got %s", opts["subzy"].Timeout)
	}
	if !opts["blh"].Disabled {
		t.Error("expected blh to be disabled")
	}
	if opts["merge"].Disabled || opts["merge"].Binary != "/usr/local/bin/sort" {
		t.Errorf("unexpected merge options: %+v", opts["merge"])
	}
}

func TestLoad_EnvVarsTakePrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
output_dir = "fromfile"
timeout = "30s"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("R4D4R_OUTDIR", "fromenv")
	t.Setenv("R4D4R_TIMEOUT", "45")
	t.Setenv("NO_COLOR", "1")

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OutputDir != "fromenv" {
		t.Errorf("expected env output dir 'fromenv', got '%s'", cfg.OutputDir)
	}
	if cfg.Timeout.Std() != 45*time.Second {
		t.Errorf("expected env timeout 45s, got %s", cfg.Timeout.Std())
	}
	if !cfg.Display.NoColor {
		t.Error("expected NO_COLOR to disable color")
	}
}

func TestLoad_InvalidEnvTimeout(t *testing.T) {
	t.Setenv("R4D4R_TIMEOUT", "soon")
	if _, err := config.LoadFrom("/nonexistent/path/config.toml"); err == nil {
		t.Fatal("expected error for invalid R4D4R_TIMEOUT")
	}
}

func TestLoad_MissingFileIsNotError(t *testing.T) {
	t.Setenv("R4D4R_OUTDIR", "onlyenv")
	cfg, err := config.LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("missing file should not be an error, got: %v", err)
	}
	if cfg.OutputDir != "onlyenv" {
		t.Errorf("expected output dir from env, got '%s'", cfg.OutputDir)
	}
}

func TestLoad_MalformedFileIsError(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("timeout = [nope"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadFrom(configPath); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg config.Config
	if cfg.OutputDirOrDefault() != "r4d4r_result" {
		t.Errorf("expected default output dir, got '%s'", cfg.OutputDirOrDefault())
	}
	if cfg.TimeoutOrDefault() != 120*time.Second {
		t.Errorf("expected default timeout 120s, got %s", cfg.TimeoutOrDefault())
	}
	if cfg.CadenceOrDefault() != 80*time.Millisecond {
		t.Errorf("expected default cadence 80ms, got %s", cfg.CadenceOrDefault())
	}
	if cfg.BannerDurationOrDefault() != 3*time.Second {
		t.Errorf("expected default banner 3s, got %s", cfg.BannerDurationOrDefault())
	}
	if cfg.ConsoleHeightOrDefault() != 8 {
		t.Errorf("expected default console height 8, got %d", cfg.ConsoleHeightOrDefault())
	}
	if cfg.StopTimeoutOrDefault() != time.Second {
		t.Errorf("expected default stop timeout 1s, got %s", cfg.StopTimeoutOrDefault())
	}
	r := cfg.RadarOrDefault()
	if r.Radius != 12 || r.SpawnChance != 0.06 || r.MaxBlips != 18 || r.MaxAge != 1000 || r.HitFrames != 8 {
		t.Errorf("unexpected default radar config: %+v", r)
	}
	if len(cfg.StageOptions()) != 0 {
		t.Error("expected no stage options")
	}
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"120", 120 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"0", 0, true},
		{"-5s", 0, true},
		{"later", 0, true},
	}
	for _, tt := range tests {
		got, err := config.ParseTimeout(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeout(%q): err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeout(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nested", "config.toml")
	disabled := false
	cfg := config.Config{
		OutputDir: "results",
		Timeout:   config.Duration(2 * time.Minute),
		Stages:    map[string]config.StageConfig{"corsy": {Enabled: &disabled}},
	}

	if err := config.Save(configPath, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	loaded, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.OutputDir != "results" || loaded.TimeoutOrDefault() != 2*time.Minute {
		t.Errorf("unexpected round trip: %+v", loaded)
	}
	if !loaded.StageOptions()["corsy"].Disabled {
		t.Error("expected corsy to stay disabled")
	}
}

func TestLoad_IntegerDurationsAreSeconds(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
timeout = 120

[display]
stop_timeout = 2

[stages.subzy]
timeout = 600
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TimeoutOrDefault() != 120*time.Second {
		t.Errorf("expected timeout 120s, got %s", cfg.TimeoutOrDefault())
	}
	if cfg.StopTimeoutOrDefault() != 2*time.Second {
		t.Errorf("expected stop timeout 2s, got %s", cfg.StopTimeoutOrDefault())
	}
	if got := cfg.StageOptions()["subzy"].Timeout; got != 600*time.Second {
		t.Errorf("expected subzy timeout 600s, got %s", got)
	}
}

func TestLoad_RejectsNonPositiveDurations(t *testing.T) {
	for _, content := range []string{
		"timeout = 0",
		"timeout = -5",
		`timeout = "0s"`,
		"timeout = 1.5",
		"[stages.blh]\ntimeout = -1",
	} {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := config.LoadFrom(configPath); err == nil {
			t.Errorf("expected error for %q", content)
		}
	}
}
