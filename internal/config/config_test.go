package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"uk-forecast-lab/internal/features"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nUKF_A=one\nUKF_B = \"two\"\nbroken line\nUKF_C=keep=equals\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("UKF_A", "preset")
	os.Unsetenv("UKF_B")
	os.Unsetenv("UKF_C")
	t.Cleanup(func() {
		os.Unsetenv("UKF_B")
		os.Unsetenv("UKF_C")
	})

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}

	if got := os.Getenv("UKF_A"); got != "preset" {
		t.Errorf("UKF_A = %q, existing value must win", got)
	}
	if got := os.Getenv("UKF_B"); got != "two" {
		t.Errorf("UKF_B = %q", got)
	}
	if got := os.Getenv("UKF_C"); got != "keep=equals" {
		t.Errorf("UKF_C = %q", got)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("missing file: %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("UKF_INT", "42")
	t.Setenv("UKF_BAD_INT", "x")
	t.Setenv("UKF_DUR", "90s")
	t.Setenv("UKF_STR", "")

	if got := Int("UKF_INT", 1); got != 42 {
		t.Errorf("Int = %d", got)
	}
	if got := Int("UKF_BAD_INT", 7); got != 7 {
		t.Errorf("Int invalid = %d", got)
	}
	if got := Duration("UKF_DUR", time.Second); got != 90*time.Second {
		t.Errorf("Duration = %s", got)
	}
	if got := String("UKF_STR", "def"); got != "def" {
		t.Errorf("String empty = %q", got)
	}
}

func TestLocation(t *testing.T) {
	loc, err := Location("")
	if err != nil || loc != time.UTC {
		t.Fatalf("empty = %v, %v", loc, err)
	}
	loc, err = Location("Europe/London")
	if err != nil {
		t.Fatalf("Europe/London: %v", err)
	}
	if loc.String() != "Europe/London" {
		t.Errorf("loc = %s", loc)
	}
	if _, err := Location("Mars/Olympus"); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestParseFeatures(t *testing.T) {
	data := []byte(`
target: load
lags:
  - {name: "1", offset: 30m}
  - {name: 2d, offset: 48h}
windows:
  - {label: 12h, length: 12h, std: true, deviation: true}
night: {from: 22, to: 6}
`)
	cfg, err := ParseFeatures(data)
	if err != nil {
		t.Fatalf("ParseFeatures: %v", err)
	}

	if cfg.Target != "load" {
		t.Errorf("target = %q", cfg.Target)
	}
	if len(cfg.Lags) != 2 || cfg.Lags[1].Offset != 48*time.Hour {
		t.Errorf("lags = %+v", cfg.Lags)
	}
	if len(cfg.Windows) != 1 || cfg.Windows[0].Length != 12*time.Hour {
		t.Errorf("windows = %+v", cfg.Windows)
	}
	if cfg.Night != (features.HourRange{From: 22, To: 6}) {
		t.Errorf("night = %+v", cfg.Night)
	}
	// untouched keys keep defaults
	def := features.DefaultConfig()
	if cfg.MorningPeak != def.MorningPeak || cfg.DeviationLag != def.DeviationLag {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.LagFeature("2d") != "load_lag_2d" {
		t.Errorf("lag feature = %s", cfg.LagFeature("2d"))
	}
}

func TestParseFeatures_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "targt: demand\n"},
		{"bad duration", "lags:\n  - {name: x, offset: soon}\n"},
		{"bad hours", "night: {from: 25, to: 3}\n"},
		{"deviation lag missing", "deviation_lag: nope\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFeatures([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFeatures_Default(t *testing.T) {
	cfg, err := LoadFeatures("")
	if err != nil {
		t.Fatalf("LoadFeatures: %v", err)
	}
	if len(features.Names(cfg)) != len(features.Names(features.DefaultConfig())) {
		t.Error("empty path should return defaults")
	}
}
