package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	// A missing file is not an error; defaults come back.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Detection.Sensitivity != 0.5 {
		t.Errorf("sensitivity = %g, want 0.5", cfg.Detection.Sensitivity)
	}
	if cfg.Detection.MinScore != 0.6 {
		t.Errorf("min_score = %g, want 0.6", cfg.Detection.MinScore)
	}
	if cfg.Detection.MaxClipsPerVid != 5 {
		t.Errorf("max_clips_per_video = %d, want 5", cfg.Detection.MaxClipsPerVid)
	}
	if cfg.Detection.MinSecsBetween != 120 {
		t.Errorf("min_seconds_between_clips = %g, want 120", cfg.Detection.MinSecsBetween)
	}
	if cfg.Detection.AudioSampleRate != 22050 {
		t.Errorf("audio_sample_rate = %d, want 22050", cfg.Detection.AudioSampleRate)
	}
	if cfg.Clip.DurationSeconds != 30 {
		t.Errorf("duration_seconds = %g, want 30", cfg.Clip.DurationSeconds)
	}
	if cfg.Clip.CRF != 18 || cfg.Clip.Preset != "slow" {
		t.Errorf("encoding defaults = crf %d preset %q, want 18/slow", cfg.Clip.CRF, cfg.Clip.Preset)
	}
	if !cfg.GameEvents.Enabled {
		t.Error("game_events should default to enabled")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := []byte(`
detection:
  sensitivity: 0.8
  min_score: 0.2
clip:
  duration_seconds: 45
  output_dir: clips
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Detection.Sensitivity != 0.8 {
		t.Errorf("sensitivity = %g, want 0.8", cfg.Detection.Sensitivity)
	}
	if cfg.Clip.DurationSeconds != 45 {
		t.Errorf("duration_seconds = %g, want 45", cfg.Clip.DurationSeconds)
	}
	if cfg.Clip.OutputDir != "clips" {
		t.Errorf("output_dir = %q, want clips", cfg.Clip.OutputDir)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Detection.MaxClipsPerVid != 5 {
		t.Errorf("max_clips_per_video = %d, want default 5", cfg.Detection.MaxClipsPerVid)
	}
	if cfg.Clip.Preset != "slow" {
		t.Errorf("preset = %q, want default slow", cfg.Clip.Preset)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := defaultConfig()
	cfg.Detection.Sensitivity = 0.7
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Detection.Sensitivity != 0.7 {
		t.Errorf("sensitivity = %g, want 0.7", loaded.Detection.Sensitivity)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window_seconds", func(c *Config) { c.Detection.WindowSeconds = 0 }},
		{"negative audio weight", func(c *Config) { c.Detection.AudioWeight = -0.1 }},
		{"negative motion weight", func(c *Config) { c.Detection.MotionWeight = -1 }},
		{"negative max clips", func(c *Config) { c.Detection.MaxClipsPerVid = -1 }},
		{"negative separation", func(c *Config) { c.Detection.MinSecsBetween = -5 }},
		{"negative min_score", func(c *Config) { c.Detection.MinScore = -0.1 }},
		{"negative min_prominence", func(c *Config) { c.Detection.MinProminence = -0.1 }},
		{"zero sample rate", func(c *Config) { c.Detection.AudioSampleRate = 0 }},
		{"zero clip duration", func(c *Config) { c.Clip.DurationSeconds = 0 }},
		{"negative padding", func(c *Config) { c.Clip.PaddingBefore = -1 }},
		{"crf too high", func(c *Config) { c.Clip.CRF = 52 }},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Detection.Sensitivity = 0.9

	ctx := WithConfig(context.Background(), cfg)
	got := FromContext(ctx)
	if got.Detection.Sensitivity != 0.9 {
		t.Errorf("sensitivity = %g, want 0.9", got.Detection.Sensitivity)
	}

	// Without a stored config, defaults come back.
	got = FromContext(context.Background())
	if got.Detection.Sensitivity != 0.5 {
		t.Errorf("sensitivity = %g, want default 0.5", got.Detection.Sensitivity)
	}
}
