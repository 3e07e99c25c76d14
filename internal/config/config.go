package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Number of videos processed in parallel. 0 means one worker per CPU.
	Concurrency int `yaml:"concurrency"`

	Detection  DetectionConfig  `yaml:"detection"`
	Clip       ClipConfig       `yaml:"clip"`
	GameEvents GameEventsConfig `yaml:"game_events"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	TikTok     TikTokConfig     `yaml:"tiktok"`
}

// DetectionConfig tunes the signal-based highlight detector.
type DetectionConfig struct {
	Sensitivity     float64 `yaml:"sensitivity"`
	MinScore        float64 `yaml:"min_score"`
	MinProminence   float64 `yaml:"min_prominence"`
	MaxClipsPerVid  int     `yaml:"max_clips_per_video"`
	MinSecsBetween  float64 `yaml:"min_seconds_between_clips"`
	AudioWeight     float64 `yaml:"audio_weight"`
	MotionWeight    float64 `yaml:"motion_weight"`
	WindowSeconds   float64 `yaml:"window_seconds"`
	AudioSampleRate int     `yaml:"audio_sample_rate"`
}

// ClipConfig controls extracted clip shape and encoding.
type ClipConfig struct {
	DurationSeconds float64 `yaml:"duration_seconds"`
	PaddingBefore   float64 `yaml:"padding_before"`
	OutputDir       string  `yaml:"output_dir"`
	CRF             int     `yaml:"crf"`
	Preset          string  `yaml:"preset"`
}

// GameEventsConfig controls the kill-event detection path.
type GameEventsConfig struct {
	Enabled            bool    `yaml:"enabled"`
	File               string  `yaml:"file"`
	PlayerSummonerName string  `yaml:"player_summoner_name"`
	FilterMyKillsOnly  bool    `yaml:"filter_my_kills_only"`
	RecordingOffset    float64 `yaml:"recording_start_offset"`
}

type FFmpegConfig struct {
	// Directory containing ffmpeg/ffprobe binaries. Empty means use PATH.
	BinaryPath string `yaml:"binary_path"`
	Threads    int    `yaml:"threads"`
}

// YouTubeConfig configures Shorts upload.
type YouTubeConfig struct {
	Enabled           bool     `yaml:"enabled"`
	ClientSecretsFile string   `yaml:"client_secrets_file"`
	TokenFile         string   `yaml:"token_file"`
	TitleTemplate     string   `yaml:"title_template"`
	Description       string   `yaml:"description"`
	Tags              []string `yaml:"tags"`
	Privacy           string   `yaml:"privacy"`
	CategoryID        string   `yaml:"category_id"`
	ClipCounterStart  int      `yaml:"clip_counter_start"`
	ClipCounterFile   string   `yaml:"clip_counter_file"`
}

// TikTokConfig configures TikTok Content Posting API upload.
type TikTokConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ClientKey     string `yaml:"client_key"`
	ClientSecret  string `yaml:"client_secret"`
	RedirectURI   string `yaml:"redirect_uri"`
	TokenFile     string `yaml:"token_file"`
	TitleTemplate string `yaml:"title_template"`
	Privacy       string `yaml:"privacy"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		Concurrency: 0,
		Detection: DetectionConfig{
			Sensitivity:     0.5,
			MinScore:        0.6,
			MinProminence:   0.15,
			MaxClipsPerVid:  5,
			MinSecsBetween:  120,
			AudioWeight:     0.5,
			MotionWeight:    0.5,
			WindowSeconds:   4,
			AudioSampleRate: 22050,
		},
		Clip: ClipConfig{
			DurationSeconds: 30,
			PaddingBefore:   3,
			OutputDir:       "outputs",
			CRF:             18,
			Preset:          "slow",
		},
		GameEvents: GameEventsConfig{
			Enabled: true,
			File:    "game_events.json",
		},
		FFmpeg: FFmpegConfig{
			Threads: 0,
		},
		YouTube: YouTubeConfig{
			ClientSecretsFile: "client_secrets.json",
			TokenFile:         "youtube_token.json",
			TitleTemplate:     "League Highlight {num}",
			Tags:              []string{"League of Legends", "Gaming", "Shorts"},
			Privacy:           "private",
			CategoryID:        "20",
			ClipCounterStart:  1,
			ClipCounterFile:   "clip_counter.txt",
		},
		TikTok: TikTokConfig{
			RedirectURI:   "http://localhost:8080/callback",
			TokenFile:     "tiktok_token.json",
			TitleTemplate: "League Clip {num}",
			Privacy:       "PUBLIC_TO_EVERYONE",
		},
	}
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(home, ".clipforge", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
