package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/riot"
	"clipforge/internal/upload"
	"clipforge/pkg/util"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipforge",
	Short: "clipforge - gameplay highlight extraction toolkit",
	Long:  "Finds highlight moments in gameplay recordings from audio/motion energy or recorded kill events, cuts them into vertical clips, and optionally uploads them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(configCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect [videos...]",
	Short: "Detect highlight windows without extracting clips",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		videos, err := resolveVideos(args)
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		results := pipe.DetectAll(cmd.Context(), videos)
		return printResults(results, false)
	},
}

var processCmd = &cobra.Command{
	Use:   "process [videos...]",
	Short: "Detect highlights and extract vertical clips",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		videos, err := resolveVideos(args)
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		results := pipe.ProcessAll(cmd.Context(), videos)
		return printResults(results, true)
	},
}

var eventsOutput string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Record kill events from a live League of Legends match",
	Long:  "Polls the local Live Client Data API while a match runs and writes a kill-event log on Ctrl-C. Run it alongside your recording software.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		recorder := riot.NewRecorder(log.Logger, riot.NewClient(""))
		return recorder.Run(ctx, eventsOutput)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [clips...]",
	Short: "Upload clips to the enabled platforms",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		ctx := cmd.Context()

		clips := args
		if len(clips) == 0 {
			var err error
			clips, err = filepath.Glob(filepath.Join(cfg.Clip.OutputDir, "*.mp4"))
			if err != nil {
				return err
			}
			sort.Strings(clips)
		}
		if len(clips) == 0 {
			return fmt.Errorf("no clips to upload: pass paths or run 'clipforge process' first")
		}
		if !cfg.YouTube.Enabled && !cfg.TikTok.Enabled {
			return fmt.Errorf("no upload platform enabled: set youtube.enabled or tiktok.enabled")
		}

		// Platforms share one counter so a clip keeps its number everywhere.
		nums := make([]int, len(clips))
		first := upload.NextClipNum(cfg.YouTube.ClipCounterFile, cfg.YouTube.ClipCounterStart)
		for i := range nums {
			nums[i] = first + i
		}

		if cfg.YouTube.Enabled {
			yt, err := upload.NewYouTubeUploader(ctx, log.Logger, cfg.YouTube)
			if err != nil {
				return err
			}
			ids := yt.UploadClips(ctx, clips)
			log.Info().Int("uploaded", len(ids)).Int("total", len(clips)).Msg("YouTube uploads finished")
		}

		if cfg.TikTok.Enabled {
			tt, err := upload.NewTikTokUploader(ctx, log.Logger, cfg.TikTok)
			if err != nil {
				return err
			}
			ids := tt.UploadClips(ctx, clips, nums)
			log.Info().Int("posted", len(ids)).Int("total", len(clips)).Msg("TikTok uploads finished")
		}

		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		cfg := config.FromContext(cmd.Context())
		if err := cfg.Save(path); err != nil {
			return err
		}
		log.Info().Str("file", path).Msg("wrote default config")
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsOutput, "output", "o", "game_events.json", "where to write the event log")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// resolveVideos expands explicit arguments or scans the current directory
// for recordings when none are given.
func resolveVideos(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	var videos []string
	for _, pattern := range []string{"*.mp4", "*.mkv"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		videos = append(videos, matches...)
	}
	sort.Strings(videos)

	if len(videos) == 0 {
		return nil, fmt.Errorf("no videos found: pass paths or run from a directory with .mp4/.mkv files")
	}
	return videos, nil
}

// printResults summarizes per-video outcomes on stdout and reports overall
// failure when every video failed.
func printResults(results []pipeline.Result, withClips bool) error {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("%s: FAILED: %v\n", res.Video, res.Err)
			continue
		}
		fmt.Printf("%s: %d highlight(s)\n", res.Video, len(res.Windows))
		for i, w := range res.Windows {
			score := ""
			if w.Score != nil {
				score = fmt.Sprintf("  score=%.3f", *w.Score)
			}
			fmt.Printf("  %2d. %s - %s  [%s]%s\n",
				i+1, util.FormatSeconds(w.Start), util.FormatSeconds(w.End), w.Source, score)
		}
		if withClips {
			for _, clip := range res.Clips {
				fmt.Printf("  -> %s\n", clip)
			}
		}
	}

	if failed == len(results) && len(results) > 0 {
		return fmt.Errorf("all %d video(s) failed", failed)
	}
	return nil
}
