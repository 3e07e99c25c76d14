// Package pipeline drives per-video highlight processing: probe, detect,
// extract. Videos are independent units of work and run in parallel; one
// video failing never aborts the others.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"clipforge/internal/config"
	"clipforge/internal/detect"
	"clipforge/internal/events"
	"clipforge/internal/ffmpeg"
	"clipforge/pkg/util"
)

// Result is the outcome of processing one video.
type Result struct {
	Video   string
	Windows []detect.ClipWindow
	Clips   []string
	Err     error
}

// Pipeline orchestrates the video processing workflow.
type Pipeline struct {
	logger   zerolog.Logger
	cfg      *config.Config
	exec     *ffmpeg.Executor
	detector *detect.Detector
	workers  int
}

// New validates configuration eagerly and wires the collaborators. Invalid
// configuration is rejected before any video is touched.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exec, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	runID := uuid.NewString()
	logger = logger.With().Str("component", "pipeline").Str("run_id", runID).Logger()

	detector, err := detect.New(logger, detectParams(cfg))
	if err != nil {
		return nil, err
	}

	workers := cfg.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pipeline{
		logger:   logger,
		cfg:      cfg,
		exec:     exec,
		detector: detector,
		workers:  workers,
	}, nil
}

func detectParams(cfg *config.Config) detect.Params {
	d := cfg.Detection
	return detect.Params{
		Interval:      d.WindowSeconds,
		AudioWeight:   d.AudioWeight,
		MotionWeight:  d.MotionWeight,
		Sensitivity:   d.Sensitivity,
		MinScore:      d.MinScore,
		MinProminence: d.MinProminence,
		MaxClips:      d.MaxClipsPerVid,
		MinSeparation: d.MinSecsBetween,
		ClipDuration:  cfg.Clip.DurationSeconds,
		EventPadding:  cfg.Clip.PaddingBefore,
	}
}

// ProcessAll runs detection and extraction for each video, at most
// p.workers videos in flight. Cancelling the context stops new work while
// in-flight videos finish; per-video failures land in their Result.
func (p *Pipeline) ProcessAll(ctx context.Context, videos []string) []Result {
	return p.runAll(ctx, videos, p.Process)
}

// DetectAll runs detection only, with the same concurrency and isolation.
func (p *Pipeline) DetectAll(ctx context.Context, videos []string) []Result {
	return p.runAll(ctx, videos, p.Detect)
}

func (p *Pipeline) runAll(ctx context.Context, videos []string, fn func(context.Context, string) Result) []Result {
	results := make([]Result, len(videos))

	g := &errgroup.Group{}
	g.SetLimit(p.workers)

	for i, video := range videos {
		if ctx.Err() != nil {
			results[i] = Result{Video: video, Err: ctx.Err()}
			continue
		}
		i, video := i, video
		g.Go(func() error {
			results[i] = fn(ctx, video)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Process handles one video end to end. A video either completes or fails
// as a whole; partial detection results are never surfaced.
func (p *Pipeline) Process(ctx context.Context, video string) Result {
	res := p.Detect(ctx, video)
	if res.Err != nil || len(res.Windows) == 0 {
		return res
	}

	res.Clips, res.Err = p.extractClips(ctx, video, res.Windows)
	return res
}

// Detect runs highlight detection without extracting anything.
func (p *Pipeline) Detect(ctx context.Context, video string) Result {
	res := Result{Video: video}
	logger := p.logger.With().Str("video", filepath.Base(video)).Logger()

	logger.Info().Msg("processing video")

	info, err := p.exec.ProbeVideo(ctx, video)
	if err != nil {
		res.Err = fmt.Errorf("decode failure: %w", err)
		logger.Error().Err(err).Msg("cannot open video, skipping")
		return res
	}
	if info.Duration <= 0 {
		res.Err = fmt.Errorf("decode failure: video reports no duration")
		return res
	}

	input := detect.Input{
		Duration: info.Duration,
		Signals: ffmpeg.NewSignalExtractor(
			p.exec, logger, video, p.cfg.Detection.AudioSampleRate, info.HasAudio),
		Events: p.loadEvents(logger, video, info.Duration),
	}

	windows, err := p.detector.Detect(ctx, input)
	if err != nil {
		res.Err = err
		logger.Error().Err(err).Msg("detection failed")
		return res
	}
	res.Windows = windows

	if len(windows) == 0 {
		logger.Info().Msg("no highlights detected; try raising detection.sensitivity")
	}
	return res
}

// loadEvents returns video-relative kill events. It returns nil when the
// event path is disabled or the log is missing, malformed, or empty, which
// falls back silently to signal detection.
func (p *Pipeline) loadEvents(logger zerolog.Logger, video string, duration float64) []detect.Event {
	ge := p.cfg.GameEvents
	if !ge.Enabled {
		return nil
	}

	path := events.ResolvePath(ge.File, video)
	if path == "" {
		logger.Debug().Msg("no events file found, using signal detection")
		return nil
	}

	log := events.Load(path)
	kills := log.Kills(ge.PlayerSummonerName, ge.FilterMyKillsOnly)
	if len(kills) == 0 {
		logger.Info().Str("file", path).Msg("events file has no matching kills, using signal detection")
		return nil
	}

	videoStart := recordingStart(video, duration)
	evts := events.MapToVideo(kills, videoStart, ge.RecordingOffset, duration)
	if len(evts) == 0 {
		logger.Info().Str("file", path).Msg("no kills land inside this video, using signal detection")
		return nil
	}

	logger.Info().Int("kills", len(evts)).Str("file", path).Msg("loaded game events")
	return evts
}

// recordingStart estimates when the recording began: file mtime marks the
// end of the recording, so subtract the duration.
func recordingStart(video string, duration float64) float64 {
	fi, err := os.Stat(video)
	if err != nil {
		return 0
	}
	return float64(fi.ModTime().Unix()) - duration
}

func (p *Pipeline) extractClips(ctx context.Context, video string, windows []detect.ClipWindow) ([]string, error) {
	outDir := p.cfg.Clip.OutputDir
	if err := util.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	logger := p.logger.With().Str("video", filepath.Base(video)).Logger()
	stem := util.Stem(video)

	var outputs []string
	failed := 0
	for i, w := range windows {
		output := ClipOutputPath(outDir, stem, i+1)

		if util.FileExists(output) {
			logger.Info().Str("clip", filepath.Base(output)).Msg("clip already exists, skipping")
			outputs = append(outputs, output)
			continue
		}

		clipName := filepath.Base(output)
		err := p.exec.ExtractVerticalClip(ctx, video, ffmpeg.ClipJob{
			Start:  w.Start,
			End:    w.End,
			Output: output,
			CRF:    p.cfg.Clip.CRF,
			Preset: p.cfg.Clip.Preset,
			ProgressFunc: func(pr *ffmpeg.Progress) {
				logger.Debug().
					Str("clip", clipName).
					Int("frame", pr.Frame).
					Str("time", pr.Time).
					Str("speed", pr.Speed).
					Msg("encoding clip")
			},
		})
		if err != nil {
			failed++
			logger.Error().Err(err).Str("clip", clipName).Msg("clip extraction failed")
			continue
		}
		outputs = append(outputs, output)
	}

	// Individual failures are tolerated, but a video whose every clip failed
	// must not report success.
	if len(outputs) == 0 && failed > 0 {
		return nil, fmt.Errorf("all %d clip extractions failed", failed)
	}
	return outputs, nil
}

// ClipOutputPath names extracted clips chronologically: <stem>_clip_01.mp4.
func ClipOutputPath(dir, stem string, num int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_clip_%02d.mp4", stem, num))
}
