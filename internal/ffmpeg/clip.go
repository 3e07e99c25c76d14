package ffmpeg

import (
	"context"
	"fmt"

	"clipforge/pkg/util"
)

// ClipJob defines one clip extraction.
type ClipJob struct {
	Start        float64 // seconds
	End          float64 // seconds
	Output       string
	CRF          int
	Preset       string
	ProgressFunc func(*Progress)
}

// verticalCropFilter center-crops to 9:16 and scales to 1080x1920. Lanczos
// scaling gives sharper output than the default bicubic.
const verticalCropFilter = "crop='min(iw,ih*9/16)':'ih':'max(0,(iw-ih*9/16)/2)':'0',scale=1080:1920:flags=lanczos"

// ExtractVerticalClip cuts a segment from a video and converts it to a
// vertical 9:16 short, center-cropped to preserve the action.
func (e *Executor) ExtractVerticalClip(ctx context.Context, input string, job ClipJob) error {
	duration := job.End - job.Start
	if duration <= 0 {
		return fmt.Errorf("invalid clip duration: end must be after start")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", job.Output).
		Float64("start", job.Start).
		Float64("duration", duration).
		Msg("extracting clip")

	crf := job.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := job.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	args := []string{
		"-ss", util.FormatSeconds(job.Start),
		"-i", input,
		"-t", util.FormatSeconds(duration),
		"-vf", verticalCropFilter,
		"-c:v", DefaultVideoCodec,
		"-preset", preset,
		"-crf", fmt.Sprintf("%d", crf),
		"-c:a", DefaultAudioCodec,
		"-b:a", "192k",
		job.Output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: job.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	e.logger.Info().Str("output", job.Output).Msg("clip extraction complete")
	return nil
}
