package config

import (
	"errors"
	"fmt"
)

// ErrInvalid marks configuration rejected before any video is processed.
var ErrInvalid = errors.New("invalid configuration")

// Validate rejects configurations that would produce nonsensical clip
// windows. It runs once, before any video is touched.
func (c *Config) Validate() error {
	d := c.Detection

	if d.WindowSeconds <= 0 {
		return fmt.Errorf("%w: detection.window_seconds must be positive, got %g", ErrInvalid, d.WindowSeconds)
	}
	if d.AudioWeight < 0 || d.MotionWeight < 0 {
		return fmt.Errorf("%w: detection weights must be non-negative, got audio=%g motion=%g",
			ErrInvalid, d.AudioWeight, d.MotionWeight)
	}
	if d.MaxClipsPerVid < 0 {
		return fmt.Errorf("%w: detection.max_clips_per_video must not be negative, got %d", ErrInvalid, d.MaxClipsPerVid)
	}
	if d.MinSecsBetween < 0 {
		return fmt.Errorf("%w: detection.min_seconds_between_clips must not be negative, got %g", ErrInvalid, d.MinSecsBetween)
	}
	if d.MinScore < 0 {
		return fmt.Errorf("%w: detection.min_score must not be negative, got %g", ErrInvalid, d.MinScore)
	}
	if d.MinProminence < 0 {
		return fmt.Errorf("%w: detection.min_prominence must not be negative, got %g", ErrInvalid, d.MinProminence)
	}
	if d.AudioSampleRate <= 0 {
		return fmt.Errorf("%w: detection.audio_sample_rate must be positive, got %d", ErrInvalid, d.AudioSampleRate)
	}

	if c.Clip.DurationSeconds <= 0 {
		return fmt.Errorf("%w: clip.duration_seconds must be positive, got %g", ErrInvalid, c.Clip.DurationSeconds)
	}
	if c.Clip.PaddingBefore < 0 {
		return fmt.Errorf("%w: clip.padding_before must not be negative, got %g", ErrInvalid, c.Clip.PaddingBefore)
	}
	if c.Clip.CRF < 0 || c.Clip.CRF > 51 {
		return fmt.Errorf("%w: clip.crf must be within 0-51, got %d", ErrInvalid, c.Clip.CRF)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must not be negative, got %d", ErrInvalid, c.Concurrency)
	}

	return nil
}
