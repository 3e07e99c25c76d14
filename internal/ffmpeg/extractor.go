package ffmpeg

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"clipforge/internal/detect"
)

// Motion analysis settings: frames are sampled twice a second and downscaled
// hard before differencing, which keeps decoding cheap without losing the
// large-scale motion that marks team fights.
const (
	motionSampleFPS = 2.0
	motionWidth     = 160
	motionHeight    = 90
)

// SignalExtractor derives fixed-interval audio and motion energy series from
// one source video. It implements detect.SignalReader.
type SignalExtractor struct {
	exec       *Executor
	logger     zerolog.Logger
	path       string
	sampleRate int
	hasAudio   bool
}

// NewSignalExtractor wraps a probed video for signal extraction. hasAudio
// comes from the probe; a silent source degrades to motion-only detection
// instead of failing.
func NewSignalExtractor(exec *Executor, logger zerolog.Logger, path string, sampleRate int, hasAudio bool) *SignalExtractor {
	return &SignalExtractor{
		exec:       exec,
		logger:     logger.With().Str("component", "signal-extractor").Logger(),
		path:       path,
		sampleRate: sampleRate,
		hasAudio:   hasAudio,
	}
}

// AudioEnergy returns per-interval RMS amplitude of the decoded audio. A
// video with no audio track yields an all-zero series.
func (x *SignalExtractor) AudioEnergy(ctx context.Context, interval, duration float64) (detect.TimeSeries, error) {
	n := detect.SeriesLength(duration, interval)
	if !x.hasAudio {
		x.logger.Debug().Str("video", x.path).Msg("no audio track, using zero audio series")
		return detect.TimeSeries{Interval: interval, Values: make([]float64, n)}, nil
	}

	x.logger.Debug().Str("video", x.path).Msg("extracting audio energy")

	acc := newIntervalAccum(interval, n)
	sampleIdx := 0
	err := x.exec.StreamAudio(ctx, x.path, x.sampleRate, func(samples []int16) error {
		for _, s := range samples {
			t := float64(sampleIdx) / float64(x.sampleRate)
			v := float64(s) / 32768.0
			acc.add(t, v*v)
			sampleIdx++
		}
		return nil
	})
	if err != nil {
		return detect.TimeSeries{}, err
	}

	series := acc.series(func(sum, count float64) float64 {
		return math.Sqrt(sum / count)
	})
	return series, nil
}

// MotionEnergy returns per-interval mean absolute pixel difference between
// consecutive downscaled grayscale frames. Fewer than two decodable frames
// yields an all-zero series.
func (x *SignalExtractor) MotionEnergy(ctx context.Context, interval, duration float64) (detect.TimeSeries, error) {
	n := detect.SeriesLength(duration, interval)

	x.logger.Debug().Str("video", x.path).Msg("extracting motion energy")

	acc := newIntervalAccum(interval, n)
	var prev []byte
	frameIdx := 0
	err := x.exec.StreamGrayFrames(ctx, x.path, motionSampleFPS, motionWidth, motionHeight, func(frame []byte) error {
		if prev == nil {
			prev = make([]byte, len(frame))
		} else {
			t := float64(frameIdx) / motionSampleFPS
			acc.add(t, meanAbsDiff(prev, frame))
		}
		copy(prev, frame)
		frameIdx++
		return nil
	})
	if err != nil {
		return detect.TimeSeries{}, err
	}

	series := acc.series(func(sum, count float64) float64 {
		return sum / count
	})
	return series, nil
}

func meanAbsDiff(a, b []byte) float64 {
	if len(a) == 0 {
		return 0
	}
	var total int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		if d < 0 {
			d = -d
		}
		total += d
	}
	return float64(total) / float64(len(a))
}

// intervalAccum bins (time, value) observations onto a fixed-interval grid.
type intervalAccum struct {
	interval float64
	sums     []float64
	counts   []float64
}

func newIntervalAccum(interval float64, n int) *intervalAccum {
	return &intervalAccum{
		interval: interval,
		sums:     make([]float64, n),
		counts:   make([]float64, n),
	}
}

func (a *intervalAccum) add(t, v float64) {
	if len(a.sums) == 0 || t < 0 {
		return
	}
	i := int(t / a.interval)
	if i >= len(a.sums) {
		i = len(a.sums) - 1
	}
	a.sums[i] += v
	a.counts[i]++
}

// series reduces each bin with fn and edge-pads bins that received no
// observations (e.g. intervals past the last decoded frame) with the nearest
// earlier value.
func (a *intervalAccum) series(fn func(sum, count float64) float64) detect.TimeSeries {
	values := make([]float64, len(a.sums))
	last := 0.0
	for i := range a.sums {
		if a.counts[i] > 0 {
			last = fn(a.sums[i], a.counts[i])
		}
		values[i] = last
	}
	return detect.TimeSeries{Interval: a.interval, Values: values}
}
