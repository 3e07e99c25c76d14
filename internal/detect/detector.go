package detect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SignalReader is the decoding collaborator boundary. Implementations stream
// decoded media and reduce it to fixed-interval energy series; a video with
// no audio track yields an all-zero audio series rather than an error.
type SignalReader interface {
	AudioEnergy(ctx context.Context, interval, duration float64) (TimeSeries, error)
	MotionEnergy(ctx context.Context, interval, duration float64) (TimeSeries, error)
}

// Params are the read-only inputs to the engine, validated once before any
// video is processed.
type Params struct {
	Interval      float64 // sampling interval in seconds
	AudioWeight   float64
	MotionWeight  float64
	Sensitivity   float64
	MinScore      float64
	MinProminence float64
	MaxClips      int
	MinSeparation float64 // seconds between accepted anchors
	ClipDuration  float64 // target window length in seconds
	// EventPadding is how many seconds of lead-in precede an event anchor,
	// so the kill lands near the start of the window rather than its middle.
	EventPadding float64
}

// Validate rejects parameter combinations that would produce nonsensical
// windows.
func (p Params) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %g", p.Interval)
	}
	if p.ClipDuration <= 0 {
		return fmt.Errorf("clip duration must be positive, got %g", p.ClipDuration)
	}
	if p.AudioWeight < 0 || p.MotionWeight < 0 {
		return fmt.Errorf("weights must be non-negative, got audio=%g motion=%g", p.AudioWeight, p.MotionWeight)
	}
	if p.MinSeparation < 0 {
		return fmt.Errorf("min separation must not be negative, got %g", p.MinSeparation)
	}
	if p.MinScore < 0 || p.MinProminence < 0 {
		return fmt.Errorf("thresholds must not be negative, got min_score=%g min_prominence=%g", p.MinScore, p.MinProminence)
	}
	if p.EventPadding < 0 {
		return fmt.Errorf("event padding must not be negative, got %g", p.EventPadding)
	}
	return nil
}

// Input is one video's worth of collaborator data. A non-empty Events list
// selects the event path; otherwise the signal path runs.
type Input struct {
	Duration float64
	Signals  SignalReader
	Events   []Event
}

// Detector runs highlight detection for one video at a time. It holds no
// per-video state, so a single Detector may serve concurrent videos.
type Detector struct {
	logger zerolog.Logger
	params Params
}

// New validates params and returns a detector.
func New(logger zerolog.Logger, params Params) (*Detector, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("detector params: %w", err)
	}
	return &Detector{
		logger: logger.With().Str("component", "detector").Logger(),
		params: params,
	}, nil
}

// Detect returns the final ordered clip window list for one video. The
// branch between event-based and signal-based detection is decided here,
// once, from collaborator data availability. An empty result means no
// qualifying highlights, not a failure.
func (d *Detector) Detect(ctx context.Context, in Input) ([]ClipWindow, error) {
	if in.Duration <= 0 {
		return nil, fmt.Errorf("video duration must be positive, got %g", in.Duration)
	}

	if len(in.Events) > 0 {
		d.logger.Info().Int("events", len(in.Events)).Msg("using event-based detection")
		return d.detectFromEvents(in), nil
	}

	d.logger.Info().Msg("using signal-based detection")
	return d.detectFromSignals(ctx, in)
}

func (d *Detector) detectFromEvents(in Input) []ClipWindow {
	p := d.params
	times := AnchorsFromEvents(in.Events, p.MinSeparation, p.MaxClips)

	// The event timestamp is the action itself, so the window opens
	// EventPadding seconds earlier instead of centering on the kill.
	anchors := make([]Anchor, 0, len(times))
	for _, t := range times {
		center := t - p.EventPadding + p.ClipDuration/2
		anchors = append(anchors, Anchor{Time: center, Source: SourceEvent})
	}

	windows := BuildWindows(anchors, in.Duration, p.ClipDuration)
	d.logger.Info().Int("anchors", len(times)).Int("windows", len(windows)).Msg("event windows built")
	return windows
}

func (d *Detector) detectFromSignals(ctx context.Context, in Input) ([]ClipWindow, error) {
	p := d.params

	audio, err := in.Signals.AudioEnergy(ctx, p.Interval, in.Duration)
	if err != nil {
		return nil, fmt.Errorf("audio energy: %w", err)
	}
	motion, err := in.Signals.MotionEnergy(ctx, p.Interval, in.Duration)
	if err != nil {
		return nil, fmt.Errorf("motion energy: %w", err)
	}

	score, err := Combine(Normalize(audio), Normalize(motion), p.AudioWeight, p.MotionWeight)
	if err != nil {
		return nil, fmt.Errorf("composite score: %w", err)
	}

	peaks := SelectPeaks(score, PeakParams{
		Sensitivity:   p.Sensitivity,
		MinScore:      p.MinScore,
		MinProminence: p.MinProminence,
		MaxClips:      p.MaxClips,
		MinSeparation: p.MinSeparation,
	})
	if len(peaks) == 0 {
		d.logger.Info().Msg("no qualifying peaks; consider raising detection.sensitivity or lowering min_score")
		return nil, nil
	}

	anchors := make([]Anchor, 0, len(peaks))
	for _, pk := range peaks {
		s := pk.Score
		anchors = append(anchors, Anchor{Time: pk.Time, Score: &s, Source: SourceSignal})
	}

	windows := BuildWindows(anchors, in.Duration, p.ClipDuration)
	d.logger.Info().Int("peaks", len(peaks)).Int("windows", len(windows)).Msg("signal windows built")
	return windows, nil
}
