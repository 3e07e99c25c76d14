package detect

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type fakeSignals struct {
	audio  TimeSeries
	motion TimeSeries
	err    error
	calls  int
}

func (f *fakeSignals) AudioEnergy(ctx context.Context, interval, duration float64) (TimeSeries, error) {
	f.calls++
	return f.audio, f.err
}

func (f *fakeSignals) MotionEnergy(ctx context.Context, interval, duration float64) (TimeSeries, error) {
	f.calls++
	return f.motion, f.err
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testParams() Params {
	return Params{
		Interval:      4,
		AudioWeight:   0.6,
		MotionWeight:  0.4,
		Sensitivity:   1,
		MinScore:      0.3,
		MinProminence: 0.1,
		MaxClips:      5,
		MinSeparation: 10,
		ClipDuration:  10,
		EventPadding:  3,
	}
}

func mustDetector(t *testing.T, params Params) *Detector {
	t.Helper()
	d, err := New(testLogger(), params)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestNewRejectsInvalidParams(t *testing.T) {
	bad := testParams()
	bad.Interval = 0
	if _, err := New(testLogger(), bad); err == nil {
		t.Error("expected error for zero interval")
	}

	bad = testParams()
	bad.AudioWeight = -1
	if _, err := New(testLogger(), bad); err == nil {
		t.Error("expected error for negative weight")
	}

	bad = testParams()
	bad.ClipDuration = 0
	if _, err := New(testLogger(), bad); err == nil {
		t.Error("expected error for zero clip duration")
	}
}

func TestDetectSilentVideoMotionOnly(t *testing.T) {
	// No audio track: the audio series is all zeros and normalizes to zeros,
	// so the composite score is motion scaled by the motion weight.
	signals := &fakeSignals{
		audio:  NewTimeSeries(4, []float64{0, 0, 0, 0, 0}),
		motion: NewTimeSeries(4, []float64{0, 0.2, 1, 0.2, 0}),
	}
	d := mustDetector(t, testParams())

	windows, err := d.Detect(context.Background(), Input{Duration: 16, Signals: signals})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}

	w := windows[0]
	if !almostEqual(w.Anchor, 8) {
		t.Errorf("anchor = %g, want 8", w.Anchor)
	}
	if !almostEqual(w.Start, 3) || !almostEqual(w.End, 13) {
		t.Errorf("window = [%g, %g], want [3, 13]", w.Start, w.End)
	}
	if w.Score == nil || !almostEqual(*w.Score, 0.4) {
		t.Errorf("score = %v, want 0.4", w.Score)
	}
	if w.Source != SourceSignal {
		t.Errorf("source = %q, want signal", w.Source)
	}
}

func TestDetectMinScoreExcludesWeakPeak(t *testing.T) {
	// Same motion peak, but the threshold sits above motionWeight*1.
	signals := &fakeSignals{
		audio:  NewTimeSeries(4, []float64{0, 0, 0, 0, 0}),
		motion: NewTimeSeries(4, []float64{0, 0.2, 1, 0.2, 0}),
	}
	params := testParams()
	params.MinScore = 0.5
	d := mustDetector(t, params)

	windows, err := d.Detect(context.Background(), Input{Duration: 16, Signals: signals})
	if err != nil {
		t.Fatalf("an empty result must not be an error, got %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("got %d windows, want 0", len(windows))
	}
}

func TestDetectAudioOnlyWeightsZeroOutMotion(t *testing.T) {
	// With all the weight on a silent audio track the composite score is
	// identically zero, so nothing clears the threshold.
	signals := &fakeSignals{
		audio:  NewTimeSeries(4, []float64{0, 0, 0, 0, 0}),
		motion: NewTimeSeries(4, []float64{0, 0.2, 1, 0.2, 0}),
	}
	params := testParams()
	params.AudioWeight = 1.0
	params.MotionWeight = 0
	d := mustDetector(t, params)

	windows, err := d.Detect(context.Background(), Input{Duration: 16, Signals: signals})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("got %d windows, want 0", len(windows))
	}
}

func TestDetectEventsTakePrecedence(t *testing.T) {
	signals := &fakeSignals{
		audio:  NewTimeSeries(4, []float64{0, 0, 0}),
		motion: NewTimeSeries(4, []float64{0, 1, 0}),
	}
	params := testParams()
	params.ClipDuration = 30
	params.MinSeparation = 3
	d := mustDetector(t, params)

	in := Input{
		Duration: 100,
		Signals:  signals,
		Events:   kills(8, 43),
	}
	windows, err := d.Detect(context.Background(), in)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	spansEqual(t, windows, [][2]float64{{5, 35}, {40, 70}})
	for i, w := range windows {
		if w.Source != SourceEvent {
			t.Errorf("window %d source = %q, want event", i, w.Source)
		}
		if w.Score != nil {
			t.Errorf("window %d has a score, event windows must not", i)
		}
	}
	if signals.calls != 0 {
		t.Errorf("signal extraction ran %d times despite events being present", signals.calls)
	}
}

func TestDetectEventNearVideoEndShifts(t *testing.T) {
	params := testParams()
	params.ClipDuration = 30
	d := mustDetector(t, params)

	windows, err := d.Detect(context.Background(), Input{Duration: 60, Events: kills(58)})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	spansEqual(t, windows, [][2]float64{{30, 60}})
}

func TestDetectSignalErrorPropagates(t *testing.T) {
	wantErr := errors.New("decode failed")
	signals := &fakeSignals{err: wantErr}
	d := mustDetector(t, testParams())

	_, err := d.Detect(context.Background(), Input{Duration: 16, Signals: signals})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestDetectRejectsNonPositiveDuration(t *testing.T) {
	d := mustDetector(t, testParams())
	if _, err := d.Detect(context.Background(), Input{Duration: 0, Signals: &fakeSignals{}}); err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestDetectDeterministic(t *testing.T) {
	params := testParams()
	d := mustDetector(t, params)

	run := func() []ClipWindow {
		signals := &fakeSignals{
			audio:  NewTimeSeries(4, []float64{0, 0.5, 0.1, 0.9, 0, 0.7, 0}),
			motion: NewTimeSeries(4, []float64{0.1, 0.8, 0, 0.3, 0.2, 0.9, 0}),
		}
		windows, err := d.Detect(context.Background(), Input{Duration: 24, Signals: signals})
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		return windows
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\n%+v\n%+v", first, second)
	}
}
