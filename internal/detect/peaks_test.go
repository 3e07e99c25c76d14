package detect

import "testing"

func peakTimes(peaks []Peak) []float64 {
	out := make([]float64, len(peaks))
	for i, p := range peaks {
		out[i] = p.Time
	}
	return out
}

func timesEqual(got, want []float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !almostEqual(got[i], want[i]) {
			return false
		}
	}
	return true
}

func TestSelectPeaksSingle(t *testing.T) {
	s := NewTimeSeries(1, []float64{0, 0.2, 0.9, 0.2, 0})
	peaks := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5, MinProminence: 0.1})

	if len(peaks) != 1 {
		t.Fatalf("got %d peaks, want 1", len(peaks))
	}
	if !almostEqual(peaks[0].Time, 2) {
		t.Errorf("time = %g, want 2", peaks[0].Time)
	}
	if !almostEqual(peaks[0].Score, 0.9) {
		t.Errorf("score = %g, want 0.9", peaks[0].Score)
	}
	if !almostEqual(peaks[0].Prominence, 0.9) {
		t.Errorf("prominence = %g, want 0.9", peaks[0].Prominence)
	}
}

func TestSelectPeaksMinScore(t *testing.T) {
	s := NewTimeSeries(1, []float64{0, 0.2, 0.9, 0.2, 0})
	peaks := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.95})
	if len(peaks) != 0 {
		t.Errorf("got %d peaks, want 0", len(peaks))
	}
}

func TestSelectPeaksMinProminence(t *testing.T) {
	// The shoulder at index 1 peaks locally but only rises 0.05 above its
	// saddle toward the taller peak at index 3.
	s := NewTimeSeries(1, []float64{0.5, 0.9, 0.85, 0.95, 0.5})
	peaks := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5, MinProminence: 0.1})

	if !timesEqual(peakTimes(peaks), []float64{3}) {
		t.Errorf("got peaks at %v, want [3]", peakTimes(peaks))
	}
}

func TestSelectPeaksSeparationFavorsScore(t *testing.T) {
	s := NewTimeSeries(1, []float64{0, 0.8, 0, 0.9, 0})
	peaks := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5, MinSeparation: 3})

	// Both peaks qualify but sit 2s apart; the higher one wins the slot.
	if !timesEqual(peakTimes(peaks), []float64{3}) {
		t.Errorf("got peaks at %v, want [3]", peakTimes(peaks))
	}
}

func TestSelectPeaksTieBreaksEarlier(t *testing.T) {
	s := NewTimeSeries(1, []float64{0, 0.8, 0, 0, 0, 0.8, 0})
	peaks := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5, MinSeparation: 10})

	if !timesEqual(peakTimes(peaks), []float64{1}) {
		t.Errorf("got peaks at %v, want [1]", peakTimes(peaks))
	}
}

func TestSelectPeaksMaxClips(t *testing.T) {
	s := NewTimeSeries(1, []float64{0, 0.9, 0, 0.8, 0, 0.7, 0})

	peaks := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5, MinSeparation: 1, MaxClips: 2})
	if !timesEqual(peakTimes(peaks), []float64{1, 3}) {
		t.Errorf("capped: got peaks at %v, want [1 3]", peakTimes(peaks))
	}

	peaks = SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5, MinSeparation: 1})
	if len(peaks) != 3 {
		t.Errorf("uncapped: got %d peaks, want 3", len(peaks))
	}
}

func TestSelectPeaksSensitivityWidensNeighborhood(t *testing.T) {
	s := NewTimeSeries(1, []float64{0, 0.6, 0.5, 0.7, 0})

	high := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5, MinProminence: 0.05})
	if len(high) != 2 {
		t.Errorf("sensitivity 1: got %d peaks, want 2", len(high))
	}

	// At low sensitivity the window around index 1 includes the taller
	// index-3 peak, so only the taller peak survives.
	low := SelectPeaks(s, PeakParams{Sensitivity: 0, MinScore: 0.5, MinProminence: 0.05})
	if !timesEqual(peakTimes(low), []float64{3}) {
		t.Errorf("sensitivity 0: got peaks at %v, want [3]", peakTimes(low))
	}
}

func TestSelectPeaksBoundariesExcluded(t *testing.T) {
	s := NewTimeSeries(1, []float64{1, 0, 0, 0, 1})
	peaks := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5})
	if len(peaks) != 0 {
		t.Errorf("boundary samples reported as peaks: %v", peakTimes(peaks))
	}
}

func TestSelectPeaksTooShort(t *testing.T) {
	s := NewTimeSeries(1, []float64{0, 1})
	if peaks := SelectPeaks(s, PeakParams{Sensitivity: 1}); len(peaks) != 0 {
		t.Errorf("got %d peaks from a 2-sample series, want 0", len(peaks))
	}
}

func TestSelectPeaksOrderedByTime(t *testing.T) {
	s := NewTimeSeries(1, []float64{0, 0.7, 0, 0.9, 0, 0.8, 0})
	peaks := SelectPeaks(s, PeakParams{Sensitivity: 1, MinScore: 0.5, MinSeparation: 1})

	for i := 1; i < len(peaks); i++ {
		if peaks[i].Time <= peaks[i-1].Time {
			t.Fatalf("peaks not ordered by time: %v", peakTimes(peaks))
		}
	}
}

func TestNeighborhoodRadius(t *testing.T) {
	tests := []struct {
		sensitivity float64
		want        int
	}{
		{1, 1},
		{0.5, 3},
		{0, 5},
		{-2, 5},  // clamped
		{1.5, 1}, // clamped
	}
	for _, tt := range tests {
		if got := neighborhoodRadius(tt.sensitivity); got != tt.want {
			t.Errorf("neighborhoodRadius(%g) = %d, want %d", tt.sensitivity, got, tt.want)
		}
	}
}

func TestProminenceUsesHigherSaddle(t *testing.T) {
	// The peak at index 3 has a higher barrier on one side than the other;
	// prominence counts the easier escape route.
	values := []float64{1, 0.2, 0.4, 0.8, 0.6, 0.9}
	got := prominence(values, 3)
	if !almostEqual(got, 0.2) {
		t.Errorf("prominence = %g, want 0.2", got)
	}
}
