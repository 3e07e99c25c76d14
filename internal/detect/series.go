package detect

import "fmt"

// TimeSeries is a fixed-interval sequence of samples. Timestamp of sample i
// is i*Interval seconds. Producers hand out fresh slices; treat a series as
// immutable once built.
type TimeSeries struct {
	Interval float64 // seconds between samples
	Values   []float64
}

// NewTimeSeries copies values into a fresh series.
func NewTimeSeries(interval float64, values []float64) TimeSeries {
	out := make([]float64, len(values))
	copy(out, values)
	return TimeSeries{Interval: interval, Values: out}
}

// Len returns the number of samples.
func (s TimeSeries) Len() int { return len(s.Values) }

// Timestamp returns the time in seconds of sample i.
func (s TimeSeries) Timestamp(i int) float64 { return float64(i) * s.Interval }

// SeriesLength returns the sample count for a video of the given duration,
// floor(duration/interval)+1.
func SeriesLength(duration, interval float64) int {
	if duration < 0 || interval <= 0 {
		return 0
	}
	return int(duration/interval) + 1
}

// Normalize rescales a series onto [0,1] with min-max scaling. A constant
// series maps to all zeros. The input is never mutated.
func Normalize(s TimeSeries) TimeSeries {
	out := TimeSeries{Interval: s.Interval, Values: make([]float64, len(s.Values))}
	if len(s.Values) == 0 {
		return out
	}

	min, max := s.Values[0], s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return out
	}

	span := max - min
	for i, v := range s.Values {
		out.Values[i] = (v - min) / span
	}
	return out
}

// Combine produces the composite score series as the pointwise weighted sum
// of two normalized series sharing a timestamp grid. Weights are not
// re-normalized; with inputs in [0,1] the output is bounded by
// audioWeight+motionWeight.
func Combine(audio, motion TimeSeries, audioWeight, motionWeight float64) (TimeSeries, error) {
	if audio.Len() != motion.Len() || audio.Interval != motion.Interval {
		return TimeSeries{}, fmt.Errorf("series grids differ: audio %d@%gs vs motion %d@%gs",
			audio.Len(), audio.Interval, motion.Len(), motion.Interval)
	}

	out := TimeSeries{Interval: audio.Interval, Values: make([]float64, audio.Len())}
	for i := range audio.Values {
		out.Values[i] = audioWeight*audio.Values[i] + motionWeight*motion.Values[i]
	}
	return out, nil
}
