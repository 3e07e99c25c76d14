package detect

import "sort"

// Peak is a candidate highlight moment on the score series.
type Peak struct {
	Time       float64
	Score      float64
	Prominence float64
}

// PeakParams controls peak selection.
type PeakParams struct {
	// Sensitivity in [0,1]; higher narrows the local-max neighborhood and
	// therefore surfaces more candidates. The exact width curve is a tuned
	// heuristic, not a contract.
	Sensitivity   float64
	MinScore      float64
	MinProminence float64
	// MaxClips caps the number of accepted peaks; zero or negative means
	// no cap.
	MaxClips int
	// MinSeparation is the minimum distance in seconds between accepted
	// peaks, normally derived from the target clip duration.
	MinSeparation float64
}

// neighborhoodRadius maps sensitivity to a local-max window radius in
// samples. Sensitivity 1 compares only immediate neighbors; lower values
// widen the window and suppress smaller peaks.
func neighborhoodRadius(sensitivity float64) int {
	if sensitivity < 0 {
		sensitivity = 0
	}
	if sensitivity > 1 {
		sensitivity = 1
	}
	return 1 + int((1-sensitivity)*4)
}

// SelectPeaks finds well-separated, prominent local maxima. Candidates are
// ranked by score descending and accepted greedily while they respect
// MinSeparation against already-accepted peaks; score ties break toward the
// earlier timestamp. The result is ordered by time. An empty result is a
// valid outcome, not an error.
func SelectPeaks(s TimeSeries, p PeakParams) []Peak {
	candidates := candidatePeaks(s, p)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Time < candidates[j].Time
	})

	var accepted []Peak
	for _, c := range candidates {
		if p.MaxClips > 0 && len(accepted) >= p.MaxClips {
			break
		}
		conflict := false
		for _, a := range accepted {
			if abs(c.Time-a.Time) < p.MinSeparation {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		accepted = append(accepted, c)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Time < accepted[j].Time })
	return accepted
}

// candidatePeaks returns every interior local maximum over the
// sensitivity-derived neighborhood that clears both quality thresholds.
func candidatePeaks(s TimeSeries, p PeakParams) []Peak {
	n := s.Len()
	if n < 3 {
		return nil
	}
	radius := neighborhoodRadius(p.Sensitivity)

	var out []Peak
	for i := 1; i < n-1; i++ {
		v := s.Values[i]
		if v < p.MinScore {
			continue
		}

		lo, hi := i-radius, i+radius
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		localMax := true
		for j := lo; j <= hi; j++ {
			if s.Values[j] > v {
				localMax = false
				break
			}
		}
		if !localMax {
			continue
		}

		prom := prominence(s.Values, i)
		if prom < p.MinProminence {
			continue
		}
		out = append(out, Peak{Time: s.Timestamp(i), Score: v, Prominence: prom})
	}
	return out
}

// prominence computes standard topographic prominence: the peak value minus
// the higher of the two saddles, where each saddle is the lowest value
// between the peak and the nearest strictly higher value on that side. A
// side with no higher value uses its minimum out to the series boundary.
func prominence(values []float64, i int) float64 {
	v := values[i]

	leftSaddle := v
	for j := i - 1; j >= 0; j-- {
		if values[j] < leftSaddle {
			leftSaddle = values[j]
		}
		if values[j] > v {
			break
		}
	}

	rightSaddle := v
	for j := i + 1; j < len(values); j++ {
		if values[j] < rightSaddle {
			rightSaddle = values[j]
		}
		if values[j] > v {
			break
		}
	}

	saddle := leftSaddle
	if rightSaddle > saddle {
		saddle = rightSaddle
	}
	return v - saddle
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
