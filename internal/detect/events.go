package detect

import "sort"

// Event is an externally logged game event, ordered by timestamp by the
// collaborator. Timestamps are not guaranteed unique or spaced apart.
type Event struct {
	Time float64 // seconds into the video
	Type string
}

// AnchorsFromEvents converts an ordered event list into candidate anchor
// timestamps. Events within minSeparation of an already-accepted anchor are
// dropped, first occurrence wins, and the earliest maxClips survive the cap.
// Chronological priority is deliberate: unlike score peaks, events carry no
// confidence signal to rank by.
func AnchorsFromEvents(events []Event, minSeparation float64, maxClips int) []float64 {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	var anchors []float64
	for _, e := range sorted {
		if maxClips > 0 && len(anchors) >= maxClips {
			break
		}
		tooClose := false
		for _, a := range anchors {
			if abs(e.Time-a) < minSeparation {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		anchors = append(anchors, e.Time)
	}
	return anchors
}
