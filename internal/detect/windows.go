package detect

import "sort"

// Source tags which detection path produced a window.
type Source string

const (
	SourceSignal Source = "signal"
	SourceEvent  Source = "event"
)

// Anchor is a timestamp around which a clip window is centered, carrying a
// score only when it came from the signal path.
type Anchor struct {
	Time   float64
	Score  *float64 // nil for event-sourced anchors
	Source Source
}

// ClipWindow is a bounded highlight window. Invariants: 0 <= Start < End <=
// video duration; the final list for one video is pairwise non-overlapping
// and sorted by start time.
type ClipWindow struct {
	Start  float64
	End    float64
	Anchor float64
	Score  *float64
	Source Source
}

// BuildWindows expands anchors into clip windows of length clipDuration
// centered on each anchor. Windows overflowing a video boundary are shifted
// back inside, not shrunk; only when the video itself is shorter than
// clipDuration does the window collapse to the whole video. Clamping near
// the boundaries of short videos can make windows collide, so non-overlap is
// re-enforced afterwards: the lower-scoring window loses, and between
// scoreless (event) windows the later anchor loses. Output is sorted by
// start ascending so downstream extraction numbers clips chronologically.
func BuildWindows(anchors []Anchor, videoDuration, clipDuration float64) []ClipWindow {
	if videoDuration <= 0 || clipDuration <= 0 {
		return nil
	}

	windows := make([]ClipWindow, 0, len(anchors))
	for _, a := range anchors {
		w := placeWindow(a, videoDuration, clipDuration)
		windows = append(windows, w)
	}

	windows = dropOverlaps(windows)

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Start != windows[j].Start {
			return windows[i].Start < windows[j].Start
		}
		return windows[i].Anchor < windows[j].Anchor
	})
	return windows
}

func placeWindow(a Anchor, videoDuration, clipDuration float64) ClipWindow {
	w := ClipWindow{Anchor: a.Time, Score: a.Score, Source: a.Source}

	if clipDuration >= videoDuration {
		w.Start, w.End = 0, videoDuration
		return w
	}

	start := a.Time - clipDuration/2
	if start < 0 {
		start = 0
	}
	if start+clipDuration > videoDuration {
		start = videoDuration - clipDuration
	}
	w.Start, w.End = start, start+clipDuration
	return w
}

// dropOverlaps removes windows until no two share a time instant. When a
// pair collides the loser is the lower-scoring window; scoreless windows
// rank below scored ones, and between two scoreless windows the later
// anchor loses.
func dropOverlaps(windows []ClipWindow) []ClipWindow {
	kept := make([]ClipWindow, len(windows))
	copy(kept, windows)

	for {
		sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

		collided := -1
		for i := 1; i < len(kept); i++ {
			if kept[i].Start < kept[i-1].End {
				collided = i
				break
			}
		}
		if collided == -1 {
			return kept
		}

		loser := collided
		if windowLess(kept[collided-1], kept[collided]) {
			loser = collided - 1
		}
		kept = append(kept[:loser], kept[loser+1:]...)
	}
}

// windowLess reports whether a loses to b in an overlap.
func windowLess(a, b ClipWindow) bool {
	switch {
	case a.Score != nil && b.Score != nil:
		if *a.Score != *b.Score {
			return *a.Score < *b.Score
		}
		return a.Anchor > b.Anchor
	case a.Score == nil && b.Score == nil:
		return a.Anchor > b.Anchor
	default:
		return a.Score == nil
	}
}
