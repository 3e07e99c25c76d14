// Package events loads game event logs recorded during play and maps them
// onto video time. A usable log short-circuits signal analysis entirely;
// anything malformed or empty falls back silently to signal detection.
package events

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"clipforge/internal/detect"
)

// EventChampionKill is the event type the clip pipeline anchors on.
const EventChampionKill = "ChampionKill"

// Log is the on-disk shape written by the events recorder.
type Log struct {
	SessionStart  float64  `json:"session_start"`
	GameStartTime float64  `json:"game_start_time"`
	Events        []Record `json:"events"`
	TotalKills    int      `json:"total_kills"`
}

// Record is one logged game event.
type Record struct {
	Type       string  `json:"type"`
	GameTime   float64 `json:"game_time"`
	WallClock  float64 `json:"wall_clock"` // unix seconds when the event happened
	EventID    int     `json:"event_id"`
	KillerName string  `json:"killer_name"`
	VictimName string  `json:"victim_name"`
}

// Load parses an events file. A missing or malformed file returns nil with
// no error: event data is best-effort and never blocks detection.
func Load(path string) *Log {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil
	}
	return &log
}

// Kills filters the log to ChampionKill records. When filterOnly is set and
// player is non-empty, only kills by that summoner survive.
func (l *Log) Kills(player string, filterOnly bool) []Record {
	if l == nil {
		return nil
	}
	player = strings.ToLower(strings.TrimSpace(player))

	var kills []Record
	for _, r := range l.Events {
		if r.Type != EventChampionKill {
			continue
		}
		if filterOnly && player != "" {
			if strings.ToLower(strings.TrimSpace(r.KillerName)) != player {
				continue
			}
		}
		kills = append(kills, r)
	}
	return kills
}

// MapToVideo converts wall-clock kill timestamps into video-relative events.
// videoStart is the unix time recording began; offset corrects for any known
// lag between recording start and the logger's clock. Events landing outside
// the video are dropped.
func MapToVideo(kills []Record, videoStart, offset, videoDuration float64) []detect.Event {
	var out []detect.Event
	for _, k := range kills {
		t := k.WallClock - videoStart + offset
		if t < 0 || t > videoDuration {
			continue
		}
		out = append(out, detect.Event{Time: t, Type: k.Type})
	}
	return out
}

// ResolvePath finds the events file: an absolute path is used as-is, a
// relative one is tried next to the video, then in the working directory.
// Empty string means not found.
func ResolvePath(configured, videoPath string) string {
	if configured == "" {
		return ""
	}
	if filepath.IsAbs(configured) {
		if fileExists(configured) {
			return configured
		}
		return ""
	}

	name := filepath.Base(configured)
	candidates := []string{
		filepath.Join(filepath.Dir(videoPath), name),
		name,
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
