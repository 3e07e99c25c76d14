package riot

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/events"
)

// Recorder polls the Live Client Data API during a match and accumulates
// kill events with wall-clock timestamps. Run it alongside the recording
// software; the resulting file drives event-based clip extraction.
type Recorder struct {
	logger zerolog.Logger
	client *Client

	pollInterval time.Duration
	retryDelay   time.Duration

	seen         map[int]bool
	log          events.Log
	connected    bool
	disconnected bool
}

// NewRecorder creates a recorder around a live client.
func NewRecorder(logger zerolog.Logger, client *Client) *Recorder {
	return &Recorder{
		logger:       logger.With().Str("component", "events-recorder").Logger(),
		client:       client,
		pollInterval: time.Second,
		retryDelay:   2 * time.Second,
		seen:         make(map[int]bool),
	}
}

// Run polls until the context is cancelled, then writes the accumulated
// events to outputPath. Nothing is written when no kills were seen.
func (r *Recorder) Run(ctx context.Context, outputPath string) error {
	r.logger.Info().Msg("waiting for an active match")

	for {
		delay := r.pollInterval

		data, err := r.client.AllGameData(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			r.disconnected = true
			delay = r.retryDelay
		} else {
			r.ingest(data, time.Now())
		}

		select {
		case <-ctx.Done():
			return r.flush(outputPath)
		case <-time.After(delay):
		}
	}
	return r.flush(outputPath)
}

// ingest folds one polled payload into the event log.
func (r *Recorder) ingest(data *GameData, now time.Time) {
	// Reconnecting after a gap means a new game: event ids restart.
	if r.disconnected && r.connected {
		r.seen = make(map[int]bool)
		r.logger.Info().Msg("new game detected, resetting event tracking")
	}
	r.disconnected = false

	if !r.connected {
		r.connected = true
		r.log.SessionStart = float64(now.Unix())
		r.logger.Info().Msg("connected to game")
	}

	for _, ev := range data.GameEvents() {
		if r.seen[ev.EventID] {
			continue
		}
		r.seen[ev.EventID] = true

		switch ev.EventName {
		case "GameStart":
			r.log.GameStartTime = ev.EventTime
			r.logger.Info().Float64("game_time", ev.EventTime).Msg("game started")
		case events.EventChampionKill:
			killer := ev.KillerName
			if killer == "" {
				killer = data.PlayerName(ev.KillerID)
			}
			r.log.Events = append(r.log.Events, events.Record{
				Type:       events.EventChampionKill,
				GameTime:   ev.EventTime,
				WallClock:  float64(now.UnixNano()) / float64(time.Second),
				EventID:    ev.EventID,
				KillerName: killer,
				VictimName: ev.VictimName,
			})
			r.logger.Info().
				Str("killer", killer).
				Str("victim", ev.VictimName).
				Float64("game_time", ev.EventTime).
				Msg("kill recorded")
		}
	}
}

func (r *Recorder) flush(outputPath string) error {
	if len(r.log.Events) == 0 {
		r.logger.Info().Msg("no kill events recorded")
		return nil
	}

	r.log.TotalKills = len(r.log.Events)
	data, err := json.MarshalIndent(&r.log, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return err
	}
	r.logger.Info().Int("kills", r.log.TotalKills).Str("file", outputPath).Msg("events saved")
	return nil
}
