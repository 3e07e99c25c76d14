// Package riot talks to the League of Legends Live Client Data API, which
// serves game state on localhost while a match is running. It is the source
// of the kill events the detection engine prefers over signal analysis.
package riot

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is where Riot exposes the Live Client Data API during an
// active match.
const DefaultBaseURL = "https://127.0.0.1:2999"

// Client fetches live game data from the local Riot endpoint.
type Client struct {
	http *http.Client
	base string
}

// NewClient builds a client for the local API. The endpoint uses a
// self-signed certificate, so TLS verification is disabled for it.
func NewClient(base string) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout: 2 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// GameData is the subset of the allgamedata payload the recorder needs.
type GameData struct {
	AllPlayers []Player        `json:"allPlayers"`
	Events     json.RawMessage `json:"events"` // object, or a JSON string containing one
	GameData   struct {
		GameTime float64 `json:"gameTime"`
	} `json:"gameData"`
}

// Player identifies a participant for killer-name resolution.
type Player struct {
	ParticipantID int    `json:"participantId"`
	SummonerName  string `json:"summonerName"`
}

// GameEvent is one entry of the live events feed.
type GameEvent struct {
	EventID    int     `json:"EventID"`
	EventName  string  `json:"EventName"`
	EventTime  float64 `json:"EventTime"`
	KillerName string  `json:"KillerName"`
	VictimName string  `json:"VictimName"`
	KillerID   int     `json:"KillerID"`
}

// AllGameData fetches the full live payload. A nil result with nil error
// never happens; callers treat any error as "no game running".
func (c *Client) AllGameData(ctx context.Context) (*GameData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/liveclientdata/allgamedata", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("live client api returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data GameData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode allgamedata: %w", err)
	}
	return &data, nil
}

// GameEvents extracts the event list, tolerating Riot's habit of returning
// the events object either inline or as an escaped JSON string.
func (d *GameData) GameEvents() []GameEvent {
	if len(d.Events) == 0 {
		return nil
	}

	raw := d.Events
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = []byte(asString)
	}

	var wrapper struct {
		Events []GameEvent `json:"Events"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	return wrapper.Events
}

// PlayerName resolves a participant id to a summoner name.
func (d *GameData) PlayerName(participantID int) string {
	for _, p := range d.AllPlayers {
		if p.ParticipantID == participantID {
			return p.SummonerName
		}
	}
	return fmt.Sprintf("Unknown#%d", participantID)
}
