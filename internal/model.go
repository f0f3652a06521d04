package internal

import (
	"time"
)

const (
	DefaultTimeLimit      = 120 * time.Second
	DefaultTickInterval   = 500 * time.Millisecond
	DefaultResyncInterval = 1 * time.Second
	DefaultSettleDelay    = 100 * time.Millisecond
	MaxPlayersPerRoom     = 5
	MinPlayersToStart     = 2
	MaxHangmanStage       = 6

	// NoRoom marks a session that is not a member of any room.
	NoRoom = -1
)

type RoomState string

const (
	StateWaiting  RoomState = "waiting"
	StatePlaying  RoomState = "playing"
	StateFinished RoomState = "finished"
)

// Member is one entry of a room's ordered member list.
type Member struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	JoinedAt  time.Time `json:"joined_at"`
}

type RoomSummary struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Players int       `json:"players"`
	State   RoomState `json:"state"`
}

func (s RoomSummary) Playing() bool {
	return s.State == StatePlaying
}

// Standing is one line of a finished round's ranking.
type Standing struct {
	Rank       int           `json:"rank"`
	Name       string        `json:"name"`
	Solved     bool          `json:"solved"`
	Elapsed    time.Duration `json:"elapsed"`
	Mistakes   int           `json:"mistakes"`
	Eliminated bool          `json:"eliminated"`
}

// RoundRecord is what a finished round leaves behind for the history store.
type RoundRecord struct {
	Room      string     `json:"room"`
	Round     int        `json:"round"`
	Word      string     `json:"word"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   time.Time  `json:"ended_at"`
	Standings []Standing `json:"standings"`
}

// Response is the JSON envelope of the HTTP admin routes.
type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
