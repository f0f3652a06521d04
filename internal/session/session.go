package session

import (
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var ErrClosed = errors.New("session: connection closed")

// Conn is the outbound half of a client transport. Send must not block the caller.
type Conn interface {
	Send(line string) error
	Close() error
	RemoteAddr() string
}

type Session struct {
	ID           string
	Name         string
	RoomID       int
	JoinedAt     time.Time
	ReadyForNext bool

	conn    Conn
	limiter *rate.Limiter
}

// Info is a copy of a session's metadata, safe to keep after the registry lock is released.
type Info struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	RoomID       int       `json:"room_id"`
	JoinedAt     time.Time `json:"joined_at"`
	ReadyForNext bool      `json:"ready_for_next"`
	RemoteAddr   string    `json:"remote_addr"`
}

func (s *Session) info() Info {
	return Info{
		ID:           s.ID,
		Name:         s.Name,
		RoomID:       s.RoomID,
		JoinedAt:     s.JoinedAt,
		ReadyForNext: s.ReadyForNext,
		RemoteAddr:   s.conn.RemoteAddr(),
	}
}

func (i Info) Named() bool {
	return i.Name != ""
}
