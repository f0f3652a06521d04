package game

import (
	"time"

	"github.com/scythe504/hangman-rooms/internal"
)

// Snapshot is an immutable view of a playing room taken under the room lock.
// It is built once per tick and then only read by the notifier.
type Snapshot struct {
	RoomID     int
	RoomName   string
	Round      int
	Seq        uint64
	WordLength int
	TimeLeft   time.Duration
	Recipients []string
	Players    []PlayerView
}

type PlayerView struct {
	SessionID    string
	Name         string
	Stage        int
	Revealed     int
	WrongLetters string
	Active       bool
	Solved       bool
	Progress     string
}

// Snapshot returns the current view of the round. ok is false when the room
// is not playing.
func (r *Room) Snapshot(now time.Time) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != internal.StatePlaying {
		return Snapshot{}, false
	}
	return r.snapshotLocked(now), true
}

func (r *Room) snapshotLocked(now time.Time) Snapshot {
	r.seq++

	timeLeft := max(r.TimeLimit-now.Sub(r.startedAt), 0)
	snap := Snapshot{
		RoomID:     r.ID,
		RoomName:   r.Name,
		Round:      r.round,
		Seq:        r.seq,
		WordLength: len([]rune(r.word)),
		TimeLeft:   timeLeft,
		Recipients: r.memberIDsLocked(),
		Players:    make([]PlayerView, 0, len(r.players)),
	}

	for _, p := range r.players {
		snap.Players = append(snap.Players, PlayerView{
			SessionID:    p.SessionID,
			Name:         p.Name,
			Stage:        p.Stage,
			Revealed:     p.RevealedCount(),
			WrongLetters: p.WrongString(),
			Active:       p.Active,
			Solved:       p.Solved,
			Progress:     p.Progress(r.word),
		})
	}
	return snap
}
