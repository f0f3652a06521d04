package game

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal"
)

// =============================================================================
// ROOM
// =============================================================================

// Room is a named lobby that hosts repeated rounds. Everything below mu is
// guarded by it; the engine goroutine and the dispatch loop both go through
// the methods here and never touch the fields directly.
type Room struct {
	ID        int
	Name      string
	TimeLimit time.Duration

	// sendMu orders snapshot fan-out between the tick loop and resync.
	sendMu sync.Mutex

	mu        sync.Mutex
	members   []internal.Member
	state     internal.RoomState
	word      string
	round     int
	players   []*internal.PlayerRound
	startedAt time.Time
	seq       uint64
	running   bool
}

func newRoom(id int, name string, timeLimit time.Duration) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		TimeLimit: timeLimit,
		members:   make([]internal.Member, 0, internal.MaxPlayersPerRoom),
		state:     internal.StateWaiting,
	}
}

func (r *Room) State() internal.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) Round() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

func (r *Room) Summary() internal.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return internal.RoomSummary{
		ID:      r.ID,
		Name:    r.Name,
		Players: len(r.members),
		State:   r.state,
	}
}

func (r *Room) Members() []internal.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.members)
}

func (r *Room) MemberIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.memberIDsLocked()
}

func (r *Room) MemberNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.members))
	for i, m := range r.members {
		names[i] = m.Name
	}
	return names
}

func (r *Room) HasMember(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexLocked(sessionID) >= 0
}

// Join adds a member. Capacity is checked before the round state.
func (r *Room) Join(m internal.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(m.SessionID) >= 0 {
		return nil
	}
	if len(r.members) >= internal.MaxPlayersPerRoom {
		return internal.ErrRoomFull
	}
	if r.state == internal.StatePlaying {
		return internal.ErrRoomInProgress
	}

	r.members = append(r.members, m)
	log.Info().Str("room", r.Name).Str("player", m.Name).Int("players", len(r.members)).
		Msg("[Join] Player joined room")
	return nil
}

// Leave removes the member at once. A round entry, if any, stays behind
// marked inactive so the ranking still lists the player.
func (r *Room) Leave(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(sessionID)
	if idx < 0 {
		return false
	}
	name := r.members[idx].Name
	r.members = slices.Delete(r.members, idx, idx+1)

	if r.state == internal.StatePlaying {
		if p := r.playerLocked(sessionID); p != nil {
			p.Active = false
		}
	}

	log.Info().Str("room", r.Name).Str("player", name).Int("players", len(r.members)).
		Str("state", string(r.state)).Msg("[Leave] Player left room")
	return true
}

func (r *Room) Rename(sessionID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx := r.indexLocked(sessionID); idx >= 0 {
		r.members[idx].Name = name
	}
}

// Owner is the member with the earliest join time. It is derived on every
// call so it follows membership changes without bookkeeping.
func (r *Room) Owner() (internal.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ownerLocked()
}

func (r *Room) ownerLocked() (internal.Member, bool) {
	if len(r.members) == 0 {
		return internal.Member{}, false
	}
	owner := r.members[0]
	for _, m := range r.members[1:] {
		if m.JoinedAt.Before(owner.JoinedAt) {
			owner = m
		}
	}
	return owner, true
}

func (r *Room) indexLocked(sessionID string) int {
	return slices.IndexFunc(r.members, func(m internal.Member) bool {
		return m.SessionID == sessionID
	})
}

func (r *Room) playerLocked(sessionID string) *internal.PlayerRound {
	for _, p := range r.players {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

func (r *Room) memberIDsLocked() []string {
	ids := make([]string, len(r.members))
	for i, m := range r.members {
		ids[i] = m.SessionID
	}
	return ids
}
