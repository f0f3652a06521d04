package game

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal"
)

// =============================================================================
// ROOM REGISTRY
// =============================================================================

// Registry owns the list of rooms. A room's id is its index here; rooms are
// never removed, so ids stay valid for the life of the process.
type Registry struct {
	mu        sync.RWMutex
	rooms     []*Room
	byName    map[string]*Room
	timeLimit time.Duration
}

func NewRegistry(timeLimit time.Duration) *Registry {
	if timeLimit <= 0 {
		timeLimit = internal.DefaultTimeLimit
	}
	return &Registry{
		rooms:     make([]*Room, 0),
		byName:    make(map[string]*Room),
		timeLimit: timeLimit,
	}
}

func (g *Registry) Create(name string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.Contains(name, internal.FieldSeparator) {
		return nil, internal.ErrInvalidName
	}
	if _, exists := g.byName[name]; exists {
		return nil, internal.ErrRoomExists
	}

	room := newRoom(len(g.rooms), name, g.timeLimit)
	g.rooms = append(g.rooms, room)
	g.byName[name] = room

	log.Info().Str("room", name).Int("id", room.ID).Dur("time_limit", g.timeLimit).
		Msg("[CreateRoom] Created new room")
	return room, nil
}

func (g *Registry) Get(id int) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if id < 0 || id >= len(g.rooms) {
		return nil, internal.ErrRoomNotFound
	}
	return g.rooms[id], nil
}

// Rooms returns the rooms in id order. The registry lock is released before
// callers take any room lock.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Room(nil), g.rooms...)
}

func (g *Registry) List() []internal.RoomSummary {
	rooms := g.Rooms()
	summaries := make([]internal.RoomSummary, len(rooms))
	for i, room := range rooms {
		summaries[i] = room.Summary()
	}
	return summaries
}

func (g *Registry) Playing() []*Room {
	var playing []*Room
	for _, room := range g.Rooms() {
		if room.State() == internal.StatePlaying {
			playing = append(playing, room)
		}
	}
	return playing
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
