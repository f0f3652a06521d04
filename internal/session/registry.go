package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/scythe504/hangman-rooms/internal"
)

var ErrSessionNotFound = errors.New("session: not found")

// Registry owns every live session. All metadata changes go through it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	rateLimit rate.Limit
	rateBurst int
	now       func() time.Time
}

func NewRegistry(rateLimit float64, rateBurst int) *Registry {
	limit := rate.Limit(rateLimit)
	if rateLimit <= 0 {
		limit = rate.Inf
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		rateLimit: limit,
		rateBurst: rateBurst,
		now:       time.Now,
	}
}

func (r *Registry) Register(conn Conn) Info {
	s := &Session{
		ID:      uuid.NewString(),
		RoomID:  internal.NoRoom,
		conn:    conn,
		limiter: rate.NewLimiter(r.rateLimit, r.rateBurst),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	total := len(r.sessions)
	r.mu.Unlock()

	log.Info().Str("session", s.ID).Str("addr", conn.RemoteAddr()).Int("total", total).
		Msg("[Register] Session registered")
	return s.info()
}

func (r *Registry) Lookup(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Info{}, false
	}
	return s.info(), true
}

// SetName assigns a display name. The name must not be held by any other session.
func (r *Registry) SetName(id, name string) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Info{}, ErrSessionNotFound
	}
	if strings.Contains(name, internal.FieldSeparator) {
		return s.info(), internal.ErrInvalidName
	}

	for otherID, other := range r.sessions {
		if otherID != id && other.Name == name {
			return s.info(), fmt.Errorf("%w: %s", internal.ErrNameTaken, name)
		}
	}

	s.Name = name
	s.JoinedAt = r.now()
	return s.info(), nil
}

func (r *Registry) SetRoom(id string, roomID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.RoomID = roomID
	}
}

func (r *Registry) SetReady(id string, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.ReadyForNext = ready
	}
}

// Remove drops the session and closes its transport.
func (r *Registry) Remove(id string) (Info, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	total := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return Info{}, false
	}

	if err := s.conn.Close(); err != nil {
		log.Debug().Str("session", id).Err(err).Msg("[Remove] Close failed")
	}
	log.Info().Str("session", id).Str("player", s.Name).Int("total", total).
		Msg("[Remove] Session removed")
	return s.info(), true
}

// Allow consumes one token from the session's command limiter.
func (r *Registry) Allow(id string) bool {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	return s.limiter.Allow()
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) All() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, s.info())
	}
	return infos
}

// =============================================================================
// SENDING
// =============================================================================

func (r *Registry) Send(id, line string) error {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return ErrSessionNotFound
	}
	return s.conn.Send(line)
}

// SendMany delivers the same line to each id, skipping ids that are gone.
func (r *Registry) SendMany(ids []string, line string) int {
	r.mu.RLock()
	conns := make([]Conn, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.sessions[id]; ok {
			conns = append(conns, s.conn)
		}
	}
	r.mu.RUnlock()

	return deliver(conns, line)
}

func (r *Registry) Broadcast(line string) int {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.sessions))
	for _, s := range r.sessions {
		conns = append(conns, s.conn)
	}
	r.mu.RUnlock()

	return deliver(conns, line)
}

func deliver(conns []Conn, line string) int {
	sent := 0
	for _, c := range conns {
		if err := c.Send(line); err != nil {
			log.Debug().Str("addr", c.RemoteAddr()).Err(err).Msg("[Broadcast] Send failed")
			continue
		}
		sent++
	}
	return sent
}
