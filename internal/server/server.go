// Package server accepts client connections and runs the command dispatch loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal"
	"github.com/scythe504/hangman-rooms/internal/broadcast"
	"github.com/scythe504/hangman-rooms/internal/game"
	"github.com/scythe504/hangman-rooms/internal/protocol"
	"github.com/scythe504/hangman-rooms/internal/session"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	// Addr is the TCP listen address of the line protocol.
	Addr string
	// HTTPAddr serves the admin routes and the websocket bridge. Empty disables it.
	HTTPAddr       string
	MaxLineLength  int
	OutboxSize     int
	ResyncInterval time.Duration
}

// HistoryReader lists recorded rounds for the /history route.
type HistoryReader interface {
	RecentRounds(ctx context.Context, limit int) ([]internal.RoundRecord, error)
}

type Deps struct {
	Sessions *session.Registry
	Rooms    *game.Registry
	Notifier *broadcast.Notifier
	Engine   *game.Engine
	History  HistoryReader
}

type eventKind int

const (
	eventAccept eventKind = iota
	eventData
	eventClosed
	eventReopened
)

type event struct {
	kind eventKind
	id   string
	conn transport
	data []byte
	err  error
	room int
}

type Server struct {
	cfg      Config
	sessions *session.Registry
	rooms    *game.Registry
	notifier *broadcast.Notifier
	engine   *game.Engine
	history  HistoryReader

	events  chan event
	closing chan struct{}
	ready   chan struct{}

	// buffers is owned by the dispatch loop.
	buffers map[string]*protocol.LineBuffer

	mu       sync.Mutex
	addr     net.Addr
	httpAddr net.Addr

	wg sync.WaitGroup
}

func New(cfg Config, deps Deps) *Server {
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = protocol.DefaultMaxLineLength
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = 64
	}
	if cfg.ResyncInterval <= 0 {
		cfg.ResyncInterval = internal.DefaultResyncInterval
	}
	s := &Server{
		cfg:      cfg,
		sessions: deps.Sessions,
		rooms:    deps.Rooms,
		notifier: deps.Notifier,
		engine:   deps.Engine,
		history:  deps.History,
		events:   make(chan event, 256),
		closing:  make(chan struct{}),
		ready:    make(chan struct{}),
		buffers:  make(map[string]*protocol.LineBuffer),
	}
	if s.engine != nil {
		s.engine.OnReopen(s.reopened)
	}
	return s
}

// Ready is closed once every listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) HTTPAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpAddr
}

// Serve binds the listeners and runs the dispatch loop until ctx is cancelled.
// Bind failures are returned before any client is accepted.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	var httpSrv *http.Server
	if s.cfg.HTTPAddr != "" {
		hl, err := net.Listen("tcp", s.cfg.HTTPAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen %s: %w", s.cfg.HTTPAddr, err)
		}
		httpSrv = &http.Server{
			Handler:           s.RegisterRoutes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.mu.Lock()
		s.httpAddr = hl.Addr()
		s.mu.Unlock()

		go func() {
			if err := httpSrv.Serve(hl); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("[Serve] HTTP server stopped")
			}
		}()
		log.Info().Str("addr", hl.Addr().String()).Msg("[Serve] HTTP listening")
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	close(s.ready)
	log.Info().Str("addr", ln.Addr().String()).Msg("[Serve] TCP listening")

	s.wg.Add(1)
	go s.acceptLoop(ln)

	s.loop(ctx)

	log.Info().Msg("[Serve] Shutting down")
	ln.Close()
	close(s.closing)

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("[Serve] HTTP shutdown incomplete")
		}
	}

	for _, info := range s.sessions.All() {
		s.sessions.Remove(info.ID)
	}
	s.wg.Wait()
	s.engine.Wait()
	log.Info().Msg("[Serve] Shutdown complete")
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn().Err(err).Msg("[acceptLoop] Accept failed")
			continue
		}
		s.admit(newTCPConn(conn, s.cfg.OutboxSize))
	}
}

// admit hands a new transport to the dispatch loop.
func (s *Server) admit(conn transport) {
	if !s.post(event{kind: eventAccept, conn: conn}) {
		conn.Close()
	}
}

// reopened runs on the room loop; the ready check happens on the dispatch loop.
func (s *Server) reopened(room *game.Room) {
	s.post(event{kind: eventReopened, room: room.ID})
}

// post delivers an event to the loop. It reports false once the server is shutting down.
func (s *Server) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.closing:
		return false
	}
}

func (s *Server) readPump(id string, conn transport) {
	for {
		data, err := conn.Read()
		if err != nil {
			s.post(event{kind: eventClosed, id: id, err: err})
			return
		}
		if !s.post(event{kind: eventData, id: id, data: data}) {
			return
		}
	}
}

// =============================================================================
// DISPATCH LOOP
// =============================================================================

func (s *Server) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ResyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.handleEvent(ev)
		case <-ticker.C:
			s.resync()
		}
	}
}

func (s *Server) handleEvent(ev event) {
	switch ev.kind {
	case eventAccept:
		info := s.sessions.Register(ev.conn)
		s.buffers[info.ID] = protocol.NewLineBuffer(s.cfg.MaxLineLength)
		s.sessions.Send(info.ID, protocol.Welcome(protocol.WelcomeText))
		go s.readPump(info.ID, ev.conn)

	case eventData:
		buf, ok := s.buffers[ev.id]
		if !ok {
			return
		}
		lines, err := buf.Feed(ev.data)
		for _, line := range lines {
			s.dispatch(ev.id, line)
		}
		if err != nil {
			log.Warn().Str("session", ev.id).Err(err).Msg("[handleEvent] Dropping connection")
			s.disconnect(ev.id)
		}

	case eventClosed:
		log.Debug().Str("session", ev.id).Err(ev.err).Msg("[handleEvent] Connection closed")
		s.disconnect(ev.id)

	case eventReopened:
		if room, err := s.rooms.Get(ev.room); err == nil {
			s.rematchIfReady(room)
		}
	}
}

// resync re-sends the room list and the state of every playing room so
// clients recover from missed updates.
func (s *Server) resync() {
	s.notifier.RoomList()
	for _, room := range s.rooms.Playing() {
		s.engine.Resync(room)
	}
}

// disconnect detaches the session from its room and forgets it.
func (s *Server) disconnect(id string) {
	delete(s.buffers, id)

	info, ok := s.sessions.Lookup(id)
	if !ok {
		return
	}
	left := s.detach(info)
	s.sessions.Remove(id)

	if left != nil {
		s.notifier.RoomMembers(left)
	}
	s.notifier.RoomList()
}
