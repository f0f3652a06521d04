package server

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal"
	"github.com/scythe504/hangman-rooms/internal/game"
	"github.com/scythe504/hangman-rooms/internal/protocol"
	"github.com/scythe504/hangman-rooms/internal/session"
)

const readyReply = "Ready for the next round"

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

func (s *Server) dispatch(id, line string) {
	cmd, ok, err := protocol.Parse(line)
	if !ok {
		return
	}

	if !s.sessions.Allow(id) {
		log.Warn().Str("session", id).Msg("[dispatch] Rate limit exceeded")
		s.reply(id, protocol.Error(internal.ErrRateLimited))
		return
	}
	if err != nil {
		s.reply(id, protocol.Error(err))
		return
	}
	if cmd.Malformed {
		log.Debug().Str("session", id).Str("verb", string(cmd.Verb)).Msg("[dispatch] Ignoring malformed command")
		return
	}

	info, ok := s.sessions.Lookup(id)
	if !ok {
		return
	}

	switch cmd.Verb {
	case protocol.VerbName:
		s.handleName(info, cmd.Text)
	case protocol.VerbCreate:
		s.handleCreate(info, cmd.Text)
	case protocol.VerbJoin:
		s.handleJoin(info, cmd.RoomID)
	case protocol.VerbLeave:
		s.handleLeave(info)
	case protocol.VerbStart:
		s.handleStart(info)
	case protocol.VerbGuess:
		s.handleGuess(info, cmd.Letter)
	case protocol.VerbReady:
		s.handleReady(info)
	case protocol.VerbChat:
		s.handleChat(info, cmd.Text)
	case protocol.VerbRefresh:
		s.notifier.RoomList()
	}
}

func (s *Server) reply(id, line string) {
	if err := s.sessions.Send(id, line); err != nil {
		log.Debug().Str("session", id).Err(err).Msg("[reply] Send failed")
	}
}

func (s *Server) handleName(info session.Info, name string) {
	updated, err := s.sessions.SetName(info.ID, name)
	if err != nil {
		s.reply(info.ID, protocol.Error(err))
		return
	}

	if room := s.currentRoom(updated); room != nil && info.Name != name {
		room.Rename(info.ID, name)
		s.notifier.RoomMembers(room)
	}
	log.Info().Str("session", info.ID).Str("player", name).Msg("[handleName] Nickname set")
	s.reply(info.ID, protocol.OK("Nickname set to "+name))
}

func (s *Server) handleCreate(info session.Info, name string) {
	if !info.Named() {
		s.reply(info.ID, protocol.Error(internal.ErrNotNamed))
		return
	}

	room, err := s.rooms.Create(name)
	if err != nil {
		s.reply(info.ID, protocol.Error(err))
		return
	}
	s.reply(info.ID, protocol.RoomCreated(room.ID))
	s.notifier.RoomList()
}

func (s *Server) handleJoin(info session.Info, roomID int) {
	if !info.Named() {
		s.reply(info.ID, protocol.Error(internal.ErrNotNamed))
		return
	}

	room, err := s.rooms.Get(roomID)
	if err != nil {
		s.reply(info.ID, protocol.Error(err))
		return
	}
	if info.RoomID == room.ID && room.HasMember(info.ID) {
		s.reply(info.ID, protocol.Joined(room.ID))
		return
	}

	// The old room is left only once the new one has accepted the member.
	member := internal.Member{SessionID: info.ID, Name: info.Name, JoinedAt: s.engine.Now()}
	if err := room.Join(member); err != nil {
		if errors.Is(err, internal.ErrRoomInProgress) {
			s.reply(info.ID, protocol.Waiting(err.Error()))
			return
		}
		s.reply(info.ID, protocol.Error(err))
		return
	}

	if info.RoomID != room.ID {
		if old := s.detach(info); old != nil {
			s.notifier.RoomMembers(old)
		}
	}
	s.sessions.SetRoom(info.ID, room.ID)
	s.sessions.SetReady(info.ID, false)

	s.reply(info.ID, protocol.Joined(room.ID))
	s.notifier.RoomMembers(room)
	s.notifier.RoomList()
}

func (s *Server) handleLeave(info session.Info) {
	old := s.detach(info)
	s.reply(info.ID, protocol.Left())

	if old != nil {
		s.notifier.RoomMembers(old)
	}
	s.notifier.RoomList()
}

// handleStart ignores requests from outside a room and for rooms that are
// already playing; every other refusal is reported to the requester.
func (s *Server) handleStart(info session.Info) {
	room := s.currentRoom(info)
	if room == nil {
		return
	}

	err := s.engine.StartRound(room, info.ID)
	switch {
	case err == nil:
		s.clearReady(room)
	case errors.Is(err, internal.ErrRoomInProgress):
		log.Debug().Str("room", room.Name).Str("player", info.Name).Msg("[handleStart] Round already running")
	default:
		s.reply(info.ID, protocol.Error(err))
	}
}

func (s *Server) handleGuess(info session.Info, letter rune) {
	room := s.currentRoom(info)
	if room == nil {
		return
	}
	room.Guess(info.ID, letter, s.engine.Now())
}

// handleReady marks the session ready. When every member of a waiting room
// is ready, the next round starts without a START. A READY sent while the
// room is still finishing is checked again once the room reopens.
func (s *Server) handleReady(info session.Info) {
	s.sessions.SetReady(info.ID, true)
	s.reply(info.ID, protocol.OK(readyReply))

	if room := s.currentRoom(info); room != nil {
		s.rematchIfReady(room)
	}
}

func (s *Server) handleChat(info session.Info, text string) {
	room := s.currentRoom(info)
	if room == nil {
		return
	}
	s.notifier.Chat(room, info.Name, text)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) currentRoom(info session.Info) *game.Room {
	if info.RoomID == internal.NoRoom {
		return nil
	}
	room, err := s.rooms.Get(info.RoomID)
	if err != nil {
		return nil
	}
	return room
}

// detach removes the session from its current room, if any, and returns
// that room so the caller can announce the new membership.
func (s *Server) detach(info session.Info) *game.Room {
	room := s.currentRoom(info)
	s.sessions.SetRoom(info.ID, internal.NoRoom)
	s.sessions.SetReady(info.ID, false)

	if room == nil || !room.Leave(info.ID) {
		return nil
	}
	return room
}

func (s *Server) rematchIfReady(room *game.Room) {
	if room.State() != internal.StateWaiting {
		return
	}

	members := room.MemberIDs()
	if len(members) < internal.MinPlayersToStart {
		return
	}
	for _, id := range members {
		if m, ok := s.sessions.Lookup(id); !ok || !m.ReadyForNext {
			return
		}
	}

	if err := s.engine.StartRematch(room); err != nil {
		log.Debug().Str("room", room.Name).Err(err).Msg("[rematchIfReady] Rematch not started")
		return
	}
	log.Info().Str("room", room.Name).Msg("[rematchIfReady] Every member ready, starting next round")
	s.clearReady(room)
}

func (s *Server) clearReady(room *game.Room) {
	for _, id := range room.MemberIDs() {
		s.sessions.SetReady(id, false)
	}
}
