// Package broadcast fans protocol lines out to sessions.
package broadcast

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal/game"
	"github.com/scythe504/hangman-rooms/internal/protocol"
	"github.com/scythe504/hangman-rooms/internal/session"
	"github.com/scythe504/hangman-rooms/internal/utils"
)

// Notifier holds no state of its own. It reads the registries at send time.
type Notifier struct {
	sessions *session.Registry
	rooms    *game.Registry
}

var _ game.Notifier = (*Notifier)(nil)

func New(sessions *session.Registry, rooms *game.Registry) *Notifier {
	return &Notifier{sessions: sessions, rooms: rooms}
}

// RoomList sends the ROOMS line to every session.
func (n *Notifier) RoomList() {
	n.sessions.Broadcast(n.RoomsLine())
}

func (n *Notifier) RoomsLine() string {
	summaries := n.rooms.List()
	entries := make([]protocol.RoomEntry, len(summaries))
	for i, s := range summaries {
		entries[i] = protocol.RoomEntry{Name: s.Name, Players: s.Players, Playing: s.Playing()}
	}
	return protocol.Rooms(entries)
}

// RoomsChanged satisfies game.Notifier.
func (n *Notifier) RoomsChanged() {
	n.RoomList()
}

func (n *Notifier) RoomMembers(room *game.Room) {
	n.sessions.SendMany(room.MemberIDs(), protocol.RoomPlayers(room.MemberNames()))
}

// GameState encodes the snapshot once per recipient. A recipient sees the
// letters of its own board only; everyone else's progress is fully masked.
func (n *Notifier) GameState(snap game.Snapshot) {
	for _, id := range snap.Recipients {
		if err := n.sessions.Send(id, GameLine(snap, id)); err != nil {
			log.Debug().Str("session", id).Str("room", snap.RoomName).Err(err).
				Msg("[GameState] Send failed")
		}
	}
	log.Debug().Str("room", snap.RoomName).Uint64("seq", snap.Seq).Int("recipients", len(snap.Recipients)).
		Msg("[GameState] Snapshot sent")
}

// GameLine renders snap as seen by viewerID.
func GameLine(snap game.Snapshot, viewerID string) string {
	state := protocol.GameState{
		WordLength: snap.WordLength,
		TimeLeft:   secondsLeft(snap.TimeLeft),
		Players:    make([]protocol.PlayerEntry, len(snap.Players)),
	}
	for i, p := range snap.Players {
		progress := p.Progress
		if p.SessionID != viewerID {
			progress = utils.MaskedWord(snap.WordLength)
		}
		state.Players[i] = protocol.PlayerEntry{
			Name:         p.Name,
			Stage:        p.Stage,
			Revealed:     p.Revealed,
			WrongLetters: p.WrongLetters,
			Active:       p.Active,
			Solved:       p.Solved,
			Progress:     progress,
		}
	}
	return protocol.Game(state)
}

func (n *Notifier) ReturnToLobby(recipients []string) {
	n.sessions.SendMany(recipients, protocol.RoomLobby())
}

func (n *Notifier) Ranking(recipients []string, text string) {
	n.sessions.SendMany(recipients, protocol.RankingFull(text))
}

func (n *Notifier) Chat(room *game.Room, sender, text string) {
	n.sessions.SendMany(room.MemberIDs(), protocol.Chat(sender, text))
}

// secondsLeft rounds up so a fresh round shows the full limit.
func secondsLeft(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
