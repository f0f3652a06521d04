package game

import (
	"context"
	"sync"
	"time"

	"github.com/scythe504/hangman-rooms/internal"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixedWord string

func (w fixedWord) Pick() string { return string(w) }

func member(id string, joinedOffset time.Duration) internal.Member {
	return internal.Member{SessionID: id, Name: id, JoinedAt: baseTime.Add(joinedOffset)}
}

// roomWith returns a waiting room holding the given members, joined one
// second apart in argument order.
func roomWith(ids ...string) *Room {
	room := newRoom(0, "lobby", internal.DefaultTimeLimit)
	for i, id := range ids {
		if err := room.Join(member(id, time.Duration(i)*time.Second)); err != nil {
			panic(err)
		}
	}
	return room
}

type event struct {
	kind       string
	recipients []string
	text       string
	snap       Snapshot
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *recordingNotifier) add(e event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) GameState(snap Snapshot) {
	n.add(event{kind: "game", recipients: snap.Recipients, snap: snap})
}

func (n *recordingNotifier) ReturnToLobby(recipients []string) {
	n.add(event{kind: "lobby", recipients: recipients})
}

func (n *recordingNotifier) Ranking(recipients []string, text string) {
	n.add(event{kind: "ranking", recipients: recipients, text: text})
}

func (n *recordingNotifier) RoomsChanged() {
	n.add(event{kind: "rooms"})
}

func (n *recordingNotifier) Events() []event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]event(nil), n.events...)
}

func (n *recordingNotifier) Kinds() []string {
	var kinds []string
	for _, e := range n.Events() {
		if len(kinds) > 0 && kinds[len(kinds)-1] == e.kind && e.kind == "game" {
			continue
		}
		kinds = append(kinds, e.kind)
	}
	return kinds
}

func (n *recordingNotifier) Find(kind string) (event, bool) {
	for _, e := range n.Events() {
		if e.kind == kind {
			return e, true
		}
	}
	return event{}, false
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []internal.RoundRecord
}

func (m *memoryRecorder) RecordRound(_ context.Context, record internal.RoundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryRecorder) Records() []internal.RoundRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]internal.RoundRecord(nil), m.records...)
}
