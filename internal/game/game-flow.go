package game

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal"
)

// =============================================================================
// GAME FLOW - ROUND LIFECYCLE
// =============================================================================

// WordPicker chooses the secret word for a new round.
type WordPicker interface {
	Pick() string
}

// Start begins a round on behalf of requesterID, who must be the room owner.
func (r *Room) Start(requesterID string, words WordPicker, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != internal.StateWaiting || r.running {
		return internal.ErrRoomInProgress
	}
	if len(r.members) < internal.MinPlayersToStart {
		return internal.ErrInsufficientPlayers
	}
	if owner, _ := r.ownerLocked(); owner.SessionID != requesterID {
		return &internal.NotOwnerError{Owner: owner.Name}
	}

	r.beginLocked(words.Pick(), now)
	return nil
}

// Rematch begins a round without an owner check, once every member asked for one.
func (r *Room) Rematch(words WordPicker, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != internal.StateWaiting || r.running {
		return internal.ErrRoomInProgress
	}
	if len(r.members) < internal.MinPlayersToStart {
		return internal.ErrInsufficientPlayers
	}

	r.beginLocked(words.Pick(), now)
	return nil
}

func (r *Room) beginLocked(word string, now time.Time) {
	r.state = internal.StatePlaying
	r.running = true
	r.round++
	r.word = word
	r.startedAt = now

	r.players = make([]*internal.PlayerRound, 0, len(r.members))
	for _, m := range r.members {
		r.players = append(r.players, internal.NewPlayerRound(m, word, now))
	}

	log.Info().Str("room", r.Name).Int("round", r.round).Int("players", len(r.players)).
		Str("word", word).Msg("[StartRound] Round started")
}

// finishedLocked evaluates the end-of-round predicate: the time limit first,
// then whether at most one player can still win.
func (r *Room) finishedLocked(now time.Time) bool {
	if now.Sub(r.startedAt) >= r.TimeLimit {
		return true
	}

	contesting := 0
	for _, p := range r.players {
		if p.Contesting() {
			contesting++
		}
	}
	return contesting <= 1
}

// tick builds the snapshot for this tick and, if the round is over, moves
// the room to Finished and returns the record to publish.
func (r *Room) tick(now time.Time) (Snapshot, internal.RoundRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshotLocked(now)
	if r.state != internal.StatePlaying || !r.finishedLocked(now) {
		return snap, internal.RoundRecord{}, false
	}

	r.state = internal.StateFinished
	record := internal.RoundRecord{
		Room:      r.Name,
		Round:     r.round,
		Word:      r.word,
		StartedAt: r.startedAt,
		EndedAt:   now,
		Standings: BuildRanking(r.players),
	}

	log.Info().Str("room", r.Name).Int("round", r.round).Dur("elapsed", now.Sub(r.startedAt)).
		Msg("[FinishRound] Round finished")
	return snap, record, true
}

// reset clears round data and reopens the room for the next START.
func (r *Room) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = internal.StateWaiting
	r.running = false
	r.players = nil
	r.word = ""
	r.startedAt = time.Time{}
}
