package game

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal"
)

// =============================================================================
// GUESS HANDLING
// =============================================================================

// Guess applies a letter for sessionID under the room lock. Guesses from
// non-players, or while no round is running, are ignored.
func (r *Room) Guess(sessionID string, letter rune, now time.Time) internal.GuessResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != internal.StatePlaying {
		return internal.GuessIgnored
	}
	p := r.playerLocked(sessionID)
	if p == nil {
		return internal.GuessIgnored
	}

	result := p.Guess(r.word, letter, now)
	switch result {
	case internal.GuessSolved:
		log.Info().Str("room", r.Name).Str("player", p.Name).Dur("elapsed", p.Elapsed()).
			Msg("[Guess] Player solved the word")
	case internal.GuessEliminated:
		log.Info().Str("room", r.Name).Str("player", p.Name).Int("stage", p.Stage).
			Msg("[Guess] Player eliminated")
	case internal.GuessIgnored, internal.GuessRepeated:
	default:
		log.Debug().Str("room", r.Name).Str("player", p.Name).Str("letter", string(letter)).
			Int("stage", p.Stage).Int("revealed", p.RevealedCount()).Msg("[Guess] Letter processed")
	}
	return result
}
