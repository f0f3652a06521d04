package internal

import (
	"strings"
	"time"
	"unicode"
)

// PlayerRound is one member's private hangman game within a round.
type PlayerRound struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`

	// Game state
	Stage          int    `json:"stage"`
	Revealed       []bool `json:"-"`
	WrongLetters   []rune `json:"wrong_letters"`
	CorrectLetters []rune `json:"correct_letters"`
	Solved         bool   `json:"solved"`
	Active         bool   `json:"active"`

	// Timing
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// GuessResult tells the caller what a single guess changed.
type GuessResult int

const (
	GuessIgnored GuessResult = iota
	GuessRepeated
	GuessHit
	GuessMiss
	GuessSolved
	GuessEliminated
)

func NewPlayerRound(member Member, word string, startedAt time.Time) *PlayerRound {
	return &PlayerRound{
		SessionID:      member.SessionID,
		Name:           member.Name,
		Revealed:       make([]bool, len([]rune(word))),
		WrongLetters:   make([]rune, 0, MaxHangmanStage),
		CorrectLetters: make([]rune, 0),
		Active:         true,
		StartedAt:      startedAt,
	}
}

// Guess applies one letter against the secret word. Callers hold the room lock.
func (p *PlayerRound) Guess(word string, letter rune, now time.Time) GuessResult {
	if !p.Active || p.Solved {
		return GuessIgnored
	}

	letter = unicode.ToUpper(letter)
	if p.HasGuessed(letter) {
		return GuessRepeated
	}

	found := false
	for i, r := range []rune(word) {
		if r == letter {
			p.Revealed[i] = true
			found = true
		}
	}

	if !found {
		p.WrongLetters = append(p.WrongLetters, letter)
		p.Stage++
		if p.Stage >= MaxHangmanStage {
			p.Active = false
			return GuessEliminated
		}
		return GuessMiss
	}

	p.CorrectLetters = append(p.CorrectLetters, letter)
	if p.RevealedCount() == len(p.Revealed) {
		p.Solved = true
		p.Active = false
		p.FinishedAt = now
		return GuessSolved
	}
	return GuessHit
}

func (p *PlayerRound) HasGuessed(letter rune) bool {
	for _, r := range p.CorrectLetters {
		if r == letter {
			return true
		}
	}
	for _, r := range p.WrongLetters {
		if r == letter {
			return true
		}
	}
	return false
}

func (p *PlayerRound) RevealedCount() int {
	count := 0
	for _, ok := range p.Revealed {
		if ok {
			count++
		}
	}
	return count
}

// Contesting reports whether the player can still win the round.
func (p *PlayerRound) Contesting() bool {
	return p.Active && !p.Solved
}

func (p *PlayerRound) Elapsed() time.Duration {
	if p.FinishedAt.IsZero() {
		return 0
	}
	return p.FinishedAt.Sub(p.StartedAt)
}

// Progress renders the word with '_' at every position the player has not revealed.
func (p *PlayerRound) Progress(word string) string {
	var sb strings.Builder
	for i, r := range []rune(word) {
		if i < len(p.Revealed) && p.Revealed[i] {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func (p *PlayerRound) WrongString() string {
	return string(p.WrongLetters)
}
