package utils

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// WORD SELECTION
// =============================================================================

// DefaultWords is the built-in vocabulary. Every entry is upper-case ASCII.
var DefaultWords = []string{
	"PROGRAMMING", "COMPUTER", "INTERNET", "SERVER", "CLIENT",
	"ALGORITHM", "CIPHER", "PASSWORD", "PLAYER",
	"HANGMAN", "RIVALRY", "NETWORK", "GAMEPLAY", "TOURNAMENT",
	"VICTORY", "DEFEAT", "PERSEVERANCE", "INTELLIGENCE", "LOGIC",
	"STRATEGY", "COMMUNICATION", "INFORMATION", "TECHNOLOGY", "DEVELOPMENT",
}

// RandomWords picks uniformly from a fixed list. It is safe for concurrent use.
type RandomWords struct {
	mu    sync.Mutex
	rng   *rand.Rand
	words []string
}

func NewRandomWords(words []string) *RandomWords {
	if len(words) == 0 {
		words = DefaultWords
	}
	return &RandomWords{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		words: words,
	}
}

func (w *RandomWords) Pick() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.words[w.rng.Intn(len(w.words))]
}

func (w *RandomWords) Len() int {
	return len(w.words)
}

// MaskedWord returns n underscores.
func MaskedWord(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("_", n)
}
