package game

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/scythe504/hangman-rooms/internal"
)

// Solvers whose times differ by less than this share a rank.
const tieTolerance = 10 * time.Millisecond

const rankingRule = "═══════════════════════════"

// BuildRanking orders a round's players: solvers first by time, then the rest
// by fewest mistakes. The input slice is not modified.
func BuildRanking(players []*internal.PlayerRound) []internal.Standing {
	ranked := slices.Clone(players)
	slices.SortStableFunc(ranked, func(a, b *internal.PlayerRound) int {
		if a.Solved != b.Solved {
			if a.Solved {
				return -1
			}
			return 1
		}
		if a.Solved {
			return cmp.Compare(a.Elapsed(), b.Elapsed())
		}
		return cmp.Compare(a.Stage, b.Stage)
	})

	standings := make([]internal.Standing, 0, len(ranked))
	position := 1
	for i, p := range ranked {
		if i > 0 && p.Solved && ranked[i-1].Solved {
			if absDuration(p.Elapsed()-ranked[i-1].Elapsed()) >= tieTolerance {
				position = i + 1
			}
		} else {
			position = i + 1
		}

		standings = append(standings, internal.Standing{
			Rank:       position,
			Name:       p.Name,
			Solved:     p.Solved,
			Elapsed:    p.Elapsed(),
			Mistakes:   p.Stage,
			Eliminated: !p.Solved && p.Stage >= internal.MaxHangmanStage,
		})
	}
	return standings
}

// FormatRanking renders standings as the multi-line end-of-round text.
func FormatRanking(standings []internal.Standing) string {
	var sb strings.Builder
	sb.WriteString(" RANKING - GAME OVER \n")
	sb.WriteString(rankingRule + "\n\n")

	for _, s := range standings {
		fmt.Fprintf(&sb, "%d. %s\n", s.Rank, s.Name)
		switch {
		case s.Solved:
			fmt.Fprintf(&sb, "      Time: %.2fs | Mistakes: %d\n", s.Elapsed.Seconds(), s.Mistakes)
		case s.Eliminated:
			fmt.Fprintf(&sb, "     DNF (eliminated after %d mistakes)\n", s.Mistakes)
		default:
			sb.WriteString("     DNF (out of time)")
			if s.Mistakes > 0 {
				fmt.Fprintf(&sb, " | Mistakes: %d", s.Mistakes)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(rankingRule + "\n")
	sb.WriteString("The owner can start a new game")
	return sb.String()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
