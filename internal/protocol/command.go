package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/scythe504/hangman-rooms/internal"
)

type Verb string

const (
	VerbName    Verb = "NAME"
	VerbCreate  Verb = "CREATE"
	VerbJoin    Verb = "JOIN"
	VerbLeave   Verb = "LEAVE"
	VerbStart   Verb = "START"
	VerbGuess   Verb = "GUESS"
	VerbReady   Verb = "READY"
	VerbChat    Verb = "CHAT"
	VerbRefresh Verb = "REFRESH"
)

// Command is one parsed client line. Malformed is set when a known verb
// carried arguments that could not be used; such commands are dropped without a reply.
type Command struct {
	Verb      Verb
	Text      string
	RoomID    int
	Letter    rune
	Malformed bool
}

type UnknownCommandError struct {
	Verb string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("%s: %s", internal.ErrUnknownCommand, e.Verb)
}

func (e *UnknownCommandError) Unwrap() error {
	return internal.ErrUnknownCommand
}

// Parse turns a single line into a Command. Blank lines return ok == false.
func Parse(line string) (cmd Command, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false, nil
	}

	verb, rest := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		verb, rest = line[:i], strings.TrimLeftFunc(line[i:], unicode.IsSpace)
	}
	verb = strings.ToUpper(verb)
	fields := strings.Fields(rest)

	cmd = Command{Verb: Verb(verb)}
	switch cmd.Verb {
	case VerbName:
		if len(fields) == 0 {
			cmd.Malformed = true
			break
		}
		cmd.Text = fields[0]
	case VerbCreate:
		if rest == "" {
			cmd.Malformed = true
			break
		}
		cmd.Text = rest
	case VerbChat:
		cmd.Text = rest
	case VerbJoin:
		if len(fields) == 0 {
			cmd.Malformed = true
			break
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			cmd.Malformed = true
			break
		}
		cmd.RoomID = id
	case VerbGuess:
		if len(fields) == 0 {
			cmd.Malformed = true
			break
		}
		r, _ := utf8.DecodeRuneInString(fields[0])
		if r == utf8.RuneError || !unicode.IsLetter(r) {
			cmd.Malformed = true
			break
		}
		cmd.Letter = unicode.ToUpper(r)
	case VerbLeave, VerbStart, VerbReady, VerbRefresh:
	default:
		return Command{}, true, &UnknownCommandError{Verb: verb}
	}

	return cmd, true, nil
}
