package protocol

import (
	"strconv"
	"strings"
)

const WelcomeText = "Please set your nickname with: NAME <nickname>"

// RoomEntry is one room as shown in a ROOMS line.
type RoomEntry struct {
	Name    string
	Players int
	Playing bool
}

// PlayerEntry is one player as shown in a GAME line.
type PlayerEntry struct {
	Name         string
	Stage        int
	Revealed     int
	WrongLetters string
	Active       bool
	Solved       bool
	Progress     string
}

type GameState struct {
	WordLength int
	TimeLeft   int
	Players    []PlayerEntry
}

func Welcome(text string) string { return "WELCOME " + text + "\n" }

func OK(text string) string { return "OK " + text + "\n" }

func Error(err error) string { return "ERROR " + err.Error() + "\n" }

func Waiting(text string) string { return "WAITING " + text + "\n" }

func Joined(roomID int) string { return "JOINED " + strconv.Itoa(roomID) + "\n" }

func RoomCreated(roomID int) string { return "ROOM_CREATED " + strconv.Itoa(roomID) + "\n" }

func Left() string { return "LEFT\n" }

func RoomLobby() string { return "ROOM_LOBBY\n" }

func Chat(sender, text string) string { return "CHAT " + sender + ": " + text + "\n" }

func Rooms(rooms []RoomEntry) string {
	var sb strings.Builder
	sb.WriteString("ROOMS ")
	sb.WriteString(strconv.Itoa(len(rooms)))
	for _, r := range rooms {
		sb.WriteByte(' ')
		sb.WriteString(r.Name)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(r.Players))
		sb.WriteByte(':')
		sb.WriteString(flag(r.Playing))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func RoomPlayers(names []string) string {
	var sb strings.Builder
	sb.WriteString("ROOM_PLAYERS")
	for _, name := range names {
		sb.WriteByte(' ')
		sb.WriteString(name)
	}
	sb.WriteByte('\n')
	return sb.String()
}

func Game(state GameState) string {
	var sb strings.Builder
	sb.WriteString("GAME ")
	sb.WriteString(strconv.Itoa(state.WordLength))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(state.TimeLeft))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(len(state.Players)))
	for _, p := range state.Players {
		sb.WriteByte(' ')
		sb.WriteString(p.Name)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(p.Stage))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(p.Revealed))
		sb.WriteByte(':')
		sb.WriteString(p.WrongLetters)
		sb.WriteByte(':')
		sb.WriteString(flag(p.Active))
		sb.WriteByte(':')
		sb.WriteString(flag(p.Solved))
		sb.WriteByte(':')
		sb.WriteString(p.Progress)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// RankingFull flattens a multi-line ranking into a single RANKING_FULL line.
func RankingFull(text string) string {
	return "RANKING_FULL " + strings.ReplaceAll(text, "\n", "|") + "\n"
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
