package internal

import (
	"errors"
	"fmt"
)

// Error texts double as the payload of the ERROR line sent to the client.
var (
	ErrNameTaken           = errors.New("Nickname already taken")
	ErrNotNamed            = errors.New("Set your nickname first")
	ErrRoomNotFound        = errors.New("Room not found")
	ErrRoomFull            = fmt.Errorf("Room is full (max %d players)", MaxPlayersPerRoom)
	ErrRoomInProgress      = errors.New("Game in progress, you will join in the next round")
	ErrRoomExists          = errors.New("A room with that name already exists")
	ErrNotRoomOwner        = errors.New("Only the longest-present player can start the game")
	ErrInsufficientPlayers = fmt.Errorf("At least %d players are needed", MinPlayersToStart)
	ErrUnknownCommand      = errors.New("Unknown command")
	ErrRateLimited         = errors.New("Too many commands, slow down")
	ErrInvalidName         = errors.New("Names cannot contain ':'")
)

// FieldSeparator delimits the fields of a ROOMS or GAME record, so it may not
// appear in nicknames or room names.
const FieldSeparator = ":"

// NotOwnerError names the member that is allowed to start the round.
type NotOwnerError struct {
	Owner string
}

func (e *NotOwnerError) Error() string {
	if e.Owner == "" {
		return ErrNotRoomOwner.Error()
	}
	return fmt.Sprintf("Only %s can start the game", e.Owner)
}

func (e *NotOwnerError) Is(target error) bool {
	return target == ErrNotRoomOwner
}
