package game

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/hangman-rooms/internal"
)

func TestRoomJoinCapacity(t *testing.T) {
	room := roomWith("p1", "p2", "p3", "p4")

	require.NoError(t, room.Join(member("p5", time.Minute)))
	assert.Len(t, room.Members(), internal.MaxPlayersPerRoom)

	err := room.Join(member("p6", 2*time.Minute))
	assert.ErrorIs(t, err, internal.ErrRoomFull)
	assert.Len(t, room.Members(), internal.MaxPlayersPerRoom)
	assert.False(t, room.HasMember("p6"))
}

func TestRoomJoinIsIdempotent(t *testing.T) {
	room := roomWith("alice")

	require.NoError(t, room.Join(member("alice", time.Hour)))
	assert.Equal(t, []string{"alice"}, room.MemberIDs())
}

func TestRoomJoinWhilePlaying(t *testing.T) {
	room := roomWith("alice", "bob")
	require.NoError(t, room.Start("alice", fixedWord("LOGIC"), baseTime))

	err := room.Join(member("carol", time.Minute))
	assert.ErrorIs(t, err, internal.ErrRoomInProgress)
	assert.False(t, room.HasMember("carol"))
}

func TestRoomFullCheckedBeforeState(t *testing.T) {
	room := roomWith("p1", "p2", "p3", "p4", "p5")
	require.NoError(t, room.Start("p1", fixedWord("LOGIC"), baseTime))

	assert.ErrorIs(t, room.Join(member("p6", time.Minute)), internal.ErrRoomFull)
}

func TestRoomOwnerIsEarliestJoin(t *testing.T) {
	room := newRoom(0, "lobby", time.Minute)
	require.NoError(t, room.Join(member("late", 5*time.Second)))
	require.NoError(t, room.Join(member("early", 1*time.Second)))
	require.NoError(t, room.Join(member("tied", 1*time.Second)))

	owner, ok := room.Owner()
	require.True(t, ok)
	assert.Equal(t, "early", owner.SessionID)

	room.Leave("early")
	owner, _ = room.Owner()
	assert.Equal(t, "tied", owner.SessionID)

	_, ok = newRoom(1, "empty", time.Minute).Owner()
	assert.False(t, ok)
}

func TestRoomStartChecks(t *testing.T) {
	tests := []struct {
		name      string
		members   []string
		requester string
		wantErr   error
		wantText  string
	}{
		{name: "single member", members: []string{"alice"}, requester: "alice", wantErr: internal.ErrInsufficientPlayers},
		{name: "non owner", members: []string{"alice", "bob"}, requester: "bob", wantErr: internal.ErrNotRoomOwner, wantText: "Only alice can start the game"},
		{name: "owner", members: []string{"alice", "bob"}, requester: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := roomWith(tt.members...)
			err := room.Start(tt.requester, fixedWord("LOGIC"), baseTime)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, internal.StatePlaying, room.State())
				assert.Equal(t, 1, room.Round())
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantText != "" {
				assert.EqualError(t, err, tt.wantText)
				var notOwner *internal.NotOwnerError
				require.True(t, errors.As(err, &notOwner))
				assert.Equal(t, "alice", notOwner.Owner)
			}
			assert.Equal(t, internal.StateWaiting, room.State())
		})
	}
}

func TestRoomStartWhilePlaying(t *testing.T) {
	room := roomWith("alice", "bob")
	require.NoError(t, room.Start("alice", fixedWord("LOGIC"), baseTime))

	assert.ErrorIs(t, room.Start("alice", fixedWord("LOGIC"), baseTime), internal.ErrRoomInProgress)
	assert.ErrorIs(t, room.Rematch(fixedWord("LOGIC"), baseTime), internal.ErrRoomInProgress)
	assert.Equal(t, 1, room.Round())
}

func TestRoomRematchSkipsOwnerCheck(t *testing.T) {
	room := roomWith("alice", "bob")

	require.NoError(t, room.Rematch(fixedWord("LOGIC"), baseTime))
	assert.Equal(t, internal.StatePlaying, room.State())
}

func TestRoomLeaveWhileWaiting(t *testing.T) {
	room := roomWith("alice", "bob")

	assert.True(t, room.Leave("alice"))
	assert.False(t, room.Leave("alice"))
	assert.Equal(t, []string{"bob"}, room.MemberIDs())
	assert.Equal(t, 1, room.Summary().Players)
}

func TestRoomLeaveWhilePlayingKeepsInactiveEntry(t *testing.T) {
	room := roomWith("alice", "bob", "carol")
	require.NoError(t, room.Start("alice", fixedWord("LOGIC"), baseTime))

	require.True(t, room.Leave("bob"))

	snap, ok := room.Snapshot(baseTime.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "carol"}, snap.Recipients)
	require.Len(t, snap.Players, 3)
	assert.Equal(t, "bob", snap.Players[1].Name)
	assert.False(t, snap.Players[1].Active)

	_, record, done := room.tick(baseTime.Add(time.Second))
	assert.False(t, done, "two players are still contesting")
	assert.Empty(t, record.Standings)
}

func TestRoomRename(t *testing.T) {
	room := roomWith("s1")
	room.Rename("s1", "neo")
	assert.Equal(t, []string{"neo"}, room.MemberNames())
}

func TestRoomGuess(t *testing.T) {
	room := roomWith("alice", "bob")

	assert.Equal(t, internal.GuessIgnored, room.Guess("alice", 'L', baseTime), "no round running")

	require.NoError(t, room.Start("alice", fixedWord("LOGIC"), baseTime))
	assert.Equal(t, internal.GuessHit, room.Guess("alice", 'l', baseTime))
	assert.Equal(t, internal.GuessRepeated, room.Guess("alice", 'L', baseTime))
	assert.Equal(t, internal.GuessMiss, room.Guess("bob", 'Z', baseTime))
	assert.Equal(t, internal.GuessIgnored, room.Guess("mallory", 'O', baseTime))

	snap, ok := room.Snapshot(baseTime)
	require.True(t, ok)
	assert.Equal(t, 5, snap.WordLength)
	assert.Equal(t, "L____", snap.Players[0].Progress)
	assert.Equal(t, 1, snap.Players[0].Revealed)
	assert.Equal(t, "Z", snap.Players[1].WrongLetters)
	assert.Equal(t, 1, snap.Players[1].Stage)
}

func TestRoomTermination(t *testing.T) {
	tests := []struct {
		name    string
		members []string
		play    func(r *Room)
		at      time.Duration
		done    bool
	}{
		{name: "in progress", members: []string{"a", "b"}, play: func(*Room) {}, at: time.Second},
		{name: "time limit reached", members: []string{"a", "b"}, play: func(*Room) {}, at: internal.DefaultTimeLimit, done: true},
		{
			name: "last contestant after a solve", members: []string{"a", "b", "c"},
			play: func(r *Room) {
				for _, l := range "LOGIC" {
					r.Guess("a", l, baseTime.Add(time.Second))
				}
				r.Leave("c")
			},
			at: 2 * time.Second, done: true,
		},
		{
			name: "everyone eliminated", members: []string{"a", "b"},
			play: func(r *Room) {
				for _, id := range []string{"a", "b"} {
					for _, l := range "ABDEFH" {
						r.Guess(id, l, baseTime)
					}
				}
			},
			at: time.Second, done: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := roomWith(tt.members...)
			require.NoError(t, room.Start(tt.members[0], fixedWord("LOGIC"), baseTime))
			tt.play(room)

			_, record, done := room.tick(baseTime.Add(tt.at))
			assert.Equal(t, tt.done, done)
			if done {
				assert.Equal(t, internal.StateFinished, room.State())
				assert.Equal(t, "LOGIC", record.Word)
				assert.Len(t, record.Standings, len(tt.members))
			} else {
				assert.Equal(t, internal.StatePlaying, room.State())
			}
		})
	}
}

func TestRoomResetReopens(t *testing.T) {
	room := roomWith("alice", "bob")
	require.NoError(t, room.Start("alice", fixedWord("LOGIC"), baseTime))
	room.reset()

	assert.Equal(t, internal.StateWaiting, room.State())
	_, ok := room.Snapshot(baseTime)
	assert.False(t, ok)
	require.NoError(t, room.Start("alice", fixedWord("CIPHER"), baseTime))
	assert.Equal(t, 2, room.Round())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(time.Minute)

	for i := range 3 {
		room, err := reg.Create(fmt.Sprintf("room-%d", i))
		require.NoError(t, err)
		assert.Equal(t, i, room.ID)
		assert.Equal(t, time.Minute, room.TimeLimit)
	}

	_, err := reg.Create("room-1")
	assert.ErrorIs(t, err, internal.ErrRoomExists)
	_, err = reg.Create("room:4")
	assert.ErrorIs(t, err, internal.ErrInvalidName)
	assert.Equal(t, 3, reg.Len())

	room, err := reg.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "room-2", room.Name)

	for _, id := range []int{-1, 3, 99} {
		_, err := reg.Get(id)
		assert.ErrorIs(t, err, internal.ErrRoomNotFound)
	}

	require.NoError(t, room.Join(member("alice", 0)))
	require.NoError(t, room.Join(member("bob", time.Second)))
	require.NoError(t, room.Start("alice", fixedWord("LOGIC"), baseTime))

	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, internal.RoomSummary{ID: 2, Name: "room-2", Players: 2, State: internal.StatePlaying}, list[2])
	assert.False(t, list[0].Playing())
	assert.Equal(t, []*Room{room}, reg.Playing())
}
