package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/hangman-rooms/internal"
	"github.com/scythe504/hangman-rooms/internal/broadcast"
	"github.com/scythe504/hangman-rooms/internal/game"
	"github.com/scythe504/hangman-rooms/internal/session"
)

const waitTimeout = 3 * time.Second

type fixedWord string

func (w fixedWord) Pick() string { return string(w) }

type testOptions struct {
	rateLimit     float64
	rateBurst     int
	maxLineLength int
	httpAddr      string
	history       HistoryReader
	settleDelay   time.Duration
}

func newTestServer(t *testing.T, opts testOptions) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if opts.settleDelay == 0 {
		opts.settleDelay = 5 * time.Millisecond
	}

	sessions := session.NewRegistry(opts.rateLimit, opts.rateBurst)
	rooms := game.NewRegistry(time.Minute)
	notifier := broadcast.New(sessions, rooms)
	engine := game.NewEngine(ctx, game.EngineConfig{
		Notifier:     notifier,
		Words:        fixedWord("LOGIC"),
		TickInterval: 10 * time.Millisecond,
		SettleDelay:  opts.settleDelay,
	})

	srv := New(Config{
		Addr:           "127.0.0.1:0",
		HTTPAddr:       opts.httpAddr,
		MaxLineLength:  opts.maxLineLength,
		OutboxSize:     256,
		ResyncInterval: 50 * time.Millisecond,
	}, Deps{
		Sessions: sessions,
		Rooms:    rooms,
		Notifier: notifier,
		Engine:   engine,
		History:  opts.history,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("serve: %v", err)
	case <-time.After(waitTimeout):
		t.Fatal("server did not start")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(waitTimeout):
			t.Error("server did not shut down")
		}
	})
	return srv
}

type client struct {
	t     *testing.T
	conn  net.Conn
	lines chan string
}

func dial(t *testing.T, srv *Server) *client {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &client{t: t, conn: conn, lines: make(chan string, 1024)}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
	}()
	c.expect("WELCOME Please set your nickname with: NAME <nickname>")
	return c
}

// named dials and sets a nickname.
func named(t *testing.T, srv *Server, name string) *client {
	c := dial(t, srv)
	c.send("NAME " + name)
	c.expect("OK Nickname set to " + name)
	return c
}

func (c *client) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

// expect skips lines until one starts with prefix.
func (c *client) expect(prefix string) string {
	c.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %q", prefix)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-deadline:
			c.t.Fatalf("timed out waiting for %q", prefix)
		}
	}
}

func (c *client) expectClosed() {
	c.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return
			}
		case <-deadline:
			c.t.Fatal("connection was not closed")
		}
	}
}

// playRoom creates room 0 and seats the given clients in order.
func playRoom(t *testing.T, clients ...*client) {
	t.Helper()
	clients[0].send("CREATE arena")
	clients[0].expect("ROOM_CREATED 0")
	for _, c := range clients {
		c.send("JOIN 0")
		c.expect("JOINED 0")
	}
}

func TestNicknames(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	other := dial(t, srv)

	other.send("NAME alice")
	other.expect("ERROR Nickname already taken: alice")

	other.send("name Alice")
	other.expect("OK Nickname set to Alice")

	alice.send("NAME alice")
	alice.expect("OK Nickname set to alice")

	alice.send("NAME al:ice")
	alice.expect("ERROR Names cannot contain ':'")
	alice.send("CREATE my:room")
	alice.expect("ERROR Names cannot contain ':'")
	alice.send("CREATE my room")
	alice.expect("ROOM_CREATED 0")
}

func TestCommandsRequireNickname(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	anon := dial(t, srv)

	anon.send("CREATE lobby")
	anon.expect("ERROR Set your nickname first")
	anon.send("JOIN 0")
	anon.expect("ERROR Set your nickname first")
	anon.send("LEAVE")
	anon.expect("LEFT")
}

func TestUnknownAndMalformedCommands(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	c := named(t, srv, "alice")

	c.send("DANCE now")
	c.expect("ERROR Unknown command: DANCE")

	c.send("JOIN abc")
	c.send("GUESS 7")
	c.send("")
	c.send("JOIN 9")
	c.expect("ERROR Room not found")
}

func TestCreateAndList(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")

	alice.send("CREATE  room one")
	alice.expect("ROOM_CREATED 0")
	bob.expect("ROOMS 1 room one:0:0")

	bob.send("CREATE room one")
	bob.expect("ERROR A room with that name already exists")

	bob.send("JOIN 0")
	bob.expect("JOINED 0")
	bob.expect("ROOM_PLAYERS bob")
	alice.expect("ROOMS 1 room one:1:0")

	alice.send("REFRESH")
	alice.expect("ROOMS 1 room one:1:0")
}

func TestJoinSwitchesRooms(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")

	alice.send("CREATE first")
	alice.expect("ROOM_CREATED 0")
	alice.send("CREATE second")
	alice.expect("ROOM_CREATED 1")

	alice.send("JOIN 0")
	alice.expect("JOINED 0")
	bob.send("JOIN 0")
	bob.expect("JOINED 0")
	alice.expect("ROOM_PLAYERS alice bob")

	bob.send("JOIN 1")
	bob.expect("JOINED 1")
	alice.expect("ROOM_PLAYERS alice")
	bob.expect("ROOMS 2 first:1:0 second:1:0")

	bob.send("JOIN 1")
	bob.expect("JOINED 1")
}

func TestOwnerStartsRound(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")

	alice.send("CREATE arena")
	alice.expect("ROOM_CREATED 0")
	alice.send("JOIN 0")
	alice.expect("JOINED 0")

	alice.send("START")
	alice.expect("ERROR At least 2 players are needed")

	bob.send("JOIN 0")
	bob.expect("JOINED 0")

	bob.send("START")
	bob.expect("ERROR Only alice can start the game")

	alice.send("START")
	assert.Equal(t, "GAME 5 60 2 alice:0:0::1:0:_____ bob:0:0::1:0:_____", alice.expect("GAME "))
	bob.expect("GAME 5")
	alice.expect("ROOMS 1 arena:2:1")
}

func TestRoundPlaysToRanking(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")
	playRoom(t, alice, bob)

	alice.send("START")
	bob.expect("GAME 5")

	bob.send("GUESS z")
	bob.expect("GAME 5 60 2 alice:0:0::1:0:_____ bob:1:0:Z:1:0:_____")

	alice.send("GUESS o")
	line := alice.expect("GAME 5 60 2 alice:0:1::1:0:_O___")
	assert.Contains(t, line, "bob:1:0:Z:1:0:_____")

	for _, l := range "LGIC" {
		alice.send("GUESS " + string(l))
	}

	for _, c := range []*client{alice, bob} {
		c.expect("ROOM_LOBBY")
		ranking := c.expect("RANKING_FULL ")
		assert.Contains(t, ranking, "|1. alice|      Time: ")
		assert.Contains(t, ranking, "|2. bob|     DNF (out of time) | Mistakes: 1|")
		assert.True(t, strings.HasSuffix(ranking, "|The owner can start a new game"))
	}
	alice.expect("ROOMS 1 arena:2:0")
}

func TestJoinWhilePlayingWaits(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")
	carol := named(t, srv, "carol")
	playRoom(t, alice, bob)

	alice.send("START")
	alice.expect("GAME 5")

	carol.send("JOIN 0")
	carol.expect("WAITING Game in progress, you will join in the next round")

	alice.send("START")
	alice.send("JOIN 0")
	alice.expect("JOINED 0")
}

func TestRoomCapacity(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	var clients []*client
	for i := range 6 {
		clients = append(clients, named(t, srv, fmt.Sprintf("p%d", i)))
	}
	playRoom(t, clients[:5]...)

	clients[5].send("JOIN 0")
	clients[5].expect("ERROR Room is full (max 5 players)")
}

func TestDisconnectWhileWaiting(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")
	playRoom(t, alice, bob)
	alice.expect("ROOM_PLAYERS alice bob")

	bob.conn.Close()
	alice.expect("ROOM_PLAYERS alice")
	alice.expect("ROOMS 1 arena:1:0")

	carol := named(t, srv, "bob")
	carol.send("JOIN 0")
	carol.expect("JOINED 0")
}

func TestDisconnectWhilePlaying(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")
	playRoom(t, alice, bob)

	alice.send("START")
	bob.expect("GAME 5")
	bob.send("GUESS x")
	alice.expect("GAME 5 60 2 alice:0:0::1:0:_____ bob:1:0:X:1:0:_____")

	bob.conn.Close()

	alice.expect("ROOM_LOBBY")
	ranking := alice.expect("RANKING_FULL ")
	assert.Contains(t, ranking, "1. alice")
	assert.Contains(t, ranking, "2. bob|     DNF (out of time) | Mistakes: 1")
}

func TestReadyStartsRematch(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")
	playRoom(t, alice, bob)

	alice.send("START")
	alice.expect("GAME 5")
	for _, l := range "LOGIC" {
		alice.send("GUESS " + string(l))
	}
	alice.expect("RANKING_FULL ")
	bob.expect("RANKING_FULL ")

	room, err := srv.rooms.Get(0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return room.State() == internal.StateWaiting
	}, waitTimeout, 5*time.Millisecond)

	bob.send("READY")
	bob.expect("OK Ready for the next round")
	alice.send("READY")
	alice.expect("OK Ready for the next round")

	assert.Equal(t, "GAME 5 60 2 alice:0:0::1:0:_____ bob:0:0::1:0:_____", bob.expect("GAME "))
}

func TestReadyDuringSettleStartsRematch(t *testing.T) {
	srv := newTestServer(t, testOptions{settleDelay: 300 * time.Millisecond})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")
	playRoom(t, alice, bob)

	alice.send("START")
	alice.expect("GAME 5")
	for _, l := range "LOGIC" {
		alice.send("GUESS " + string(l))
	}
	alice.expect("ROOM_LOBBY")
	bob.expect("ROOM_LOBBY")

	alice.send("READY")
	alice.expect("OK Ready for the next round")
	bob.send("READY")
	bob.expect("OK Ready for the next round")

	room, err := srv.rooms.Get(0)
	require.NoError(t, err)
	assert.Equal(t, internal.StateFinished, room.State())

	bob.expect("RANKING_FULL ")
	assert.Equal(t, "GAME 5 60 2 alice:0:0::1:0:_____ bob:0:0::1:0:_____", bob.expect("GAME "))
	assert.Equal(t, 2, room.Round())
}

func TestChat(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	alice := named(t, srv, "alice")
	bob := named(t, srv, "bob")
	outsider := named(t, srv, "carol")
	playRoom(t, alice, bob)

	outsider.send("CHAT nobody hears this")
	alice.send("CHAT   hello: world")
	bob.expect("CHAT alice: hello: world")
	alice.expect("CHAT alice: hello: world")

	outsider.send("REFRESH")
	outsider.expect("ROOMS 1 arena:2:0")
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, testOptions{rateLimit: 0.001, rateBurst: 2})
	c := dial(t, srv)

	c.send("NAME alice")
	c.expect("OK Nickname set to alice")
	c.send("REFRESH")
	c.expect("ROOMS 0")
	c.send("REFRESH")
	c.expect("ERROR Too many commands, slow down")
}

func TestLineTooLongDropsConnection(t *testing.T) {
	srv := newTestServer(t, testOptions{maxLineLength: 32})
	c := dial(t, srv)

	c.send("CHAT " + strings.Repeat("x", 64))
	c.expectClosed()
}

func TestPartialLines(t *testing.T) {
	srv := newTestServer(t, testOptions{})
	c := dial(t, srv)

	_, err := c.conn.Write([]byte("NA"))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = c.conn.Write([]byte("ME split\r\nREF"))
	require.NoError(t, err)
	c.expect("OK Nickname set to split")
	_, err = c.conn.Write([]byte("RESH\n"))
	require.NoError(t, err)
	c.expect("ROOMS 0")
}
