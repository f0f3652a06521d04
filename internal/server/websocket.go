package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal/session"
)

const (
	pongWait   = time.Minute
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// =============================================================================
// WEBSOCKET TRANSPORT
// =============================================================================

// wsConn carries the same newline-delimited protocol as TCP. Each text frame
// holds one or more lines; each server line goes out as its own frame.
type wsConn struct {
	socket *websocket.Conn
	outbox chan string
	done   chan struct{}
	once   sync.Once
}

var _ transport = (*wsConn)(nil)

func newWSConn(socket *websocket.Conn, outboxSize int) *wsConn {
	c := &wsConn{
		socket: socket,
		outbox: make(chan string, outboxSize),
		done:   make(chan struct{}),
	}
	socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.writePump()
	return c
}

func (c *wsConn) Read() ([]byte, error) {
	for {
		kind, data, err := c.socket.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind != websocket.TextMessage || len(data) == 0 {
			continue
		}
		if data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		return data, nil
	}
}

func (c *wsConn) Send(line string) error {
	select {
	case <-c.done:
		return session.ErrClosed
	default:
	}

	select {
	case c.outbox <- line:
		return nil
	default:
		log.Warn().Str("addr", c.RemoteAddr()).Msg("[Send] Websocket outbox full, disconnecting peer")
		c.Close()
		return ErrOutboxFull
	}
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = c.socket.Close()
	})
	return err
}

func (c *wsConn) RemoteAddr() string {
	return c.socket.RemoteAddr().String()
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case line := <-c.outbox:
			c.socket.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.socket.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				log.Debug().Str("addr", c.RemoteAddr()).Err(err).Msg("[writePump] Websocket write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// HandleWebSocket upgrades the request and hands the socket to the dispatch loop.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("[HandleWebSocket] Upgrade failed")
		return
	}
	s.admit(newWSConn(socket, s.cfg.OutboxSize))
}
