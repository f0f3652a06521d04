package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal/session"
)

const (
	readChunkSize = 1024
	writeTimeout  = 10 * time.Second
)

var ErrOutboxFull = errors.New("server: outbox full, dropping slow peer")

// transport is a client connection as seen by the dispatch loop. Read is
// only ever called from the connection's reader goroutine.
type transport interface {
	session.Conn
	Read() ([]byte, error)
}

// =============================================================================
// TCP TRANSPORT
// =============================================================================

type tcpConn struct {
	conn   net.Conn
	outbox chan string
	done   chan struct{}
	once   sync.Once
}

var _ transport = (*tcpConn)(nil)

func newTCPConn(conn net.Conn, outboxSize int) *tcpConn {
	c := &tcpConn{
		conn:   conn,
		outbox: make(chan string, outboxSize),
		done:   make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *tcpConn) Read() ([]byte, error) {
	buf := make([]byte, readChunkSize)
	n, err := c.conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	return nil, err
}

// Send queues a line for the writer. A full outbox closes the connection.
func (c *tcpConn) Send(line string) error {
	select {
	case <-c.done:
		return session.ErrClosed
	default:
	}

	select {
	case c.outbox <- line:
		return nil
	default:
		log.Warn().Str("addr", c.RemoteAddr()).Int("queued", len(c.outbox)).
			Msg("[Send] Outbox full, disconnecting peer")
		c.Close()
		return ErrOutboxFull
	}
}

func (c *tcpConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *tcpConn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case line := <-c.outbox:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := c.conn.Write([]byte(line)); err != nil {
				log.Debug().Str("addr", c.RemoteAddr()).Err(err).Msg("[writePump] Write failed")
				c.Close()
				return
			}
		}
	}
}
