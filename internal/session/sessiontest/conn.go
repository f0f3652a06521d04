// Package sessiontest provides an in-memory session.Conn for tests.
package sessiontest

import (
	"strings"
	"sync"

	"github.com/scythe504/hangman-rooms/internal/session"
)

type Conn struct {
	Addr string

	mu     sync.Mutex
	lines  []string
	closed bool
}

func NewConn(addr string) *Conn {
	return &Conn{Addr: addr}
}

func (c *Conn) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return session.ErrClosed
	}
	c.lines = append(c.lines, strings.TrimSuffix(line, "\n"))
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Conn) RemoteAddr() string {
	return c.Addr
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Lines returns every line sent so far, without the trailing newline.
func (c *Conn) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// WithPrefix returns the sent lines that start with prefix.
func (c *Conn) WithPrefix(prefix string) []string {
	var out []string
	for _, l := range c.Lines() {
		if strings.HasPrefix(l, prefix) {
			out = append(out, l)
		}
	}
	return out
}

func (c *Conn) Last() string {
	lines := c.Lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}
