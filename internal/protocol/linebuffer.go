package protocol

import (
	"bytes"
	"errors"
)

const DefaultMaxLineLength = 4096

var ErrLineTooLong = errors.New("protocol: line exceeds maximum length")

// LineBuffer accumulates raw reads for one connection and yields complete lines.
// A partial line is kept until a later Feed terminates it.
type LineBuffer struct {
	buf     []byte
	maxLine int
}

func NewLineBuffer(maxLine int) *LineBuffer {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	return &LineBuffer{maxLine: maxLine}
}

func (b *LineBuffer) Feed(chunk []byte) ([]string, error) {
	b.buf = append(b.buf, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(b.buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(b.buf[:idx], []byte{'\r'})
		if len(line) > b.maxLine {
			return lines, ErrLineTooLong
		}
		lines = append(lines, string(line))
		b.buf = b.buf[idx+1:]
	}

	if len(b.buf) > b.maxLine {
		return lines, ErrLineTooLong
	}
	if len(b.buf) == 0 {
		b.buf = nil
	}
	return lines, nil
}

// Pending returns the number of buffered bytes not yet terminated by a newline.
func (b *LineBuffer) Pending() int {
	return len(b.buf)
}
