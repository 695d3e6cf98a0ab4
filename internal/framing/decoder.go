package framing

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/wagiedev/mcp-stdio-go/internal/errors"
)

// Frame is the outcome of decoding one line: either a JSON value or an error.
type Frame struct {
	Message json.RawMessage
	Err     error
}

// Decoder accumulates inbound bytes and emits one Frame per complete line.
// It is safe for concurrent use, although a single reader is expected.
type Decoder struct {
	mu           sync.Mutex
	buf          []byte
	maxFrameSize int
	// discarding is set while skipping the rest of an oversized record.
	discarding bool
}

// NewDecoder creates a Decoder. A maxFrameSize of zero disables the size limit.
func NewDecoder(maxFrameSize int) *Decoder {
	return &Decoder{maxFrameSize: maxFrameSize}
}

// Feed appends chunk to the pending buffer and returns the frames completed
// by it, in arrival order. Bytes after the last newline stay buffered.
func (d *Decoder) Feed(chunk []byte) []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf = append(d.buf, chunk...)

	var frames []Frame

	start := 0

	for {
		i := bytes.IndexByte(d.buf[start:], '\n')
		if i < 0 {
			break
		}

		line := d.buf[start : start+i]
		start += i + 1

		if d.discarding {
			// Tail of a record already reported as too large.
			d.discarding = false

			continue
		}

		if frame, ok := d.decodeLine(line); ok {
			frames = append(frames, frame)
		}
	}

	rest := d.buf[start:]

	switch {
	case d.discarding:
		rest = nil
	case d.maxFrameSize > 0 && len(rest) > d.maxFrameSize:
		frames = append(frames, Frame{Err: errors.NewDecodeError(rest, errors.ErrFrameTooLarge)})
		d.discarding = true
		rest = nil
	}

	d.buf = append(d.buf[:0], rest...)

	return frames
}

// decodeLine validates a single line. Blank lines produce no frame.
func (d *Decoder) decodeLine(line []byte) (Frame, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return Frame{}, false
	}

	if d.maxFrameSize > 0 && len(trimmed) > d.maxFrameSize {
		return Frame{Err: errors.NewDecodeError(trimmed, errors.ErrFrameTooLarge)}, true
	}

	// Unmarshal validates the whole line and copies it out of the buffer.
	var msg json.RawMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return Frame{Err: errors.NewDecodeError(trimmed, err)}, true
	}

	return Frame{Message: msg}, true
}

// Buffered returns the number of bytes waiting for a newline.
func (d *Decoder) Buffered() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.buf)
}

// Reset drops any incomplete record and returns how many bytes were dropped.
// An unterminated final line is never decoded.
func (d *Decoder) Reset() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.buf)
	d.buf = nil
	d.discarding = false

	return n
}
