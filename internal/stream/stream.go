// Package stream reassembles MQTT control packets from arbitrarily split transport chunks.
package stream

import (
	"errors"

	"github.com/RoanBrand/gomq/internal/model"
)

var (
	ErrOverflow = errors.New("receive buffer overflow - chunk dropped")
	// ErrPacketTooLarge is returned when a buffered packet can never fit.
	ErrPacketTooLarge = errors.New("packet larger than receive buffer")
)

// Stream is a fixed capacity receive buffer.
// Unread bytes always start at offset 0 between calls to Feed.
type Stream struct {
	buf []byte
	n   int
}

func New(capacity int) *Stream {
	return &Stream{buf: make([]byte, capacity)}
}

// Feed appends chunk and calls dispatch with every complete packet now buffered.
// pkt is only valid during the call. If chunk does not fit, it is dropped whole.
// Feed stops early when dispatch returns an error.
func (s *Stream) Feed(chunk []byte, dispatch func(pkt []byte) error) (int, error) {
	if s.n+len(chunk) > len(s.buf) {
		return 0, ErrOverflow
	}
	s.n += copy(s.buf[s.n:], chunk)

	var r, count int
	var err error
	for s.n-r >= 2 {
		rl, vl, lErr := model.VariableLengthDecode(s.buf[r+1 : s.n])
		if lErr != nil {
			err = lErr
			break
		}
		if vl == 0 {
			break // length field incomplete
		}

		total := 1 + vl + rl
		if total > len(s.buf) {
			err = ErrPacketTooLarge
			break
		}
		if s.n-r < total {
			break
		}

		count++
		err = dispatch(s.buf[r : r+total])
		r += total
		if err != nil {
			break
		}
	}

	if r > 0 {
		s.n = copy(s.buf, s.buf[r:s.n])
	}
	return count, err
}

// Len returns the number of buffered bytes that do not yet form a complete packet.
func (s *Stream) Len() int {
	return s.n
}

func (s *Stream) Cap() int {
	return len(s.buf)
}

func (s *Stream) Reset() {
	s.n = 0
}
