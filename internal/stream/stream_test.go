package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/RoanBrand/gomq/internal/model"
)

func collect(out *[][]byte) func([]byte) error {
	return func(pkt []byte) error {
		*out = append(*out, append([]byte(nil), pkt...))
		return nil
	}
}

func TestFeedSplitPacket(t *testing.T) {
	t.Parallel()

	s := New(2048)
	var got [][]byte
	connack := []byte{0x20, 0x02, 0x00, 0x00}

	for _, chunk := range [][]byte{connack[:1], connack[1:3]} {
		n, err := s.Feed(chunk, collect(&got))
		if err != nil || n != 0 {
			t.Fatal(n, err)
		}
	}
	n, err := s.Feed(connack[3:], collect(&got))
	if err != nil || n != 1 {
		t.Fatal(n, err)
	}
	if len(got) != 1 || !bytes.Equal(got[0], connack) {
		t.Fatal(got)
	}
	if s.Len() != 0 {
		t.Fatal("stream not compacted:", s.Len())
	}
}

func TestFeedMultipleAndTail(t *testing.T) {
	t.Parallel()

	s := New(64)
	var got [][]byte
	chunk := []byte{0xD0, 0x00, 0x90, 0x03, 0x00, 0x02, 0x01, 0x30, 0x04, 0x00}

	n, err := s.Feed(chunk, collect(&got))
	if err != nil || n != 2 {
		t.Fatal(n, err)
	}
	if got[0][0] != model.PINGRESP || got[1][0] != model.SUBACK {
		t.Fatal(got)
	}
	if s.Len() != 3 || !bytes.Equal(s.buf[:3], []byte{0x30, 0x04, 0x00}) {
		t.Fatal("tail not moved to start", s.buf[:s.Len()])
	}

	n, err = s.Feed([]byte{0x01, 'a', 'x', 0xD0}, collect(&got))
	if err != nil || n != 1 {
		t.Fatal(n, err)
	}
	if !bytes.Equal(got[2], []byte{0x30, 0x04, 0x00, 0x01, 'a', 'x'}) {
		t.Fatal(got[2])
	}
	if s.Len() != 1 {
		t.Fatal(s.Len())
	}
}

func TestFeedOverflowDropsChunk(t *testing.T) {
	t.Parallel()

	s := New(8)
	var got [][]byte
	if _, err := s.Feed([]byte{0x30, 0x05, 0, 1, 'a'}, collect(&got)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Feed(make([]byte, 4), collect(&got)); err != ErrOverflow {
		t.Fatal("expected overflow, got", err)
	}
	if s.Len() != 5 {
		t.Fatal("buffered bytes changed on overflow:", s.Len())
	}
}

func TestFeedPacketTooLarge(t *testing.T) {
	t.Parallel()

	s := New(8)
	if _, err := s.Feed([]byte{0x30, 0x10}, collect(new([][]byte))); err != ErrPacketTooLarge {
		t.Fatal("expected too large, got", err)
	}
}

func TestFeedMalformedLength(t *testing.T) {
	t.Parallel()

	s := New(16)
	if _, err := s.Feed([]byte{0x30, 0x80, 0x80, 0x80, 0x80, 0x01}, collect(new([][]byte))); err != model.ErrMalformedLength {
		t.Fatal("expected malformed, got", err)
	}
}

func TestFeedDispatchError(t *testing.T) {
	t.Parallel()

	s := New(16)
	stop := errors.New("stop")
	calls := 0
	n, err := s.Feed([]byte{0xD0, 0x00, 0xD0, 0x00}, func([]byte) error {
		calls++
		return stop
	})
	if err != stop || n != 1 || calls != 1 {
		t.Fatal(n, calls, err)
	}
	if s.Len() != 2 {
		t.Fatal(s.Len())
	}

	s.Reset()
	if s.Len() != 0 || s.Cap() != 16 {
		t.Fatal(s.Len(), s.Cap())
	}
}
