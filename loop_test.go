package gomq

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func startLoop(t *testing.T, h *harness, interval time.Duration) (*Loop, context.CancelFunc, chan error) {
	t.Helper()
	l := NewLoop(h.e)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, interval)
	}()
	return l, cancel, done
}

func TestLoopSerializesEvents(t *testing.T) {
	t.Parallel()

	h := newHarness(Limits{})
	l, cancel, done := startLoop(t, h, time.Hour)
	ctx := context.Background()

	err := l.Do(ctx, func(e *Engine) {
		if err := e.Connect("broker.local", 1883, "loop"); err != nil {
			t.Error(err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	l.Post(EventNameResolved{Addr: "10.0.0.1"})
	l.Post(EventConnected{})
	l.Post(EventDataReceived{Data: []byte{0x20, 0x02}})
	l.Post(EventDataReceived{Data: []byte{0x00, 0x00}})

	var state State
	l.Do(ctx, func(e *Engine) {
		state = e.State()
	})
	if state != Connected {
		t.Fatal(state)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatal(err)
	}

	c := h.d.conn
	if !c.closed || !bytes.Equal(c.written[len(c.written)-1], []byte{0xE0, 0x00}) {
		t.Fatal("loop exit must stop the session")
	}
	if err := l.Do(ctx, func(*Engine) {}); err != ErrLoopClosed {
		t.Fatal(err)
	}
	l.Post(EventError{}) // discarded, must not block or panic
}

func TestLoopTicks(t *testing.T) {
	t.Parallel()

	h := newHarness(Limits{})
	l, cancel, done := startLoop(t, h, 5*time.Millisecond)
	defer func() {
		cancel()
		<-done
	}()
	ctx := context.Background()

	l.Do(ctx, func(e *Engine) {
		e.Connect("broker.local", 1883, "loop")
		e.Dispatch(EventNameResolved{Addr: "10.0.0.1"})
		e.Dispatch(EventConnected{})
		e.Dispatch(EventDataReceived{Data: []byte{0x20, 0x02, 0x00, 0x00}})
		h.clk.advance(time.Minute)
	})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var pinged bool
		l.Do(ctx, func(*Engine) {
			w := h.d.conn.written
			pinged = bytes.Equal(w[len(w)-1], []byte{0xC0, 0x00})
		})
		if pinged {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no PINGREQ from loop ticks")
}

func TestLoopDoContext(t *testing.T) {
	t.Parallel()

	// not running, so the command can only wait
	l := NewLoop(newHarness(Limits{}).e)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Do(ctx, func(*Engine) {}); err != context.DeadlineExceeded {
		t.Fatal(err)
	}
}
