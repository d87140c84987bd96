// Package transport adapts blocking byte streams to the event driven gomq.Transport.
package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/RoanBrand/gomq"
	log "github.com/sirupsen/logrus"
)

var ErrNotConnected = errors.New("transport not connected")

// DialFunc opens a blocking stream to addr:port.
type DialFunc func(ctx context.Context, addr string, port uint16) (io.ReadWriteCloser, error)

// Dialer implements gomq.Dialer. Dial returns immediately; the handshake runs
// in the background and its result is posted as gomq.EventConnected.
type Dialer struct {
	DialFunc DialFunc
	Post     func(gomq.Event)

	// Handshake timeout. Default 10s.
	Timeout time.Duration
	// Read chunk size. Default 1024.
	ReadSize int
}

func (d *Dialer) Dial(addr string, port uint16) (gomq.Transport, error) {
	if d.DialFunc == nil || d.Post == nil {
		return nil, errors.New("transport dialer not configured")
	}

	timeout, size := d.Timeout, d.ReadSize
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if size <= 0 {
		size = 1024
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	c := &Conn{post: d.Post, cancel: cancel}
	go c.run(ctx, d.DialFunc, addr, port, size)
	return c, nil
}

// Conn is a transport whose inbound bytes and failures are posted as events.
// After Close nothing more is posted.
type Conn struct {
	post   func(gomq.Event)
	cancel context.CancelFunc

	mu     sync.Mutex
	rwc    io.ReadWriteCloser
	closed bool
}

func (c *Conn) run(ctx context.Context, dial DialFunc, addr string, port uint16, size int) {
	rwc, err := dial(ctx, addr, port)
	c.cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if rwc != nil {
			rwc.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.post(gomq.EventConnected{Err: err})
		return
	}
	c.rwc = rwc
	c.mu.Unlock()

	c.post(gomq.EventConnected{})

	for {
		buf := make([]byte, size)
		n, err := rwc.Read(buf)
		if n > 0 && !c.isClosed() {
			c.post(gomq.EventDataReceived{Data: buf[:n]})
		}
		if err != nil {
			if c.isClosed() {
				return
			}
			if err == io.EOF {
				err = gomq.ErrClosed
			}
			log.WithFields(log.Fields{
				"addr": addr,
				"err":  err,
			}).Debug("Transport read ended")
			c.post(gomq.EventError{Err: err})
			return
		}
	}
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	return closed
}

func (c *Conn) Write(p []byte) error {
	c.mu.Lock()
	rwc := c.rwc
	if c.closed || rwc == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.mu.Unlock()

	n, err := rwc.Write(p)
	if err != nil {
		return err
	}
	c.post(gomq.EventSendComplete{N: n})
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	rwc := c.rwc
	c.mu.Unlock()

	c.cancel()
	if rwc != nil {
		return rwc.Close()
	}
	return nil
}
