package gomq

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RoanBrand/gomq/internal/queue"
	log "github.com/sirupsen/logrus"
)

var ErrLoopClosed = errors.New("mqtt: loop closed")

// Loop serializes everything that touches an Engine onto one dispatcher goroutine.
// Post and Do are safe for concurrent use.
type Loop struct {
	e *Engine
	q queue.Basic
}

type command struct {
	fn   func(*Engine)
	done chan struct{}
}

type tick struct{}

func NewLoop(e *Engine) *Loop {
	l := Loop{e: e}
	l.q.Init()
	return &l
}

// Post queues an event for the engine. Slices carried by the event must not be
// modified afterwards. Events posted after the loop stopped are discarded.
func (l *Loop) Post(ev Event) {
	if !l.q.Add(queue.GetItem(ev)) {
		log.WithFields(log.Fields{
			"event": ev,
		}).Debug("Loop closed - event discarded")
	}
}

// Do runs fn on the dispatcher goroutine and waits for it to finish.
// If ctx ends first, fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func(*Engine)) error {
	c := command{fn: fn, done: make(chan struct{})}
	if !l.q.Add(queue.GetItem(&c)) {
		return ErrLoopClosed
	}

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches until ctx is done, calling Engine.Tick every interval.
// On exit the session is stopped and everything already queued is drained.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go l.q.StartDispatcher(l.dispatch, &wg)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.q.Add(queue.GetItem(&command{fn: (*Engine).Stop}))
			l.q.Close()
			wg.Wait()
			return ctx.Err()
		case <-t.C:
			l.q.Add(queue.GetItem(tick{}))
		}
	}
}

func (l *Loop) dispatch(i *queue.Item) error {
	switch v := i.V.(type) {
	case Event:
		l.e.Dispatch(v)
	case *command:
		v.fn(l.e)
		if v.done != nil {
			close(v.done)
		}
	case tick:
		l.e.Tick()
	}

	queue.ReturnItem(i)
	return nil
}
