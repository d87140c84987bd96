// Package tcp provides the plain TCP transport and a name resolver for gomq.
package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/RoanBrand/gomq"
	"github.com/RoanBrand/gomq/internal/transport"
	log "github.com/sirupsen/logrus"
)

var errNoAddress = errors.New("no address found")

// NewDialer returns a gomq.Dialer that connects over TCP and posts its events to post.
func NewDialer(post func(gomq.Event), timeout time.Duration) *transport.Dialer {
	return &transport.Dialer{
		DialFunc: dial,
		Post:     post,
		Timeout:  timeout,
	}
}

func dial(ctx context.Context, addr string, port uint16) (io.ReadWriteCloser, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", net.JoinHostPort(addr, strconv.Itoa(int(port))))
	if err != nil {
		return nil, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	return c, nil
}

// Resolver implements gomq.NameResolver with a background lookup.
type Resolver struct {
	Post func(gomq.Event)

	// Defaults to net.DefaultResolver.
	Resolver *net.Resolver
	// Default 10s.
	Timeout time.Duration
}

func (r *Resolver) Resolve(host string) error {
	if r.Post == nil {
		return errors.New("resolver not configured")
	}

	res, timeout := r.Resolver, r.Timeout
	if res == nil {
		res = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		addrs, err := res.LookupHost(ctx, host)
		if err == nil && len(addrs) == 0 {
			err = errNoAddress
		}
		if err != nil {
			r.Post(gomq.EventNameResolved{Err: err})
			return
		}

		log.WithFields(log.Fields{
			"host": host,
			"addr": addrs[0],
		}).Debug("Resolved broker")
		r.Post(gomq.EventNameResolved{Addr: addrs[0]})
	}()
	return nil
}
