// Package websocket provides the MQTT over Websocket transport for gomq.
package websocket

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/RoanBrand/gomq"
	"github.com/RoanBrand/gomq/internal/transport"
	"github.com/gorilla/websocket"
)

// NewDialer returns a gomq.Dialer that connects to ws://addr:port/path and posts its events to post.
func NewDialer(post func(gomq.Event), path string, timeout time.Duration) *transport.Dialer {
	return &transport.Dialer{
		DialFunc: dialFunc(path),
		Post:     post,
		Timeout:  timeout,
	}
}

func dialFunc(path string) transport.DialFunc {
	return func(ctx context.Context, addr string, port uint16) (io.ReadWriteCloser, error) {
		d := websocket.Dialer{
			Subprotocols: []string{"mqtt"}, // [MQTT-6.0.0-3]
			NetDial: func(network, a string) (net.Conn, error) {
				var nd net.Dialer
				return nd.DialContext(ctx, network, a)
			},
		}
		if deadline, ok := ctx.Deadline(); ok {
			d.HandshakeTimeout = time.Until(deadline)
		}

		u := url.URL{Scheme: "ws", Host: net.JoinHostPort(addr, strconv.Itoa(int(port))), Path: path}
		conn, resp, err := d.Dial(u.String(), http.Header{})
		if err != nil {
			if resp != nil {
				return nil, errors.New("websocket handshake failed: " + resp.Status)
			}
			return nil, err
		}
		if conn.Subprotocol() != "mqtt" {
			conn.Close()
			return nil, errors.New("broker did not accept websocket sub protocol 'mqtt'")
		}

		return &wsConn{Conn: conn}, nil
	}
}

type wsConn struct {
	*websocket.Conn
	r io.Reader
}

func (c *wsConn) Write(p []byte) (int, error) {
	err := c.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			var err error
			var mt int
			if mt, c.r, err = c.NextReader(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.BinaryMessage { // [MQTT-6.0.0-1]
				return 0, errors.New("not binary message")
			}
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			} else {
				continue
			}
		}
		return n, err
	}
}
