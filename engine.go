// Package gomq is a small MQTT 3.1.1 client protocol engine.
//
// The Engine owns no goroutines and does no locking. Commands and collaborator
// events must be serialized by the caller, which is what Loop does.
package gomq

import (
	"time"

	"github.com/RoanBrand/gomq/internal/model"
	"github.com/RoanBrand/gomq/internal/stream"
	log "github.com/sirupsen/logrus"
)

type Engine struct {
	dialer   Dialer
	resolver NameResolver
	obs      Observer
	now      func() time.Time

	lim       Limits
	keepAlive time.Duration

	state    State
	conn     Transport
	host     string
	port     uint16
	clientID []byte
	pID      uint16
	err      error

	lastActivity time.Time
	lastPing     time.Time

	tx *model.Frame
	rx *stream.Stream

	creds credentials
	will  will
	inbox inbox
}

func New(d Dialer, r NameResolver, o Options) *Engine {
	o.setDefaults()
	l := o.Limits

	return &Engine{
		dialer:    d,
		resolver:  r,
		obs:       o.Observer,
		now:       o.Now,
		lim:       l,
		keepAlive: o.KeepAlive,
		clientID:  make([]byte, 0, l.ClientID),
		pID:       1,
		tx:        model.NewFrame(l.TxBuffer),
		rx:        stream.New(l.RxBuffer),
		creds: credentials{
			username: make([]byte, 0, l.Username),
			password: make([]byte, 0, l.Password),
		},
		will: will{
			topic:   make([]byte, 0, l.TopicBuffer),
			payload: make([]byte, 0, l.PayloadBuffer),
		},
		inbox: inbox{
			topic:   make([]byte, 0, l.TopicBuffer),
			payload: make([]byte, 0, l.PayloadBuffer),
		},
	}
}

// Connect starts a new session with the broker at host:port.
// It only starts name resolution. Progress is driven by events passed to Dispatch.
func (e *Engine) Connect(host string, port uint16, clientID string) error {
	if e.state != Idle {
		return ErrBusy
	}
	if host == "" {
		return ErrInvalidHost
	}
	if clientID == "" {
		clientID = DefaultClientID
	}

	e.clientID = truncate(e.clientID, []byte(clientID))
	e.host, e.port = host, port
	e.err = nil

	now := e.now()
	e.lastActivity, e.lastPing = now, now
	e.setState(ResolvingName)

	log.WithFields(log.Fields{
		"client": string(e.clientID),
		"broker": host,
		"port":   port,
	}).Debug("Resolving broker address")

	if err := e.resolver.Resolve(host); err != nil {
		e.reset(transportError("resolve "+host, err))
		return e.err
	}
	return nil
}

// Disconnect sends DISCONNECT and closes the session. Only valid when Connected.
func (e *Engine) Disconnect() error {
	if e.state != Connected {
		return ErrNotConnected
	}

	e.setState(Disconnecting)
	e.sendDisconnect()
	e.reset(nil)
	return nil
}

// Stop abandons the session from any state. DISCONNECT is only sent when Connected.
func (e *Engine) Stop() {
	if e.state == Idle {
		return
	}
	if e.state == Connected {
		e.setState(Disconnecting)
		e.sendDisconnect()
	}
	e.reset(nil)
}

func (e *Engine) sendDisconnect() {
	if err := model.BuildDisconnect(e.tx); err != nil {
		log.WithFields(log.Fields{
			"client": string(e.clientID),
			"err":    err,
		}).Error("Failed to build DISCONNECT")
		return
	}
	if err := e.send(); err != nil {
		log.WithFields(log.Fields{
			"client": string(e.clientID),
			"err":    err,
		}).Error("Failed to send DISCONNECT")
	}
}

// Publish sends a PUBLISH. For QoS 1&2 a packet identifier is allocated,
// but the acknowledgement is never tracked.
func (e *Engine) Publish(topic, payload []byte, qos uint8, retain bool) error {
	if err := e.checkCommand(topic, qos); err != nil {
		return err
	}

	var pID uint16
	if qos > 0 {
		pID = e.peekPacketID()
	}
	if err := model.BuildPublish(e.tx, topic, payload, qos, retain, pID); err != nil {
		return resourceError("build PUBLISH", err)
	}
	if qos > 0 {
		e.pID = pID
	}
	return e.sendCommand()
}

// Subscribe sends a SUBSCRIBE for a single topic filter. SUBACK is not awaited.
func (e *Engine) Subscribe(filter []byte, qos uint8) error {
	if err := e.checkCommand(filter, qos); err != nil {
		return err
	}

	pID := e.peekPacketID()
	if err := model.BuildSubscribe(e.tx, pID, filter, qos); err != nil {
		return resourceError("build SUBSCRIBE", err)
	}
	e.pID = pID
	return e.sendCommand()
}

// Unsubscribe sends an UNSUBSCRIBE for a single topic filter. UNSUBACK is not awaited.
func (e *Engine) Unsubscribe(filter []byte) error {
	if err := e.checkCommand(filter, 0); err != nil {
		return err
	}

	pID := e.peekPacketID()
	if err := model.BuildUnsubscribe(e.tx, pID, filter); err != nil {
		return resourceError("build UNSUBSCRIBE", err)
	}
	e.pID = pID
	return e.sendCommand()
}

func (e *Engine) checkCommand(topic []byte, qos uint8) error {
	if e.state != Connected {
		return ErrNotConnected
	}
	if len(topic) == 0 {
		return ErrInvalidTopic
	}
	if qos > 2 {
		return ErrInvalidQoS
	}
	return nil
}

// sendCommand writes the built frame. A failed write leaves the channel
// in an unknown state, so the session is reset.
func (e *Engine) sendCommand() error {
	if err := e.send(); err != nil {
		e.reset(err)
		return err
	}
	e.lastActivity = e.now()
	return nil
}

func (e *Engine) send() error {
	p := e.tx.Bytes()
	if err := e.conn.Write(p); err != nil {
		return transportError("write "+model.PacketName(p[0]), err)
	}

	e.obs.PacketSent(p[0]&0xF0, len(p))
	log.WithFields(log.Fields{
		"client": string(e.clientID),
		"packet": model.PacketName(p[0]),
		"size":   len(p),
	}).Debug("Sent packet")
	return nil
}

// peekPacketID returns the identifier the next packet will use. Never 0.
func (e *Engine) peekPacketID() uint16 {
	id := e.pID + 1
	if id == 0 {
		id = 1
	}
	return id
}

func (e *Engine) IsConnected() bool {
	return e.state == Connected
}

func (e *Engine) State() State {
	return e.state
}

// Err returns why the session last returned to Idle. nil after a clean disconnect.
func (e *Engine) Err() error {
	return e.err
}

func (e *Engine) ClientID() string {
	return string(e.clientID)
}

func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	from := e.state
	e.state = s
	e.obs.StateChanged(from, s)
}

// reset returns the session to Idle, closes the transport and clears
// the receive buffer and inbox. Credentials and will are kept.
func (e *Engine) reset(reason error) {
	if reason != nil {
		log.WithFields(log.Fields{
			"client": string(e.clientID),
			"state":  e.state.String(),
			"err":    reason,
		}).Error("Session reset")
	} else if e.state != Idle {
		log.WithFields(log.Fields{
			"client": string(e.clientID),
		}).Info("Disconnected")
	}

	e.err = reason
	if e.conn != nil {
		if err := e.conn.Close(); err != nil {
			log.WithFields(log.Fields{
				"client": string(e.clientID),
				"err":    err,
			}).Debug("Error closing transport")
		}
		e.conn = nil
	}

	e.tx.Reset()
	e.rx.Reset()
	e.inbox.clear()
	e.setState(Idle)
}

// truncate copies src into dst's backing array, keeping at most cap(dst)-1 bytes.
func truncate(dst, src []byte) []byte {
	if n := cap(dst) - 1; len(src) > n {
		src = src[:n]
	}
	return append(dst[:0], src...)
}
