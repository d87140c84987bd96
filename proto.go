package gomq

import (
	"errors"
	"fmt"
	"time"

	"github.com/RoanBrand/gomq/internal/model"
	"github.com/RoanBrand/gomq/internal/stream"
	log "github.com/sirupsen/logrus"
)

var errNilTransport = errors.New("dialer returned no transport")

// Dispatch advances the session with an event from a collaborator.
// Events that arrive while Idle belong to an abandoned session and are ignored.
func (e *Engine) Dispatch(ev Event) {
	if e.state == Idle {
		log.WithFields(log.Fields{
			"event": fmt.Sprintf("%T", ev),
		}).Debug("Ignoring event while idle")
		return
	}

	switch ev := ev.(type) {
	case EventNameResolved:
		e.onNameResolved(ev)
	case EventConnected:
		e.onConnected(ev)
	case EventDataReceived:
		e.onData(ev.Data)
	case EventSendComplete:
		e.lastActivity = e.now()
	case EventError:
		err := ev.Err
		if err == nil {
			err = ErrClosed
		}
		e.reset(transportError("connection", err))
	}
}

func (e *Engine) onNameResolved(ev EventNameResolved) {
	if e.state != ResolvingName || e.conn != nil {
		return
	}
	if ev.Err != nil {
		e.reset(transportError("resolve "+e.host, ev.Err))
		return
	}

	log.WithFields(log.Fields{
		"client": string(e.clientID),
		"addr":   ev.Addr,
		"port":   e.port,
	}).Debug("Dialing broker")

	conn, err := e.dialer.Dial(ev.Addr, e.port)
	if err == nil && conn == nil {
		err = errNilTransport
	}
	if err != nil {
		e.reset(transportError("dial", err))
		return
	}
	e.conn = conn
}

func (e *Engine) onConnected(ev EventConnected) {
	if e.state != ResolvingName || e.conn == nil {
		return
	}
	if ev.Err != nil {
		e.reset(transportError("connect", ev.Err))
		return
	}

	o := model.ConnectOptions{
		ClientID:  e.clientID,
		KeepAlive: uint16(e.keepAlive / time.Second),
	}
	e.creds.apply(&o)
	e.will.apply(&o)

	if err := model.BuildConnect(e.tx, &o); err != nil {
		e.reset(resourceError("build CONNECT", err))
		return
	}
	if err := e.send(); err != nil {
		e.reset(err)
		return
	}

	e.lastActivity = e.now()
	e.setState(Connecting)
}

func (e *Engine) onData(data []byte) {
	_, err := e.rx.Feed(data, e.handlePacket)
	switch {
	case err == nil:
	case err == stream.ErrOverflow:
		log.WithFields(log.Fields{
			"client":   string(e.clientID),
			"size":     len(data),
			"buffered": e.rx.Len(),
		}).Warn("Receive buffer overflow - dropping data")
		e.obs.Dropped(DropRxOverflow)
	case errors.Is(err, ErrProtocol):
		e.reset(err)
	default:
		e.reset(protocolViolation(err.Error()))
	}
}

// handlePacket is called with each complete packet. It must not reset the
// session itself; a returned error stops the stream and resets afterwards.
func (e *Engine) handlePacket(pkt []byte) error {
	t := pkt[0] & 0xF0
	e.obs.PacketReceived(t, len(pkt))

	log.WithFields(log.Fields{
		"client": string(e.clientID),
		"packet": model.PacketName(t),
		"size":   len(pkt),
	}).Debug("Got packet")

	switch t {
	case model.CONNACK:
		return e.handleConnack(pkt)
	case model.PUBLISH:
		return e.handlePublish(pkt)
	case model.PUBACK, model.SUBACK, model.UNSUBACK, model.PINGRESP:
		e.lastActivity = e.now()
	default:
		log.WithFields(log.Fields{
			"client": string(e.clientID),
			"type":   pkt[0] >> 4,
		}).Warn("Ignoring unknown packet")
	}
	return nil
}

func (e *Engine) handleConnack(pkt []byte) error {
	if e.state != Connecting {
		log.WithFields(log.Fields{
			"client": string(e.clientID),
			"state":  e.state.String(),
		}).Warn("Ignoring unexpected CONNACK")
		return nil
	}

	vh := variableHeader(pkt)
	if len(vh) < 2 {
		return protocolViolation("malformed CONNACK")
	}
	if rc := model.ConnackCode(vh[1]); rc != model.Accepted {
		return fmt.Errorf("%w: %s (%d)", ErrRefused, rc, byte(rc))
	}

	e.lastActivity = e.now()
	e.setState(Connected)
	log.WithFields(log.Fields{
		"client": string(e.clientID),
		"broker": e.host,
	}).Info("Connected")
	return nil
}

func (e *Engine) handlePublish(pkt []byte) error {
	m, err := model.ParsePublish(pkt)
	if err != nil {
		return protocolViolation(err.Error())
	}
	e.lastActivity = e.now()

	if e.inbox.available {
		log.WithFields(log.Fields{
			"client": string(e.clientID),
			"topic":  string(m.Topic),
		}).Warn("Inbox full - dropping message")
		e.obs.Dropped(DropInboxFull)
		return nil
	}

	e.inbox.store(m.Topic, m.Payload)
	log.WithFields(log.Fields{
		"client": string(e.clientID),
		"topic":  string(e.inbox.topic),
		"qos":    m.QoS,
	}).Debug("Received message")
	return nil
}

// variableHeader returns everything after the fixed header of a complete packet.
func variableHeader(pkt []byte) []byte {
	_, n, _ := model.VariableLengthDecode(pkt[1:])
	return pkt[1+n:]
}
