package model

// ConnectOptions holds everything that goes into a CONNECT packet.
// Clean session is always requested.
type ConnectOptions struct {
	ClientID  []byte
	KeepAlive uint16 // seconds

	Auth               bool
	Username, Password []byte

	Will                   bool
	WillTopic, WillPayload []byte
	WillQoS                uint8
	WillRetain             bool
}

// Message is an application message taken from an inbound PUBLISH.
type Message struct {
	Topic   []byte
	Payload []byte
	QoS     uint8
	Retain  bool
	PId     uint16 // QoS 1&2 only
}

// ParsePublish splits a complete PUBLISH packet (fixed header included) into its parts.
// The returned slices alias pkt.
func ParsePublish(pkt []byte) (Message, error) {
	var m Message
	if len(pkt) < 2 || pkt[0]&0xF0 != PUBLISH {
		return m, errNotPublish
	}

	rl, n, err := VariableLengthDecode(pkt[1:])
	if err != nil {
		return m, err
	}
	if n == 0 || 1+n+rl != len(pkt) {
		return m, errShortPublish
	}

	m.QoS, m.Retain = (pkt[0]>>1)&3, pkt[0]&1 == 1
	if m.QoS == 3 { // [MQTT-3.3.1-4]
		return m, errPublishQoS
	}

	vh := pkt[1+n:]
	if len(vh) < 2 {
		return m, errShortPublish
	}
	tl := int(vh[0])<<8 | int(vh[1])
	vh = vh[2:]
	if len(vh) < tl {
		return m, errShortPublish
	}
	m.Topic, vh = vh[:tl], vh[tl:]

	if m.QoS > 0 {
		if len(vh) < 2 {
			return m, errShortPublish
		}
		m.PId = uint16(vh[0])<<8 | uint16(vh[1])
		vh = vh[2:]
	}
	m.Payload = vh
	return m, nil
}
