package model

import "errors"

var (
	errNotPublish   = errors.New("not a PUBLISH packet")
	errShortPublish = errors.New("malformed PUBLISH - truncated")
	errPublishQoS   = errors.New("malformed PUBLISH - No QoS3")
)

var (
	pingReqPacket    = []byte{PINGREQ, 0}
	disconnectPacket = []byte{DISCONNECT, 0}
)

// BuildConnect writes a CONNECT packet into f. [MQTT-3.1]
func BuildConnect(f *Frame, o *ConnectOptions) error {
	if err := checkStrings(o.ClientID, o.WillTopic, o.WillPayload, o.Username, o.Password); err != nil {
		return err
	}

	flags := byte(flagCleanSession)
	rl := 10 + 2 + len(o.ClientID)
	if o.Will {
		flags |= flagWill | (o.WillQoS&3)<<3
		if o.WillRetain {
			flags |= flagWillRetain
		}
		rl += 4 + len(o.WillTopic) + len(o.WillPayload)
	}
	if o.Auth {
		flags |= flagUsername | flagPassword
		rl += 4 + len(o.Username) + len(o.Password)
	}

	if err := f.begin(CONNECT, rl); err != nil {
		return err
	}

	f.buf = append(f.buf, 0, 4, 'M', 'Q', 'T', 'T', ProtocolLevel, flags)
	f.putUint16(o.KeepAlive)
	f.putString(o.ClientID)
	if o.Will {
		f.putString(o.WillTopic)
		f.putString(o.WillPayload)
	}
	if o.Auth {
		f.putString(o.Username)
		f.putString(o.Password)
	}
	return nil
}

// BuildPublish writes a PUBLISH packet into f. pID is only written for QoS 1&2.
func BuildPublish(f *Frame, topic, payload []byte, qos uint8, retain bool, pID uint16) error {
	if err := checkStrings(topic); err != nil {
		return err
	}

	header := byte(PUBLISH) | (qos&3)<<1
	if retain {
		header |= 1
	}
	rl := 2 + len(topic) + len(payload)
	if qos > 0 {
		rl += 2
	}

	if err := f.begin(header, rl); err != nil {
		return err
	}

	f.putString(topic)
	if qos > 0 {
		f.putUint16(pID)
	}
	f.buf = append(f.buf, payload...)
	return nil
}

// BuildSubscribe writes a SUBSCRIBE packet with a single topic filter into f.
func BuildSubscribe(f *Frame, pID uint16, filter []byte, qos uint8) error {
	if err := checkStrings(filter); err != nil {
		return err
	}
	if err := f.begin(SUBSCRIBESend, 2+2+len(filter)+1); err != nil {
		return err
	}

	f.putUint16(pID)
	f.putString(filter)
	f.buf = append(f.buf, qos&3)
	return nil
}

// BuildUnsubscribe writes an UNSUBSCRIBE packet with a single topic filter into f.
func BuildUnsubscribe(f *Frame, pID uint16, filter []byte) error {
	if err := checkStrings(filter); err != nil {
		return err
	}
	if err := f.begin(UNSUBSCRIBESend, 2+2+len(filter)); err != nil {
		return err
	}

	f.putUint16(pID)
	f.putString(filter)
	return nil
}

func BuildPingreq(f *Frame) error {
	return f.fixed(pingReqPacket)
}

func BuildDisconnect(f *Frame) error {
	return f.fixed(disconnectPacket)
}

func (f *Frame) fixed(p []byte) error {
	if len(p) > cap(f.buf) {
		return ErrFrameFull
	}
	f.buf = append(f.buf[:0], p...)
	return nil
}
