package model

import "errors"

// Control Packets
const (
	CONNECT     = 1 << 4
	CONNACK     = 2 << 4
	PUBLISH     = 3 << 4
	PUBACK      = 4 << 4
	PUBREC      = 5 << 4
	PUBREL      = 6 << 4
	PUBCOMP     = 7 << 4
	SUBSCRIBE   = 8 << 4
	SUBACK      = 9 << 4
	UNSUBSCRIBE = 10 << 4
	UNSUBACK    = 11 << 4
	PINGREQ     = 12 << 4
	PINGRESP    = 13 << 4
	DISCONNECT  = 14 << 4

	SUBSCRIBESend   = SUBSCRIBE | 2   // [MQTT-3.8.1-1]
	UNSUBSCRIBESend = UNSUBSCRIBE | 2 // [MQTT-3.10.1-1]
)

// ProtocolLevel is the CONNECT protocol level byte for MQTT 3.1.1.
const ProtocolLevel = 4

// MaxRemainingLength is the largest value a 4 byte remaining length field can carry.
const MaxRemainingLength = 268435455

// CONNECT flags
const (
	flagCleanSession = 0x02
	flagWill         = 0x04
	flagWillRetain   = 0x20
	flagPassword     = 0x40
	flagUsername     = 0x80
)

var ErrMalformedLength = errors.New("malformed remaining length")

// ConnackCode is the return code carried in the second byte of a CONNACK variable header.
type ConnackCode byte

// CONNACK return codes
const (
	Accepted ConnackCode = iota
	RefusedProtocolVersion
	RefusedIdentifierRejected
	RefusedServerUnavailable
	RefusedBadUsernameOrPassword
	RefusedNotAuthorized
)

func (c ConnackCode) String() string {
	switch c {
	case Accepted:
		return "connection accepted"
	case RefusedProtocolVersion:
		return "unacceptable protocol version"
	case RefusedIdentifierRejected:
		return "identifier rejected"
	case RefusedServerUnavailable:
		return "server unavailable"
	case RefusedBadUsernameOrPassword:
		return "bad user name or password"
	case RefusedNotAuthorized:
		return "not authorized"
	}
	return "unknown return code"
}

// PacketName returns a readable name for the control type in the upper nibble of b.
func PacketName(b byte) string {
	switch b & 0xF0 {
	case CONNECT:
		return "CONNECT"
	case CONNACK:
		return "CONNACK"
	case PUBLISH:
		return "PUBLISH"
	case PUBACK:
		return "PUBACK"
	case PUBREC:
		return "PUBREC"
	case PUBREL:
		return "PUBREL"
	case PUBCOMP:
		return "PUBCOMP"
	case SUBSCRIBE:
		return "SUBSCRIBE"
	case SUBACK:
		return "SUBACK"
	case UNSUBSCRIBE:
		return "UNSUBSCRIBE"
	case UNSUBACK:
		return "UNSUBACK"
	case PINGREQ:
		return "PINGREQ"
	case PINGRESP:
		return "PINGRESP"
	case DISCONNECT:
		return "DISCONNECT"
	}
	return "UNKNOWN"
}

func VariableLengthEncode(packet []byte, l int) []byte {
	for {
		eb := l % 128
		l /= 128
		if l > 0 {
			eb |= 128
		}
		packet = append(packet, byte(eb))
		if l <= 0 {
			break
		}
	}
	return packet
}

// VariableLengthDecode reads a remaining length field from the start of b.
// It returns the value and the number of bytes the field occupies.
// n is 0 when b ends before the field does.
func VariableLengthDecode(b []byte) (l, n int, err error) {
	mul := 1
	for i, eb := range b {
		l += int(eb&127) * mul
		if eb&128 == 0 {
			return l, i + 1, nil
		}
		if i == 3 {
			return 0, 0, ErrMalformedLength
		}
		mul *= 128
	}
	return 0, 0, nil
}

func LengthToNumberOfVariableLengthBytes(l int) int {
	switch {
	case l < 128:
		return 1
	case l < 16384:
		return 2
	case l < 2097152:
		return 3
	default:
		return 4
	}
}
