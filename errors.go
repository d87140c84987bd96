package gomq

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the Engine wraps exactly one of these.
var (
	// ErrProtocol means the broker sent something malformed or refused the connection.
	// The session is reset to Idle.
	ErrProtocol = errors.New("mqtt: protocol error")
	// ErrTransport means the channel to the broker failed. The session is reset to Idle.
	ErrTransport = errors.New("mqtt: transport error")
	// ErrResourceExhausted means a packet did not fit a fixed buffer. Session state is unchanged.
	ErrResourceExhausted = errors.New("mqtt: resource exhausted")
	// ErrMisuse means a command was invalid for the current state. Nothing was sent.
	ErrMisuse = errors.New("mqtt: caller misuse")
)

var (
	ErrBusy         = fmt.Errorf("%w: session not idle", ErrMisuse)
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrMisuse)
	ErrInvalidQoS   = fmt.Errorf("%w: invalid QoS", ErrMisuse)
	ErrInvalidTopic = fmt.Errorf("%w: empty topic", ErrMisuse)
	ErrInvalidHost  = fmt.Errorf("%w: empty broker host", ErrMisuse)

	ErrRefused = fmt.Errorf("%w: connection refused", ErrProtocol)

	// ErrClosed is posted by transports in EventError when the broker closes the connection.
	ErrClosed = errors.New("connection closed by broker")
)

func protocolViolation(msg string) error {
	return fmt.Errorf("%w: broker protocol violation: %s", ErrProtocol, msg)
}

func transportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
}

func resourceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrResourceExhausted, op, err)
}
