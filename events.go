package gomq

// Event is a notification from a collaborator (resolver or transport).
// Events are fed to Engine.Dispatch, usually through a Loop.
type Event interface {
	event()
}

// EventNameResolved carries the result of NameResolver.Resolve.
type EventNameResolved struct {
	Addr string
	Err  error
}

// EventConnected reports the outcome of the transport handshake started by Dialer.Dial.
type EventConnected struct {
	Err error
}

// EventDataReceived carries a chunk of bytes read from the transport.
// Data may be reused by the transport once Dispatch returns.
type EventDataReceived struct {
	Data []byte
}

// EventSendComplete reports that the transport flushed N bytes.
type EventSendComplete struct {
	N int
}

// EventError reports a transport failure or remote close (ErrClosed).
type EventError struct {
	Err error
}

func (EventNameResolved) event() {}
func (EventConnected) event() {}
func (EventDataReceived) event() {}
func (EventSendComplete) event() {}
func (EventError) event() {}
