package gomq

// NameResolver starts resolving host. The result is delivered as EventNameResolved.
// An error return means resolution could not be started.
type NameResolver interface {
	Resolve(host string) error
}

// Dialer opens a transport to addr:port. Completion of the handshake is
// delivered as EventConnected. Inbound bytes arrive as EventDataReceived.
type Dialer interface {
	Dial(addr string, port uint16) (Transport, error)
}

// Transport is an open byte channel to the broker.
type Transport interface {
	Write(p []byte) error
	Close() error
}

// Observer is notified of engine activity. Implementations must not call back into the Engine.
type Observer interface {
	StateChanged(from, to State)
	PacketSent(packetType byte, n int)
	PacketReceived(packetType byte, n int)
	Dropped(reason string)
}

// Drop reasons passed to Observer.Dropped.
const (
	DropInboxFull  = "inbox_full"
	DropRxOverflow = "rx_overflow"
)

type nopObserver struct{}

func (nopObserver) StateChanged(State, State) {}
func (nopObserver) PacketSent(byte, int) {}
func (nopObserver) PacketReceived(byte, int) {}
func (nopObserver) Dropped(string) {}
