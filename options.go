package gomq

import "time"

// DefaultClientID is used when Connect is given an empty client identifier.
const DefaultClientID = "rp6502"

// Limits sizes the fixed buffers of an Engine. Text fields hold at most size-1 bytes.
type Limits struct {
	TxBuffer      int
	RxBuffer      int
	TopicBuffer   int
	PayloadBuffer int
	ClientID      int
	Username      int
	Password      int
}

var DefaultLimits = Limits{
	TxBuffer:      1024,
	RxBuffer:      2048,
	TopicBuffer:   256,
	PayloadBuffer: 1024,
	ClientID:      128,
	Username:      128,
	Password:      128,
}

type Options struct {
	// Zero fields take their value from DefaultLimits.
	Limits Limits

	// KeepAlive is sent in CONNECT. PINGREQ is sent every KeepAlive/2. Default 60s.
	KeepAlive time.Duration

	Observer Observer

	// Now defaults to time.Now.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	l, d := &o.Limits, DefaultLimits
	orDefault(&l.TxBuffer, d.TxBuffer)
	orDefault(&l.RxBuffer, d.RxBuffer)
	orDefault(&l.TopicBuffer, d.TopicBuffer)
	orDefault(&l.PayloadBuffer, d.PayloadBuffer)
	orDefault(&l.ClientID, d.ClientID)
	orDefault(&l.Username, d.Username)
	orDefault(&l.Password, d.Password)

	if o.KeepAlive <= 0 {
		o.KeepAlive = 60 * time.Second
	}
	if o.KeepAlive > 65535*time.Second {
		o.KeepAlive = 65535 * time.Second
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

func orDefault(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}
