package gomq

// inbox holds at most one received application message.
type inbox struct {
	topic, payload []byte
	available      bool
}

func (b *inbox) store(topic, payload []byte) {
	b.topic = truncate(b.topic, topic)
	b.payload = truncate(b.payload, payload)
	b.available = true
}

func (b *inbox) clear() {
	b.topic, b.payload = b.topic[:0], b.payload[:0]
	b.available = false
}

// Poll returns the payload length of the pending message, or 0 if there is none.
func (e *Engine) Poll() int {
	if !e.inbox.available {
		return 0
	}
	return len(e.inbox.payload)
}

// ReadMessage copies the pending payload into p and frees the inbox.
// It returns the number of bytes copied, 0 if no message is pending.
func (e *Engine) ReadMessage(p []byte) int {
	if !e.inbox.available {
		return 0
	}
	n := copy(p, e.inbox.payload)
	e.inbox.available = false
	return n
}

// GetTopic copies the topic of the last received message into p without consuming it.
// A 0 terminator follows the topic when p has room for it.
func (e *Engine) GetTopic(p []byte) int {
	if len(e.inbox.topic) == 0 {
		return 0
	}
	n := copy(p, e.inbox.topic)
	if n < len(p) {
		p[n] = 0
	}
	return n
}

// Message returns copies of the pending message without consuming it.
func (e *Engine) Message() (topic, payload []byte, ok bool) {
	if !e.inbox.available {
		return nil, nil, false
	}
	return append([]byte(nil), e.inbox.topic...), append([]byte(nil), e.inbox.payload...), true
}
