package gomq

import "github.com/RoanBrand/gomq/internal/model"

type credentials struct {
	username, password []byte
	enabled            bool
}

type will struct {
	topic, payload []byte
	qos            uint8
	retain         bool
	enabled        bool
}

func (c *credentials) apply(o *model.ConnectOptions) {
	if c.enabled {
		o.Auth, o.Username, o.Password = true, c.username, c.password
	}
}

func (w *will) apply(o *model.ConnectOptions) {
	if w.enabled {
		o.Will, o.WillTopic, o.WillPayload = true, w.topic, w.payload
		o.WillQoS, o.WillRetain = w.qos, w.retain
	}
}

// SetAuth sets the credentials sent in the next CONNECT. An empty username disables authentication.
func (e *Engine) SetAuth(username, password []byte) {
	c := &e.creds
	c.username = truncate(c.username, username)
	c.password = truncate(c.password, password)
	c.enabled = len(c.username) > 0
}

// SetWill sets the will message sent in the next CONNECT. An empty topic clears the will.
func (e *Engine) SetWill(topic, payload []byte, qos uint8, retain bool) error {
	if qos > 2 {
		return ErrInvalidQoS
	}

	w := &e.will
	w.topic = truncate(w.topic, topic)
	w.payload = truncate(w.payload, payload)
	w.qos, w.retain = qos, retain
	w.enabled = len(w.topic) > 0
	return nil
}

func (e *Engine) ClearWill() {
	e.SetWill(nil, nil, 0, false)
}

// Settings is a snapshot of the credentials and will of an Engine.
type Settings struct {
	Username []byte `json:"username,omitempty"`
	Password []byte `json:"password,omitempty"`

	WillTopic   []byte `json:"will_topic,omitempty"`
	WillPayload []byte `json:"will_payload,omitempty"`
	WillQoS     uint8  `json:"will_qos,omitempty"`
	WillRetain  bool   `json:"will_retain,omitempty"`
}

func (e *Engine) Settings() Settings {
	s := Settings{
		Username: append([]byte(nil), e.creds.username...),
		Password: append([]byte(nil), e.creds.password...),
	}
	if e.will.enabled {
		s.WillTopic = append([]byte(nil), e.will.topic...)
		s.WillPayload = append([]byte(nil), e.will.payload...)
		s.WillQoS, s.WillRetain = e.will.qos, e.will.retain
	}
	return s
}

// ApplySettings restores a snapshot taken with Settings.
func (e *Engine) ApplySettings(s Settings) error {
	if err := e.SetWill(s.WillTopic, s.WillPayload, s.WillQoS, s.WillRetain); err != nil {
		return err
	}
	e.SetAuth(s.Username, s.Password)
	return nil
}
