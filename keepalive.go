package gomq

import (
	"time"

	"github.com/RoanBrand/gomq/internal/model"
	log "github.com/sirupsen/logrus"
)

// Tick must be called periodically. While Connected it sends PINGREQ
// once more than half the keep alive interval has passed since the last one.
// No PINGRESP deadline is enforced.
func (e *Engine) Tick() {
	if e.state != Connected {
		return
	}

	now := e.now()
	if now.Sub(e.lastPing) <= e.keepAlive/2 {
		return
	}

	if err := model.BuildPingreq(e.tx); err != nil {
		log.WithFields(log.Fields{
			"client": string(e.clientID),
			"err":    err,
		}).Error("Failed to build PINGREQ")
		return
	}
	if err := e.send(); err != nil {
		log.WithFields(log.Fields{
			"client": string(e.clientID),
			"err":    err,
		}).Error("Failed to send PINGREQ")
		return
	}
	e.lastPing = now
}

// LastActivity returns when the broker last showed signs of life or a write last succeeded.
func (e *Engine) LastActivity() time.Time {
	return e.lastActivity
}
