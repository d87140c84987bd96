package config

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "GOMQ_"

type Config struct {
	// Broker to connect to.
	Broker struct {
		Host string `json:"host" env:"HOST"`
		// Default 1883, or 80 for Websocket.
		Port uint16 `json:"port" env:"PORT"`
		// If empty, a random "gomq-" prefixed id is generated.
		ClientID string `json:"client_id" env:"CLIENT_ID"`
		// "tcp" (default) or "ws".
		Transport string `json:"transport" env:"TRANSPORT"`
		// Request path for Websocket. Default "/mqtt".
		WSPath string `json:"ws_path" env:"WS_PATH"`
	} `json:"broker" envPrefix:"BROKER_"`

	// Auth is sent in CONNECT when Username is set.
	Auth struct {
		Username string `json:"username" env:"USERNAME"`
		Password string `json:"password" env:"PASSWORD"`
	} `json:"auth" envPrefix:"AUTH_"`

	// Will is registered with the broker when Topic is set.
	Will struct {
		Topic   string `json:"topic" env:"TOPIC"`
		Payload string `json:"payload" env:"PAYLOAD"`
		QoS     uint8  `json:"qos" env:"QOS"`
		Retain  bool   `json:"retain" env:"RETAIN"`
	} `json:"will" envPrefix:"WILL_"`

	// Subscriptions are made once the broker accepts the connection.
	Subscriptions []Subscription `json:"subscriptions" envPrefix:"SUBSCRIPTIONS_"`

	// Fixed buffer sizes. Zero means default.
	Limits Limits `json:"limits" envPrefix:"LIMITS_"`

	// Log configures optional log output file as well as the log level setting.
	Log struct {
		File  string `json:"file" env:"FILE"`
		Level string `json:"level" env:"LEVEL"`
	} `json:"log" envPrefix:"LOG_"`

	// Keep alive in seconds. Default 60.
	KeepAlive uint16 `json:"keep_alive" env:"KEEP_ALIVE"`

	// Tick interval in ms. Default 100.
	TickMS int `json:"tick_ms" env:"TICK_MS"`

	// Directory to persist credentials and will across restarts. Empty disables persistence.
	StoreDir string `json:"store_dir" env:"STORE_DIR"`

	// Address to serve prometheus metrics on, e.g. ":9100". Empty disables.
	MetricsAddress string `json:"metrics_address" env:"METRICS_ADDRESS"`

	generatedID bool
}

// ClientIDGenerated reports whether Broker.ClientID was generated because none was configured.
func (c *Config) ClientIDGenerated() bool {
	return c.generatedID
}

type Subscription struct {
	Topic string `json:"topic" env:"TOPIC"`
	QoS   uint8  `json:"qos" env:"QOS"`
}

type Limits struct {
	TxBuffer      int `json:"tx_buffer" env:"TX_BUFFER"`
	RxBuffer      int `json:"rx_buffer" env:"RX_BUFFER"`
	TopicBuffer   int `json:"topic_buffer" env:"TOPIC_BUFFER"`
	PayloadBuffer int `json:"payload_buffer" env:"PAYLOAD_BUFFER"`
	ClientID      int `json:"client_id" env:"CLIENT_ID"`
	Username      int `json:"username" env:"USERNAME"`
	Password      int `json:"password" env:"PASSWORD"`
}

func (c *Config) LoadFromFile(fPath string) error {
	f, err := os.Open(fPath)
	if err != nil {
		return errors.New("error opening config file: " + err.Error())
	}

	defer f.Close()

	if err = json.NewDecoder(f).Decode(&c); err != nil {
		return errors.New("error reading config file: " + err.Error())
	}

	return c.LoadFromEnv()
}

// LoadFromEnv applies GOMQ_ prefixed environment variables over the current values.
func (c *Config) LoadFromEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("error reading environment: " + err.Error())
	}

	return c.validate()
}

func (c *Config) validate() error {
	b := &c.Broker
	if b.Host == "" {
		return errors.New("broker host not specified")
	}

	switch strings.ToLower(b.Transport) {
	case "", "tcp":
		b.Transport = "tcp"
		if b.Port == 0 {
			b.Port = 1883
		}
	case "ws":
		b.Transport = "ws"
		if b.Port == 0 {
			b.Port = 80
		}
		if b.WSPath == "" {
			b.WSPath = "/mqtt"
		}
	default:
		return errors.New("invalid broker transport '" + b.Transport + "' (must be tcp or ws)")
	}

	if b.ClientID == "" {
		c.generatedID = true
		b.ClientID = "gomq-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:18] // [MQTT-3.1.3-5]
	}

	if c.Will.QoS > 2 {
		return errors.New("invalid will QoS")
	}
	for _, s := range c.Subscriptions {
		if s.Topic == "" {
			return errors.New("empty subscription topic")
		}
		if s.QoS > 2 {
			return errors.New("invalid QoS for subscription '" + s.Topic + "'")
		}
	}

	l := &c.Limits
	if l.TxBuffer < 0 || l.RxBuffer < 0 || l.TopicBuffer < 0 || l.PayloadBuffer < 0 ||
		l.ClientID < 0 || l.Username < 0 || l.Password < 0 {
		return errors.New("buffer limits must not be negative")
	}
	if l.TxBuffer != 0 && l.TxBuffer < 32 {
		return errors.New("tx_buffer too small to hold CONNECT")
	}
	if l.RxBuffer != 0 && l.RxBuffer < 4 {
		return errors.New("rx_buffer too small to hold CONNACK")
	}

	if c.KeepAlive == 0 {
		c.KeepAlive = 60
	}
	if c.TickMS <= 0 {
		c.TickMS = 100
	}

	return nil
}
