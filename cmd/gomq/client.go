package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RoanBrand/gomq"
	"github.com/RoanBrand/gomq/internal/config"
	"github.com/RoanBrand/gomq/internal/metrics"
	"github.com/RoanBrand/gomq/internal/store"
	"github.com/RoanBrand/gomq/internal/tcp"
	"github.com/RoanBrand/gomq/internal/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var errSessionEnded = errors.New("session ended")

const dialTimeout = 10 * time.Second

func run(ctx context.Context, c *config.Config) error {
	var loop *gomq.Loop
	post := func(ev gomq.Event) { loop.Post(ev) }

	var d gomq.Dialer
	switch c.Broker.Transport {
	case "ws":
		d = websocket.NewDialer(post, c.Broker.WSPath, dialTimeout)
	default:
		d = tcp.NewDialer(post, dialTimeout)
	}

	opts := gomq.Options{
		Limits:    gomq.Limits(c.Limits),
		KeepAlive: time.Duration(c.KeepAlive) * time.Second,
	}
	var m *metrics.Metrics
	if c.MetricsAddress != "" {
		m = metrics.New("gomq")
		opts.Observer = m
	}

	e := gomq.New(d, &tcp.Resolver{Post: post, Timeout: dialTimeout}, opts)
	loop = gomq.NewLoop(e)

	clientID, st, err := prepareSettings(c)
	if err != nil {
		return err
	}
	if err := e.ApplySettings(st); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"client":    clientID,
		"broker":    c.Broker.Host,
		"port":      c.Broker.Port,
		"transport": c.Broker.Transport,
	}).Info("Starting MQTT client")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(ctx, time.Duration(c.TickMS)*time.Millisecond)
	})
	g.Go(func() error {
		return supervise(ctx, loop, c, clientID)
	})
	if m != nil {
		g.Go(func() error {
			return serveMetrics(ctx, c.MetricsAddress, m.Handler())
		})
	}
	return g.Wait()
}

func settingsFromConfig(c *config.Config) gomq.Settings {
	var st gomq.Settings
	if c.Auth.Username != "" {
		st.Username, st.Password = []byte(c.Auth.Username), []byte(c.Auth.Password)
	}
	if c.Will.Topic != "" {
		st.WillTopic, st.WillPayload = []byte(c.Will.Topic), []byte(c.Will.Payload)
		st.WillQoS, st.WillRetain = c.Will.QoS, c.Will.Retain
	}
	return st
}

// prepareSettings picks the client id and the credentials and will to use.
// With a store, a generated client id is kept across restarts, and settings
// from config are saved. Without any in config, the saved ones are used.
func prepareSettings(c *config.Config) (string, gomq.Settings, error) {
	clientID, st := c.Broker.ClientID, settingsFromConfig(c)
	if c.StoreDir == "" {
		return clientID, st, nil
	}

	s, err := store.NewDiskStore(c.StoreDir)
	if err != nil {
		return "", st, err
	}
	defer s.Close()

	if c.ClientIDGenerated() {
		id, err := s.ClientID()
		if err != nil {
			return "", st, err
		}
		if id != "" {
			clientID = id
		} else if err := s.SaveClientID(clientID); err != nil {
			return "", st, err
		}
	}

	if len(st.Username) == 0 && len(st.WillTopic) == 0 {
		saved, ok, err := s.LoadSettings(clientID)
		if err != nil {
			return "", st, err
		}
		if ok {
			log.WithFields(log.Fields{
				"client": clientID,
			}).Info("Using persisted credentials and will")
			return clientID, saved, nil
		}
		return clientID, st, nil
	}

	return clientID, st, s.SaveSettings(clientID, st)
}

// supervise connects once, subscribes after CONNACK and logs received messages.
// It returns when the session ends. Reconnecting is left to the service manager.
func supervise(ctx context.Context, loop *gomq.Loop, c *config.Config, clientID string) error {
	var connErr error
	if err := loop.Do(ctx, func(e *gomq.Engine) {
		connErr = e.Connect(c.Broker.Host, c.Broker.Port, clientID)
	}); err != nil {
		return err
	}
	if connErr != nil {
		return connErr
	}

	lim := gomq.DefaultLimits
	if c.Limits.TopicBuffer > 0 {
		lim.TopicBuffer = c.Limits.TopicBuffer
	}
	if c.Limits.PayloadBuffer > 0 {
		lim.PayloadBuffer = c.Limits.PayloadBuffer
	}
	topic, payload := make([]byte, lim.TopicBuffer), make([]byte, lim.PayloadBuffer)

	t := time.NewTicker(time.Duration(c.TickMS) * time.Millisecond)
	defer t.Stop()

	subscribed := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}

		var ended error
		err := loop.Do(ctx, func(e *gomq.Engine) {
			switch e.State() {
			case gomq.Connected:
				if !subscribed {
					subscribed = true
					for _, s := range c.Subscriptions {
						if err := e.Subscribe([]byte(s.Topic), s.QoS); err != nil {
							log.WithFields(log.Fields{
								"topic": s.Topic,
								"err":   err,
							}).Error("Subscribe failed")
						}
					}
				}

				if _, _, ok := e.Message(); ok {
					tl := e.GetTopic(topic)
					pl := e.ReadMessage(payload)
					log.WithFields(log.Fields{
						"topic":   string(topic[:tl]),
						"payload": string(payload[:pl]),
					}).Info("Message received")
				}
			case gomq.Idle:
				if ended = e.Err(); ended == nil {
					ended = errSessionEnded
				}
			}
		})
		if err != nil {
			return err
		}
		if ended != nil {
			return ended
		}
	}
}

func serveMetrics(ctx context.Context, addr string, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()

	log.WithFields(log.Fields{
		"address": addr,
	}).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
