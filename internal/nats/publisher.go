// Package nats forwards the engine's event bus onto NATS subjects so
// external tooling can watch channels without linking the process.
package nats

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/castkit/playoutd/internal/events"
)

// Publisher subscribes to the event bus and publishes channel telemetry to
// NATS.
type Publisher struct {
	url      string
	eventBus *events.Bus
	conn     *nats.Conn
	unsubs   []func()
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewPublisher creates an EventBus-to-NATS publisher.
func NewPublisher(url string, eventBus *events.Bus, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		url:      url,
		eventBus: eventBus,
		logger:   logger.With("component", "nats-publisher"),
	}
}

// Start connects to NATS and begins forwarding events.
func (p *Publisher) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := nats.Connect(p.url,
		nats.Name("playoutd"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				p.logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			p.logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return err
	}

	p.conn = conn
	p.logger.Info("NATS connected", "url", p.url)

	p.unsubs = append(p.unsubs,
		p.eventBus.Subscribe(func(e events.ChannelTickEvent) {
			msg := StateMessage{
				Channel:     e.Channel,
				Timecode:    e.Timecode,
				ProduceTime: e.ProduceTime,
				MixTime:     e.MixTime,
				ConsumeTime: e.ConsumeTime,
			}
			p.publish(SubjectChannelState(e.Channel), msg)
		}),
		p.eventBus.Subscribe(func(e events.ChannelErrorEvent) {
			p.publish(SubjectChannelErrors(e.Channel), ErrorMessage{Channel: e.Channel, Error: e.Error})
		}),
		p.eventBus.Subscribe(func(e events.FormatChangedEvent) {
			p.publish(SubjectChannelFormat(e.Channel), FormatMessage{Channel: e.Channel, Format: e.Format})
		}),
	)

	return nil
}

type marshaler interface {
	Marshal() ([]byte, error)
}

func (p *Publisher) publish(subject string, msg marshaler) {
	data, err := msg.Marshal()
	if err != nil {
		p.logger.Warn("Failed to marshal message", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish", "subject", subject, "error", err)
	}
}

// Stop unsubscribes from the bus and drains the connection.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil

	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.logger.Warn("NATS drain failed", "error", err)
		}
		p.conn = nil
	}
}
