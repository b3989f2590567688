// Package events forwards farm events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/signalsfoundry/wake-simulator/core"
	"github.com/signalsfoundry/wake-simulator/internal/logging"
)

// DefaultSubjectPrefix roots every farm subject.
const DefaultSubjectPrefix = "wakesim.farms"

// Message is the JSON payload published for a farm event.
type Message struct {
	Event     string    `json:"event"`
	FarmID    string    `json:"farm_id"`
	Timestamp time.Time `json:"timestamp"`

	WakeModel       string `json:"wake_model"`
	VelocityModel   string `json:"velocity_model"`
	DeflectionModel string `json:"deflection_model"`
	Resolution      [3]int `json:"resolution"`

	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	WindShear     float64 `json:"wind_shear"`

	YawAngles []float64 `json:"yaw_angles,omitempty"`
}

// Subject returns the subject a farm event is published on:
// <prefix>.<farm id>.<event>.
func Subject(prefix, farmID string, t core.EventType) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return fmt.Sprintf("%s.%s.%s", prefix, farmID, t)
}

// NewMessage converts a farm event into its wire payload.
func NewMessage(ev core.Event, now time.Time) Message {
	return Message{
		Event:           ev.Type.String(),
		FarmID:          ev.FarmID,
		Timestamp:       now.UTC(),
		WakeModel:       ev.Wake.Model.String(),
		VelocityModel:   string(ev.Wake.Velocity),
		DeflectionModel: string(ev.Wake.Deflection),
		Resolution:      [3]int{ev.Wake.Resolution.X, ev.Wake.Resolution.Y, ev.Wake.Resolution.Z},
		WindSpeed:       ev.Ambient.WindSpeed,
		WindDirection:   ev.Ambient.WindDirection,
		WindShear:       ev.Ambient.WindShear,
		YawAngles:       ev.YawAngles,
	}
}

// Publisher publishes farm events as JSON.
type Publisher struct {
	nc       *nats.Conn
	prefix   string
	log      logging.Logger
	ownsConn bool
	now      func() time.Time
}

// Option customises a Publisher.
type Option func(*Publisher)

// WithSubjectPrefix overrides DefaultSubjectPrefix.
func WithSubjectPrefix(prefix string) Option {
	return func(p *Publisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// NewPublisher publishes on an existing connection. Close does not close nc.
func NewPublisher(nc *nats.Conn, log logging.Logger, opts ...Option) *Publisher {
	if log == nil {
		log = logging.Noop()
	}
	p := &Publisher{
		nc:     nc,
		prefix: DefaultSubjectPrefix,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials url and returns a Publisher that owns the connection.
func Connect(url string, log logging.Logger, opts ...Option) (*Publisher, error) {
	if log == nil {
		log = logging.Noop()
	}
	nc, err := nats.Connect(url,
		nats.Name("wake-simulator"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Warn(context.Background(), "nats error", logging.Err(err))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn(context.Background(), "nats disconnected", logging.Err(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info(context.Background(), "nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := NewPublisher(nc, log, opts...)
	p.ownsConn = true
	return p, nil
}

// Publish sends ev on its farm subject.
func (p *Publisher) Publish(ev core.Event) error {
	data, err := json.Marshal(NewMessage(ev, p.now()))
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	subject := Subject(p.prefix, ev.FarmID, ev.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Handle publishes ev and logs failures. It matches the callback signature of
// core.Farm.Subscribe.
func (p *Publisher) Handle(ev core.Event) {
	if err := p.Publish(ev); err != nil {
		p.log.Warn(context.Background(), "farm event not published",
			logging.String("farm_id", ev.FarmID),
			logging.String("event", ev.Type.String()),
			logging.Err(err),
		)
		return
	}
	p.log.Debug(context.Background(), "farm event published",
		logging.String("farm_id", ev.FarmID),
		logging.String("event", ev.Type.String()),
	)
}

// Close flushes pending messages and closes the connection when the
// Publisher dialled it.
func (p *Publisher) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	err := p.nc.FlushTimeout(5 * time.Second)
	if p.ownsConn {
		p.nc.Close()
	}
	return err
}
