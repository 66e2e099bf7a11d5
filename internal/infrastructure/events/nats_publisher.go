package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher emits intervention events on <prefix>.<event type>.
type NATSPublisher struct {
	conn   Conn
	prefix string
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func Connect(url string, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(strings.TrimSpace(url),
		nats.Name("maintrack"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	return NewNATSPublisher(conn, prefix), nil
}

func NewNATSPublisher(conn Conn, prefix string) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "maintrack.interventions"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, event ports.InterventionEvent) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if strings.TrimSpace(event.Type) == "" {
		return errors.New("event type is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "encode intervention event")
	}
	if err := p.conn.Publish(p.Subject(event.Type), payload); err != nil {
		return errs.Wrapf(err, "publish %s", p.Subject(event.Type))
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Noop drops every event. It is used when no NATS url is configured.
type Noop struct{}

var _ ports.EventPublisher = Noop{}

func (Noop) Publish(context.Context, ports.InterventionEvent) error { return nil }
