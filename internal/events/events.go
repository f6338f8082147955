// Package events publishes change notifications for items and lists.
//
// Events go to subject "todo.<collection>.<type>", for example
// "todo.items.created". Publishing is best effort: failures are logged and
// never reach the caller.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPrefix is the root of every event subject.
const SubjectPrefix = "todo"

// Collection names the resource an event is about.
type Collection string

const (
	CollectionItems Collection = "items"
	CollectionLists Collection = "lists"
)

// Type names what happened.
type Type string

const (
	TypeCreated Type = "created"
	TypeUpdated Type = "updated"
	TypeDeleted Type = "deleted"
)

// Event describes one change.
type Event struct {
	Collection Collection `json:"collection"`
	Type       Type       `json:"type"`
	ID         string     `json:"id"`
	ListID     string     `json:"listId,omitempty"`
	At         time.Time  `json:"at"`
}

// Subject returns the NATS subject for the event.
func (e Event) Subject() string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, e.Collection, e.Type)
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
	Close() error
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) {}

// Close implements Publisher.
func (Nop) Close() error { return nil }

// NATSPublisher publishes events as JSON messages.
type NATSPublisher struct {
	conn   *nats.Conn
	owned  bool
	logger *zap.Logger
}

// NewNATSPublisher wraps an existing connection. The caller keeps
// ownership of conn.
func NewNATSPublisher(conn *nats.Conn, logger *zap.Logger) (*NATSPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{conn: conn, logger: logger.Named("events")}, nil
}

// Connect dials url and returns a publisher that closes the connection on
// Close. opts are applied after the defaults.
func Connect(url string, logger *zap.Logger, opts ...nats.Option) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, append([]nats.Option{
		nats.Name("todod"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	p, err := NewNATSPublisher(conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.Error(err))
		return
	}
	if err := p.conn.Publish(e.Subject(), data); err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("subject", e.Subject()),
			zap.String("id", e.ID),
			zap.Error(err))
		return
	}
	p.logger.Debug("published event", zap.String("subject", e.Subject()), zap.String("id", e.ID))
}

// Close flushes pending messages and closes an owned connection.
func (p *NATSPublisher) Close() error {
	if !p.owned {
		return nil
	}
	err := p.conn.Flush()
	p.conn.Close()
	return err
}
