// Package notify publishes visitor lifecycle events so hosts can be told
// when their guests arrive or leave.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// EventType names a lifecycle transition.
type EventType string

const (
	SignedIn  EventType = "visitor.signed_in"
	Arrived   EventType = "visitor.arrived"
	SignedOut EventType = "visitor.signed_out"
	Swept     EventType = "visitor.swept"
)

// Event is the payload sent to every backend.
type Event struct {
	Type       EventType `json:"type"`
	VisitorID  int64     `json:"visitorId"`
	Name       string    `json:"name"`
	Company    string    `json:"company,omitempty"`
	Host       string    `json:"host"`
	Time       string    `json:"time"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events. Delivery is best effort; callers log failures
// and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string // log, mqtt, redis, email, none

	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string

	SMTP SMTPConfig
}

// New builds the publisher named by cfg.Backend.
func New(cfg Config) (Publisher, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "log":
		return NewLogPublisher(slog.Default()), nil
	case "none":
		return Nop{}, nil
	case "mqtt":
		return DialMQTT(cfg)
	case "redis":
		return NewRedisPublisher(cfg)
	case "email":
		return NewEmailPublisher(cfg.SMTP)
	}
	return nil, fmt.Errorf("unknown notify backend %q (use log, mqtt, redis, email or none)", cfg.Backend)
}

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that logs each event at info level.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "visitor event",
		"type", string(e.Type),
		"visitor_id", e.VisitorID,
		"name", e.Name,
		"host", e.Host,
		"time", e.Time,
	)
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }

// Nop drops every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }
