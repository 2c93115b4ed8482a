package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("messaging: publisher closed")

// ErrTopicRequired is returned when Publish gets an empty topic.
var ErrTopicRequired = errors.New("messaging: topic is required")

// Publisher sends messages to a topic (subject for NATS).
type Publisher interface {
	io.Closer
	Publish(ctx context.Context, topic string, msg Message) (Result, error)
}

// Message is a broker-agnostic outgoing message.
type Message struct {
	// Key partitions Kafka messages.
	Key []byte
	// Body is the payload.
	Body []byte
	// Headers become NATS/Kafka headers and Pub/Sub attributes. NSQ drops them.
	Headers map[string]string
}

// Result carries what the broker reported back, when it reports anything.
type Result struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}
