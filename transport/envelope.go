// Package transport bridges flow.Sender/flow.Receiver handles to external
// messaging systems: NATS, Redis, Kafka and RabbitMQ as sources and sinks,
// plus a CloudEvents envelope codec and a zap-backed flow.Logger. None of
// these are stateful processes in their own right — each one is a thin
// adapter driving a Sender (for sources) or draining a Receiver via
// flow.Sink (for sinks); the node engine in the parent package stays
// entirely unaware of the transport underneath.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// Envelope wraps a payload with the identity and correlation metadata every
// transport adapter in this package attaches on the way out and reads back
// on the way in.
type Envelope[T any] struct {
	ID            string
	CorrelationID string
	Source        string
	Timestamp     time.Time
	Payload       T
}

// NewEnvelope builds an Envelope with a fresh ID and the given correlation
// ID (pass "" to start a new correlation chain, in which case the envelope's
// own ID doubles as the correlation ID for anything derived from it).
func NewEnvelope[T any](source, correlationID string, payload T) Envelope[T] {
	id := uuid.NewString()
	if correlationID == "" {
		correlationID = id
	}
	return Envelope[T]{
		ID:            id,
		CorrelationID: correlationID,
		Source:        source,
		Timestamp:     time.Now(),
		Payload:       payload,
	}
}

// Derive builds a new Envelope carrying forward e's correlation ID, for a
// value produced downstream of e (e.g. the result of a Pipe stage that
// consumed e.Payload).
func (e Envelope[T]) Derive(source string, payload T) Envelope[T] {
	return Envelope[T]{
		ID:            uuid.NewString(),
		CorrelationID: e.CorrelationID,
		Source:        source,
		Timestamp:     time.Now(),
		Payload:       payload,
	}
}
