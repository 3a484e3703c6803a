package transport

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/relaypipe/flow"
)

// NATSSource subscribes to subject on nc and forwards every decoded message
// into sender. Decode errors are passed to onDecodeError (if non-nil) rather
// than sent downstream. The returned subscription should be drained or
// unsubscribed, and sender closed, when the source is torn down.
func NATSSource[T any](nc *nats.Conn, subject string, sender flow.Sender[T], onDecodeError func(error)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var env Envelope[T]
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			if onDecodeError != nil {
				onDecodeError(err)
			}
			return
		}
		sender.Send(env.Payload)
	})
}

// NATSSink drains r, publishing each value to subject on nc wrapped in an
// Envelope. source is recorded on the envelope for downstream correlation.
func NATSSink[T any](r flow.Receiver[T], nc *nats.Conn, subject, source string, onPublishError func(error)) flow.Receiver[flow.Unit] {
	return flow.Sink(r, func(v T) {
		env := NewEnvelope(source, "", v)
		b, err := json.Marshal(env)
		if err != nil {
			if onPublishError != nil {
				onPublishError(err)
			}
			return
		}
		if err := nc.Publish(subject, b); err != nil && onPublishError != nil {
			onPublishError(err)
		}
	})
}
