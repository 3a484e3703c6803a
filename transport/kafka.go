package transport

import (
	"context"
	"encoding/json"

	"github.com/relaypipe/flow"
	kafka "github.com/segmentio/kafka-go"
)

// KafkaSource reads from r until ctx is done or the reader errors, decoding
// each message and forwarding its payload into sender. It runs its receive
// loop on the calling goroutine — call it with go.
func KafkaSource[T any](ctx context.Context, r *kafka.Reader, sender flow.Sender[T], onDecodeError func(error)) error {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			return err
		}
		var env Envelope[T]
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			if onDecodeError != nil {
				onDecodeError(err)
			}
			continue
		}
		sender.Send(env.Payload)
	}
}

// KafkaSink drains recv, writing each value to w wrapped in an Envelope.
func KafkaSink[T any](ctx context.Context, recv flow.Receiver[T], w *kafka.Writer, source string, onWriteError func(error)) flow.Receiver[flow.Unit] {
	return flow.Sink(recv, func(v T) {
		env := NewEnvelope(source, "", v)
		b, err := json.Marshal(env)
		if err != nil {
			if onWriteError != nil {
				onWriteError(err)
			}
			return
		}
		if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(env.ID), Value: b}); err != nil && onWriteError != nil {
			onWriteError(err)
		}
	})
}
