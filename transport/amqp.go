package transport

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/relaypipe/flow"
)

// AMQPSource consumes deliveries from queue on ch and forwards each decoded
// payload into sender, acking every delivery it manages to decode and
// nacking (without requeue) the ones it can't.
func AMQPSource[T any](ch *amqp.Channel, queue string, sender flow.Sender[T], onDecodeError func(error)) error {
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	go func() {
		for d := range deliveries {
			var env Envelope[T]
			if err := json.Unmarshal(d.Body, &env); err != nil {
				if onDecodeError != nil {
					onDecodeError(err)
				}
				_ = d.Nack(false, false)
				continue
			}
			sender.Send(env.Payload)
			_ = d.Ack(false)
		}
	}()
	return nil
}

// AMQPSink drains r, publishing each value to exchange/routingKey on ch
// wrapped in an Envelope.
func AMQPSink[T any](ctx context.Context, r flow.Receiver[T], ch *amqp.Channel, exchange, routingKey, source string, onPublishError func(error)) flow.Receiver[flow.Unit] {
	return flow.Sink(r, func(v T) {
		env := NewEnvelope(source, "", v)
		b, err := json.Marshal(env)
		if err != nil {
			if onPublishError != nil {
				onPublishError(err)
			}
			return
		}
		err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
			ContentType: "application/json",
			MessageId:   env.ID,
			Body:        b,
		})
		if err != nil && onPublishError != nil {
			onPublishError(err)
		}
	})
}
