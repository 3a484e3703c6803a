package transport

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/relaypipe/flow"
)

// RedisSource subscribes to channel on rdb and forwards every decoded
// message into sender until ctx is done. It runs its receive loop on the
// calling goroutine — call it with go.
func RedisSource[T any](ctx context.Context, rdb *redis.Client, channelName string, sender flow.Sender[T], onDecodeError func(error)) error {
	sub := rdb.Subscribe(ctx, channelName)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope[T]
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				if onDecodeError != nil {
					onDecodeError(err)
				}
				continue
			}
			sender.Send(env.Payload)
		}
	}
}

// RedisSink drains r, publishing each value to channelName on rdb wrapped
// in an Envelope.
func RedisSink[T any](ctx context.Context, r flow.Receiver[T], rdb *redis.Client, channelName, source string, onPublishError func(error)) flow.Receiver[flow.Unit] {
	return flow.Sink(r, func(v T) {
		env := NewEnvelope(source, "", v)
		b, err := json.Marshal(env)
		if err != nil {
			if onPublishError != nil {
				onPublishError(err)
			}
			return
		}
		if err := rdb.Publish(ctx, channelName, b).Err(); err != nil && onPublishError != nil {
			onPublishError(err)
		}
	})
}
