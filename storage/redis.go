package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannelPrefix namespaces the change-notification channels.
const DefaultRedisChannelPrefix = "golink:notify:"

const (
	payloadPresent byte = '1'
	payloadAbsent  byte = '0'
)

// RedisEngine is an Engine backed by Redis. Every write is paired with a
// PUBLISH of the new state inside the same MULTI block, so observers on any
// client connected to the same server see writes in commit order.
//
//	Performance: Get is 1 GET; Set is 1 MULTI/EXEC (SET|DEL + PUBLISH).
type RedisEngine struct {
	redis         redis.UniversalClient
	channelPrefix string
}

// NewRedisEngine creates a RedisEngine. An empty channelPrefix selects
// DefaultRedisChannelPrefix.
func NewRedisEngine(client redis.UniversalClient, channelPrefix string) *RedisEngine {
	if channelPrefix == "" {
		channelPrefix = DefaultRedisChannelPrefix
	}
	return &RedisEngine{
		redis:         client,
		channelPrefix: channelPrefix,
	}
}

func (e *RedisEngine) channel(key string) string {
	return e.channelPrefix + key
}

// Get implements Engine.
func (e *RedisEngine) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := e.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, true, nil
}

// Set implements Engine.
func (e *RedisEngine) Set(ctx context.Context, key string, value []byte, present bool) error {
	payload := encodePayload(value, present)

	_, err := e.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if present {
			pipe.Set(ctx, key, value, 0)
		} else {
			pipe.Del(ctx, key)
		}
		pipe.Publish(ctx, e.channel(key), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Observe implements Engine. The subscription is confirmed before the
// current value is read, so no write can fall between the two.
func (e *RedisEngine) Observe(ctx context.Context, key string) (<-chan Update, error) {
	pubsub := e.redis.Subscribe(ctx, e.channel(key))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: subscribe: %v", ErrUnavailable, err)
	}
	messages := pubsub.Channel()

	value, present, err := e.Get(ctx, key)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan Update, 1)
	out <- Update{Value: value, Present: present}

	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				u, valid := decodePayload(msg.Payload)
				if !valid {
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Ping returns a point-in-time Redis availability check.
func (e *RedisEngine) Ping(ctx context.Context) error {
	if err := e.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func encodePayload(value []byte, present bool) []byte {
	if !present {
		return []byte{payloadAbsent}
	}
	out := make([]byte, 0, len(value)+1)
	out = append(out, payloadPresent)
	return append(out, value...)
}

func decodePayload(payload string) (Update, bool) {
	if payload == "" {
		return Update{}, false
	}
	switch payload[0] {
	case payloadAbsent:
		return Update{}, true
	case payloadPresent:
		return Update{Value: []byte(payload[1:]), Present: true}, true
	default:
		return Update{}, false
	}
}
