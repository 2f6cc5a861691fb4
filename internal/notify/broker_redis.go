package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"feedernet/internal/logging"
)

const publishTimeout = 2 * time.Second

// RedisBroker implements EventBroker over Redis Pub/Sub so other processes
// can follow plan runs.
type RedisBroker struct {
	rdb    *redis.Client
	logger *slog.Logger

	mu   sync.Mutex
	subs map[chan Event]*redis.PubSub
}

func NewRedisBroker(url string, logger *slog.Logger) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroker{rdb: redis.NewClient(opt), logger: logger, subs: map[chan Event]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, channelName(topic))
	// wait for the subscription to be confirmed
	if _, err := ps.Receive(ctx); err != nil {
		logging.LogError(b.logger, "redis subscribe failed", err, slog.String("topic", topic))
	}
	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			evt, err := decodeEvent(msg.Payload)
			if err != nil {
				b.logger.Warn("dropping malformed event", slog.String("topic", topic), slog.String("error", err.Error()))
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the Redis subscription behind ch; ch is closed once the
// reader drains.
func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	ps, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		logging.SafeCloseWithLogging(ps, b.logger, "redis unsubscribe")
	}
}

func (b *RedisBroker) Publish(topic string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		logging.LogError(b.logger, "encode event", err, slog.String("topic", topic))
		return
	}
	if err := b.rdb.Publish(ctx, channelName(topic), data).Err(); err != nil {
		logging.LogError(b.logger, "redis publish failed", err, slog.String("topic", topic))
	}
}

func (b *RedisBroker) Close() error { return b.rdb.Close() }

func channelName(topic string) string { return "feedernet:" + topic }

func decodeEvent(payload string) (Event, error) {
	var evt Event
	err := json.Unmarshal([]byte(payload), &evt)
	return evt, err
}
