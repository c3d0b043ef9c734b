package repositories

import (
	"context"

	"sitedocs/models"

	"github.com/redis/go-redis/v9"
)

// RedisTreeEventsRepository carries tree-change invalidations over redis
// pub/sub so every connected instance sees remote mutations.
type RedisTreeEventsRepository struct {
	redis *redis.Client
}

func NewRedisTreeEventsRepository(redisClient *redis.Client) *RedisTreeEventsRepository {
	return &RedisTreeEventsRepository{redis: redisClient}
}

func treeChannel(entity models.EntityRef) string {
	return "tree:changed:" + entity.String()
}

func (r *RedisTreeEventsRepository) PublishChanged(ctx context.Context, entity models.EntityRef) error {
	return r.redis.Publish(ctx, treeChannel(entity), "1").Err()
}

func (r *RedisTreeEventsRepository) SubscribeChanged(ctx context.Context, entity models.EntityRef) (<-chan struct{}, func(), error) {
	pubsub := r.redis.Subscribe(ctx, treeChannel(entity))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	events := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(events)
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				// Coalesce: one pending invalidation is enough.
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	var stopped bool
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
		_ = pubsub.Close()
	}
	return events, stop, nil
}
