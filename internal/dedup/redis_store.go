package dedup

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "loyara:dedup:"

// redisStore shares the dedup window across processes via SET NX EX. Used
// when more than one replica receives webhook traffic.
type redisStore struct {
	client *redis.Client
	window time.Duration
}

func NewRedisStore(client *redis.Client, window time.Duration) (*redisStore, error) {
	if client == nil {
		return nil, errors.New("dedup redis client not configured")
	}
	return &redisStore{client: client, window: window}, nil
}

func (s *redisStore) ShouldProcess(ctx context.Context, event Event) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+event.Key(), "1", s.window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
