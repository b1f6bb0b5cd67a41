package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store remembers the response to a turn so a retried request gets the same answer
// instead of advancing the negotiation twice.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get loads a stored response into dest. It reports false on a miss.
func (s *Store) Get(ctx context.Context, scope, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, cacheKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "redis get failed")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrap(err, "unmarshal response failed")
	}
	return true, nil
}

// Put stores a response. The first writer wins.
func (s *Store) Put(ctx context.Context, scope, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal response failed")
	}
	if err := s.client.SetNX(ctx, cacheKey(scope, key), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set failed")
	}
	return nil
}

func cacheKey(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
