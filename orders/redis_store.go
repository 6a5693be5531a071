package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/redis/go-redis/v9"
)

// Compile-time check to ensure RedisStore implements OrderStore
var _ interfaces.OrderStore = (*RedisStore)(nil)

const redisKeyPrefix = "smartpharmacy:order:"

// RedisClient is the subset of *redis.Client used by RedisStore
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStore keeps orders as JSON values keyed by order code.
// A zero TTL keeps orders forever.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisClient connects to Redis with the given settings
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisStore creates a store over client
func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(code string) string {
	return redisKeyPrefix + code
}

// Put implements interfaces.OrderStore. SETNX makes the write fail on a taken code.
func (s *RedisStore) Put(ctx context.Context, order *entities.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order %s: %w", order.OrderCode, err)
	}

	ok, err := s.client.SetNX(ctx, redisKey(order.OrderCode), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store order %s: %w", order.OrderCode, err)
	}
	if !ok {
		return ErrDuplicateCode
	}
	return nil
}

// Get implements interfaces.OrderStore
func (s *RedisStore) Get(ctx context.Context, code string) (*entities.Order, error) {
	raw, err := s.client.Get(ctx, redisKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", code, err)
	}

	var order entities.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", code, err)
	}
	return &order, nil
}

// Ping implements interfaces.OrderStore
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
