package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists the shared rate limit state.
type Store interface {
	// Load returns the stored state, or nil when nothing is stored yet.
	Load(ctx context.Context) (*RateLimitState, error)
	Save(ctx context.Context, state *RateLimitState) error
}

// RedisStore shares state between processes through Redis.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (*RateLimitState, error) {
	values, err := s.redis.MGet(ctx, RedisKeyLimit, RedisKeyRemaining, RedisKeyResetTimestamp, RedisKeyLastUpdate).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}
	for _, v := range values {
		if v == nil {
			return nil, nil
		}
	}

	var ints [4]int64
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("rate limit key %d: unexpected type %T", i, v)
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse rate limit key %d: %w", i, err)
		}
		ints[i] = n
	}

	state := &RateLimitState{
		Limit:      int(ints[0]),
		Remaining:  int(ints[1]),
		ResetAt:    time.Unix(ints[2], 0),
		LastUpdate: time.UnixMilli(ints[3]),
	}
	state.UpdateHealth()
	return state, nil
}

// Save implements Store. Keys expire shortly after the window resets.
func (s *RedisStore) Save(ctx context.Context, state *RateLimitState) error {
	if state == nil {
		return errors.New("rate limit state cannot be nil")
	}
	ttl := state.TimeUntilReset() + time.Minute

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyLimit, state.Limit, ttl)
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, ttl)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), ttl)
	pipe.Set(ctx, RedisKeyLastUpdate, state.LastUpdate.UnixMilli(), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

// MemoryStore keeps state in process.
type MemoryStore struct {
	mu    sync.Mutex
	state *RateLimitState
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (s *MemoryStore) Load(context.Context) (*RateLimitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	cp := *s.state
	return &cp, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, state *RateLimitState) error {
	if state == nil {
		return errors.New("rate limit state cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.state = &cp
	return nil
}
