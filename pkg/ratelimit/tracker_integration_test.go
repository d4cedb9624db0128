//go:build integration

package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestTracker_Integration_SharedState(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	// Two trackers sharing one Redis see each other's updates.
	first := NewTracker(NewRedisStore(redisClient), fastConfig(), logger)
	second := NewTracker(NewRedisStore(redisClient), fastConfig(), logger)

	reset := time.Now().Add(30 * time.Second)
	if err := first.UpdateFromHeaders(ctx, rateHeaders(300, 3, reset)); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err := second.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 3 || state.Limit != 300 {
		t.Errorf("state = %+v, want remaining=3 limit=300", state)
	}
	if state.ResetAt.Unix() != reset.Unix() {
		t.Errorf("ResetAt = %v, want %v", state.ResetAt, reset)
	}
	if !state.NeedsThrottling() {
		t.Error("shared state should throttle")
	}
}

func TestTracker_Integration_KeysExpire(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRedisStore(redisClient)

	if err := store.Save(ctx, &RateLimitState{
		Limit: 10, Remaining: 5, ResetAt: time.Now().Add(time.Second), LastUpdate: time.Now(),
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ttl, err := redisClient.TTL(ctx, RedisKeyRemaining).Result()
	if err != nil {
		t.Fatalf("TTL() error = %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Minute {
		t.Errorf("TTL = %v, want bounded expiry", ttl)
	}
}

func TestRedisStore_Integration_EmptyLoad(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	state, err := NewRedisStore(redisClient).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state != nil {
		t.Errorf("Load() on empty redis = %+v, want nil", state)
	}
}
