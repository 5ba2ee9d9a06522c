package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/wondercloudgenai/talentflow/internal/config"
)

// ErrEmpty reports that a blocking pop timed out with no task. The
// consumer treats it as a normal idle tick.
var ErrEmpty = errors.New("queue: no task")

// popBlockSeconds bounds one BLPOP so the consumer can notice context
// cancellation between pops.
const popBlockSeconds = 5

// RedisSource pops tasks from a Redis list.
type RedisSource struct {
	client rueidis.Client
	key    string
}

// NewRedisSource connects to Redis and binds to the configured task list.
func NewRedisSource(cfg config.QueueConfig) (*RedisSource, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &RedisSource{client: client, key: cfg.Name}, nil
}

// Pop blocks for up to popBlockSeconds and returns the next task.
func (s *RedisSource) Pop(ctx context.Context) (Task, error) {
	cmd := s.client.B().Blpop().Key(s.key).Timeout(popBlockSeconds).Build()

	values, err := s.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return Task{}, ErrEmpty
		}
		return Task{}, fmt.Errorf("blpop %s: %w", s.key, err)
	}
	if len(values) != 2 {
		return Task{}, fmt.Errorf("blpop %s: unexpected reply of %d values", s.key, len(values))
	}

	var task Task
	if err := json.Unmarshal([]byte(values[1]), &task); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	return task, nil
}

// Ping checks connectivity.
func (s *RedisSource) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the broker responds or timeout expires.
func (s *RedisSource) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for broker: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close shuts down the client.
func (s *RedisSource) Close() {
	s.client.Close()
}
