// Package queue consumes pipeline tasks from a Redis list and fans them
// out to registered handlers, one goroutine per task up to a
// concurrency cap. Delivery is at-least-once; handlers are responsible
// for their own idempotency.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/logger"
	"github.com/wondercloudgenai/talentflow/internal/metrics"
)

// Handler processes one task payload.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Source yields tasks. Pop blocks until a task arrives, ErrEmpty on an
// idle timeout, or the context ends.
type Source interface {
	Pop(ctx context.Context) (Task, error)
}

// errBackoff is the pause after a source error, to avoid a hot loop
// while the broker is down.
var errBackoff = time.Second

// Consumer dispatches queued tasks to handlers.
type Consumer struct {
	source      Source
	handlers    map[string]Handler
	concurrency int
	logger      *zap.Logger
}

// NewConsumer creates a task consumer. A non-positive concurrency means
// one task at a time.
func NewConsumer(source Source, concurrency int, log *zap.Logger) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		source:      source,
		handlers:    make(map[string]Handler),
		concurrency: concurrency,
		logger:      log,
	}
}

// Handle registers a handler for a task name. Must be called before Run.
func (c *Consumer) Handle(name string, h Handler) {
	c.handlers[name] = h
}

// Run pops and dispatches tasks until the context ends. In-flight
// handlers are waited for before returning.
func (c *Consumer) Run(ctx context.Context) error {
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	c.logger.Info("consumer started",
		zap.Int("concurrency", c.concurrency),
		zap.Int("handlers", len(c.handlers)))

	for {
		task, err := c.source.Pop(ctx)
		if err != nil {
			if errors.Is(err, ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("pop task", zap.Error(err))
			sleepCtx(ctx, errBackoff)
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			c.dispatch(ctx, task)
		}()
	}
}

// dispatch runs one task through its handler with timing and outcome
// metrics.
func (c *Consumer) dispatch(ctx context.Context, task Task) {
	log := c.logger.With(
		zap.String("task", task.Name),
		zap.String("task_id", task.ID))

	handler, ok := c.handlers[task.Name]
	if !ok {
		metrics.TasksTotal.WithLabelValues(task.Name, "unknown").Inc()
		log.Warn("no handler for task")
		return
	}

	log.Info("task started")
	start := time.Now()

	err := handler(logger.ContextWith(ctx, log), task.Payload)
	duration := time.Since(start)

	metrics.TaskDuration.WithLabelValues(task.Name).Observe(duration.Seconds())
	if err != nil {
		metrics.TasksTotal.WithLabelValues(task.Name, "error").Inc()
		log.Error("task failed", zap.Duration("duration", duration), zap.Error(err))
		return
	}

	metrics.TasksTotal.WithLabelValues(task.Name, "success").Inc()
	log.Info("task done", zap.Duration("duration", duration))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
