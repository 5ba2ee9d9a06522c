package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wondercloudgenai/talentflow/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	errBackoff = time.Millisecond
	os.Exit(m.Run())
}

// fakeSource feeds a fixed set of tasks, then blocks until the context
// ends.
type fakeSource struct {
	mu    sync.Mutex
	tasks []Task
	errs  []error
}

func (f *fakeSource) Pop(ctx context.Context) (Task, error) {
	f.mu.Lock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		return Task{}, err
	}
	if len(f.tasks) > 0 {
		task := f.tasks[0]
		f.tasks = f.tasks[1:]
		f.mu.Unlock()
		return task, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return Task{}, ctx.Err()
}

func runUntilDrained(t *testing.T, c *Consumer, wait *sync.WaitGroup) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()

	waited := make(chan struct{})
	go func() {
		wait.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("handlers did not finish")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_DispatchesByName(t *testing.T) {
	source := &fakeSource{tasks: []Task{
		{Name: "cv_analyze", ID: "1", Payload: json.RawMessage(`{"jd_id":"j1"}`)},
		{Name: "jd_analyze", ID: "2", Payload: json.RawMessage(`{"jd_id":"j2"}`)},
	}}

	var mu sync.Mutex
	got := map[string]string{}

	var wait sync.WaitGroup
	wait.Add(2)

	c := NewConsumer(source, 2, zap.NewNop())
	c.Handle("cv_analyze", func(ctx context.Context, payload json.RawMessage) error {
		defer wait.Done()
		mu.Lock()
		got["cv_analyze"] = string(payload)
		mu.Unlock()
		return nil
	})
	c.Handle("jd_analyze", func(ctx context.Context, payload json.RawMessage) error {
		defer wait.Done()
		mu.Lock()
		got["jd_analyze"] = string(payload)
		mu.Unlock()
		return nil
	})

	runUntilDrained(t, c, &wait)

	if got["cv_analyze"] != `{"jd_id":"j1"}` || got["jd_analyze"] != `{"jd_id":"j2"}` {
		t.Errorf("dispatched payloads = %v", got)
	}
}

func TestConsumer_UnknownTaskSkipped(t *testing.T) {
	source := &fakeSource{tasks: []Task{
		{Name: "no_such_task", ID: "1"},
		{Name: "known", ID: "2"},
	}}

	var wait sync.WaitGroup
	wait.Add(1)

	c := NewConsumer(source, 1, zap.NewNop())
	c.Handle("known", func(ctx context.Context, payload json.RawMessage) error {
		defer wait.Done()
		return nil
	})

	runUntilDrained(t, c, &wait)
}

func TestConsumer_HandlerErrorDoesNotStopLoop(t *testing.T) {
	source := &fakeSource{tasks: []Task{
		{Name: "flaky", ID: "1"},
		{Name: "flaky", ID: "2"},
	}}

	var mu sync.Mutex
	var calls int

	var wait sync.WaitGroup
	wait.Add(2)

	c := NewConsumer(source, 1, zap.NewNop())
	c.Handle("flaky", func(ctx context.Context, payload json.RawMessage) error {
		defer wait.Done()
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return errors.New("boom")
		}
		return nil
	})

	runUntilDrained(t, c, &wait)

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestConsumer_SourceErrorsAreRetried(t *testing.T) {
	source := &fakeSource{
		errs:  []error{errors.New("broker down"), ErrEmpty},
		tasks: []Task{{Name: "work", ID: "1"}},
	}

	var wait sync.WaitGroup
	wait.Add(1)

	c := NewConsumer(source, 1, zap.NewNop())
	c.Handle("work", func(ctx context.Context, payload json.RawMessage) error {
		defer wait.Done()
		return nil
	})

	runUntilDrained(t, c, &wait)
}

func TestConsumer_StopsOnContextCancel(t *testing.T) {
	source := &fakeSource{}
	c := NewConsumer(source, 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
