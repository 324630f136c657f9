package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32 // atomic counter
	inFlight  *int32 // atomic gauge
	maxSeen   *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.inFlight != nil {
		now := atomic.AddInt32(j.inFlight, 1)
		for {
			seen := atomic.LoadInt32(j.maxSeen)
			if now <= seen || atomic.CompareAndSwapInt32(j.maxSeen, seen, now) {
				break
			}
		}
		defer atomic.AddInt32(j.inFlight, -1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{err: nil}
}

func TestNewPool(t *testing.T) {
	p1 := NewPool(5)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}

	p2 := NewPool(0)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}

	p3 := NewPool(-1)
	if p3.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.workers)
	}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(3)
	pool.Start()

	var executed int32
	for i := 0; i < 10; i++ {
		pool.Submit(&mockJob{executed: &executed})
	}

	results := pool.Wait()
	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}
	if atomic.LoadInt32(&executed) != 10 {
		t.Errorf("expected 10 executions, got %d", executed)
	}
}

func TestPool_ConcurrencyCapRespected(t *testing.T) {
	const workers = 3
	pool := NewPool(workers)
	pool.Start()

	var inFlight, maxSeen int32
	for i := 0; i < 12; i++ {
		pool.Submit(&mockJob{duration: 10 * time.Millisecond, inFlight: &inFlight, maxSeen: &maxSeen})
	}
	pool.Wait()

	if max := atomic.LoadInt32(&maxSeen); max > workers {
		t.Errorf("saw %d concurrent jobs, cap is %d", max, workers)
	}
}

func TestPool_FailingJobDoesNotAbortSiblings(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var executed int32
	for i := 0; i < 6; i++ {
		pool.Submit(&mockJob{executed: &executed, shouldErr: i%2 == 0})
	}

	results := pool.Wait()
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}

	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
		}
	}
	if failures != 3 {
		t.Errorf("expected 3 failures, got %d", failures)
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&mockJob{duration: time.Second})
	pool.Shutdown()
	// Shutdown must return promptly without waiting for the full job duration.
}
