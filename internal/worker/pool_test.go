package worker

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type stubSender struct {
	to, token string
	err       error
}

func (s *stubSender) SendPasswordResetEmail(to, token string) error {
	s.to, s.token = to, token
	return s.err
}

func TestDeliver_PasswordReset(t *testing.T) {
	sender := &stubSender{}
	p := NewPool(nil, sender, 1)

	err := p.deliver(EmailJob{ID: uuid.New(), Type: JobPasswordReset, To: "ana@example.com", Token: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.to != "ana@example.com" || sender.token != "tok" {
		t.Errorf("sender got %q/%q", sender.to, sender.token)
	}
}

func TestDeliver_UnknownType(t *testing.T) {
	p := NewPool(nil, &stubSender{}, 1)

	if err := p.deliver(EmailJob{Type: "newsletter"}); err == nil {
		t.Error("expected an error for an unknown job type")
	}
}

func TestDeliver_PropagatesSenderError(t *testing.T) {
	p := NewPool(nil, &stubSender{err: errors.New("smtp down")}, 1)

	if err := p.deliver(EmailJob{Type: JobPasswordReset, To: "a@b.com"}); err == nil {
		t.Error("expected sender error")
	}
}

func TestRetryable(t *testing.T) {
	job := EmailJob{ID: uuid.New(), Type: JobPasswordReset}

	for i := 1; i < maxAttempts; i++ {
		var ok bool
		job, ok = retryable(job)
		if !ok {
			t.Fatalf("attempt %d should be retried", i)
		}
		if job.Attempts != i {
			t.Fatalf("expected attempts %d, got %d", i, job.Attempts)
		}
	}

	if _, ok := retryable(job); ok {
		t.Error("expected no retry after the last attempt")
	}
}

func TestBackoffGrows(t *testing.T) {
	if backoff(1) != 2*time.Second || backoff(2) != 4*time.Second {
		t.Errorf("unexpected backoff: %v, %v", backoff(1), backoff(2))
	}
}

func TestNewPool_DefaultsWorkerCount(t *testing.T) {
	if p := NewPool(nil, &stubSender{}, 0); p.workerCount != 1 {
		t.Errorf("expected 1 worker, got %d", p.workerCount)
	}
}

type countingHook struct{ calls atomic.Int32 }

func (h *countingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *countingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.calls.Add(1)
		return next(ctx, cmd)
	}
}

func (h *countingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestWorker_BacksOffWhileRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	defer client.Close()
	hook := &countingHook{}
	client.AddHook(hook)

	p := NewPool(client, &stubSender{}, 1)
	p.errorDelay = 100 * time.Millisecond
	p.Start()
	time.Sleep(350 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not interrupt the error delay")
	}

	if n := hook.calls.Load(); n == 0 || n > 6 {
		t.Errorf("expected a handful of pops while Redis is down, got %d", n)
	}
}
