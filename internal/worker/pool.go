// Package worker delivers outgoing mail from a Redis list so that request
// handlers never block on SMTP.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	EmailQueue = "queue:email"

	JobPasswordReset = "password_reset"

	maxAttempts = 3
	popTimeout  = 5 * time.Second
	lockTTL     = 10 * time.Minute

	// popErrorDelay spaces out pops while Redis is unreachable.
	popErrorDelay = 2 * time.Second
)

// EmailJob is one queued message.
type EmailJob struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	To         string    `json:"to"`
	Token      string    `json:"token,omitempty"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Sender performs the actual delivery.
type Sender interface {
	SendPasswordResetEmail(to, token string) error
}

// Queue pushes jobs onto the Redis list consumed by Pool.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) Enqueue(ctx context.Context, job EmailJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode email job: %w", err)
	}
	if err := q.redis.RPush(ctx, EmailQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email job: %w", err)
	}
	return nil
}

// QueuePasswordReset schedules a reset link for delivery.
func (q *Queue) QueuePasswordReset(ctx context.Context, to, token string) error {
	return q.Enqueue(ctx, EmailJob{Type: JobPasswordReset, To: to, Token: token})
}

type Pool struct {
	redis       *redis.Client
	sender      Sender
	workerCount int
	retryDelay  func(attempt int) time.Duration
	errorDelay  time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewPool(redisClient *redis.Client, sender Sender, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		sender:      sender,
		workerCount: workerCount,
		retryDelay:  backoff,
		errorDelay:  popErrorDelay,
		stopChan:    make(chan struct{}),
	}
}

// pause waits for d and reports false when the pool is stopped meanwhile.
func (p *Pool) pause(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.stopChan:
		return false
	case <-t.C:
		return true
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Printf("Started %d email worker goroutines", p.workerCount)
}

// Stop signals the workers and waits for the current deliveries to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			log.Printf("Email worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, popTimeout, EmailQueue).Result()
		if errors.Is(err, redis.Nil) {
			continue // timeout
		}
		if err != nil {
			log.Printf("Email worker %d: failed to pop job: %v", id, err)
			if !p.pause(p.errorDelay) {
				return
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job EmailJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Email worker %d: failed to parse job: %v", id, err)
			continue
		}

		lockKey := fmt.Sprintf("email_lock:%s:%d", job.ID, job.Attempts)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil || !locked {
			continue // another worker has this job
		}

		if err := p.deliver(job); err != nil {
			p.handleFailure(ctx, job, err)
		}
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) deliver(job EmailJob) error {
	switch job.Type {
	case JobPasswordReset:
		return p.sender.SendPasswordResetEmail(job.To, job.Token)
	default:
		return fmt.Errorf("unknown email job type: %s", job.Type)
	}
}

// retryable returns the job to requeue, or false once attempts are used up.
func retryable(job EmailJob) (EmailJob, bool) {
	job.Attempts++
	return job, job.Attempts < maxAttempts
}

func (p *Pool) handleFailure(ctx context.Context, job EmailJob, err error) {
	next, ok := retryable(job)
	if !ok {
		log.Printf("Email job %s (%s) failed permanently: %v", job.ID, job.Type, err)
		return
	}

	log.Printf("Email job %s failed (attempt %d): %v, retrying", job.ID, next.Attempts, err)
	data, _ := json.Marshal(next)
	time.AfterFunc(p.retryDelay(next.Attempts), func() {
		p.redis.RPush(context.Background(), EmailQueue, data)
	})
}
