package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/jovanglig/aigeniusresume/internal/config"
)

var (
	ErrPoolStopped = errors.New("completion pool stopped")
	ErrPoolFull    = errors.New("completion pool queue is full")
)

// CompletionPool caps concurrent and per-minute completion calls across all
// requests, and retries retryable failures with backoff.
type CompletionPool interface {
	CompletionClient
	Stop()
	InFlight() int
}

type completionPool struct {
	client   CompletionClient
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	retry    RetryConfig
	capacity int64
	pending  atomic.Int64

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewCompletionPool(client CompletionClient, cfg config.WorkerConfig) CompletionPool {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.RetryMaxAttempts
	retry.InitialDelay = cfg.RetryInitialDelay
	retry.MaxDelay = cfg.RetryMaxDelay

	log.Printf("🚀 Completion pool: %d concurrent, %d queued, %d/min, %d attempts\n",
		concurrency, cfg.QueueSize, cfg.RequestsPerMinute, retry.MaxAttempts)

	return &completionPool{
		client:   client,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		limiter:  rate.NewLimiter(limit, concurrency),
		retry:    retry,
		capacity: int64(concurrency + max(cfg.QueueSize, 0)),
	}
}

// Complete implements CompletionClient. A slot is held only while a call is
// in flight, not during backoff.
func (p *completionPool) Complete(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return "", ErrPoolStopped
	}
	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()

	if p.pending.Add(1) > p.capacity {
		p.pending.Add(-1)
		log.Printf("⚠️ Completion pool full, rejecting call\n")
		return "", ErrPoolFull
	}
	defer p.pending.Add(-1)

	return Retry(ctx, p.retry, func(ctx context.Context) (string, error) {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer p.sem.Release(1)

		if err := p.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("completion rate limit: %w", err)
		}

		return p.client.Complete(ctx, prompt)
	})
}

// Stop rejects new calls and waits for in-flight ones to finish.
func (p *completionPool) Stop() {
	log.Println("🛑 Stopping completion pool...")
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
	log.Println("✅ Completion pool stopped")
}

// InFlight counts calls that are running or waiting for a slot.
func (p *completionPool) InFlight() int {
	return int(p.pending.Load())
}
