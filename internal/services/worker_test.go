package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovanglig/aigeniusresume/internal/config"
	"github.com/jovanglig/aigeniusresume/internal/testutil"
)

func testWorkerConfig(concurrency, queue int) config.WorkerConfig {
	return config.WorkerConfig{
		Concurrency:       concurrency,
		QueueSize:         queue,
		RetryMaxAttempts:  3,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
	}
}

func TestCompletionPool_CapsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	fake := &testutil.FakeCompletion{Respond: func(string, int) (string, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return "ok", nil
	}}

	pool := NewCompletionPool(fake, testWorkerConfig(2, 100))
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := pool.Complete(context.Background(), "prompt")
			assert.NoError(t, err)
			assert.Equal(t, "ok", reply)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, fake.Calls())
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 0, pool.InFlight())
}

func TestCompletionPool_RetriesTransientErrors(t *testing.T) {
	fake := &testutil.FakeCompletion{Respond: func(_ string, call int) (string, error) {
		if call == 0 {
			return "", &CompletionError{Provider: "deepseek", StatusCode: 503, Retryable: true}
		}
		return "ok", nil
	}}

	pool := NewCompletionPool(fake, testWorkerConfig(1, 1))
	defer pool.Stop()

	reply, err := pool.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, 2, fake.Calls())
}

func TestCompletionPool_DoesNotRetryMalformedReplies(t *testing.T) {
	fake := &testutil.FakeCompletion{Respond: func(string, int) (string, error) {
		return "", &MalformedResponseError{Reason: "empty completion"}
	}}

	pool := NewCompletionPool(fake, testWorkerConfig(1, 1))
	defer pool.Stop()

	_, err := pool.Complete(context.Background(), "prompt")
	assert.Equal(t, KindMalformedResponse, ErrorKind(err))
	assert.Equal(t, 1, fake.Calls())
}

func TestCompletionPool_RejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fake := &testutil.FakeCompletion{Respond: func(string, int) (string, error) {
		close(started)
		<-release
		return "ok", nil
	}}

	pool := NewCompletionPool(fake, testWorkerConfig(1, 0))

	done := make(chan error, 1)
	go func() {
		_, err := pool.Complete(context.Background(), "first")
		done <- err
	}()
	<-started

	_, err := pool.Complete(context.Background(), "second")
	assert.ErrorIs(t, err, ErrPoolFull)
	assert.Equal(t, KindOverloaded, ErrorKind(err))

	close(release)
	assert.NoError(t, <-done)
	pool.Stop()
}

func TestCompletionPool_StopWaitsAndRejects(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fake := &testutil.FakeCompletion{Respond: func(string, int) (string, error) {
		close(started)
		<-release
		return "ok", nil
	}}

	pool := NewCompletionPool(fake, testWorkerConfig(1, 1))

	go func() {
		_, _ = pool.Complete(context.Background(), "in flight")
	}()
	<-started

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight call finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-stopped

	_, err := pool.Complete(context.Background(), "late")
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestCompletionPool_HonorsContext(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fake := &testutil.FakeCompletion{Respond: func(string, int) (string, error) {
		close(started)
		<-release
		return "ok", nil
	}}

	pool := NewCompletionPool(fake, testWorkerConfig(1, 5))
	defer pool.Stop()

	go func() {
		_, _ = pool.Complete(context.Background(), "holder")
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Complete(ctx, "waiter")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
