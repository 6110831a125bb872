package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vitals-monitor/internal/application/worker"
	"vitals-monitor/internal/domain"
)

type discardLogger struct{}

func (discardLogger) Printf(context.Context, string, ...any) {}

type recordingArchive struct {
	mu        sync.Mutex
	summaries []domain.Summary
	wg        *sync.WaitGroup
	errOnce   bool
}

func (r *recordingArchive) Add(_ context.Context, summary domain.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.wg != nil {
		defer r.wg.Done()
	}

	if r.errOnce {
		r.errOnce = false
		return errors.New("temporary failure")
	}

	r.summaries = append(r.summaries, summary)
	return nil
}

func TestPoolArchivesSummaries(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	archive := &recordingArchive{wg: &sync.WaitGroup{}}
	pool := worker.New(2, archive, discardLogger{})

	summaries := make(chan domain.Summary)
	done := make(chan struct{})
	go func() {
		pool.Run(ctx, summaries)
		close(done)
	}()

	expected := 4
	archive.wg.Add(expected)
	for i := 0; i < expected; i++ {
		summaries <- domain.Summary{Channel: "glucose", SessionID: "s"}
	}
	close(summaries)

	waitWithTimeout(t, archive.wg, 200*time.Millisecond)
	waitForDone(t, done)

	archive.mu.Lock()
	defer archive.mu.Unlock()
	if len(archive.summaries) != expected {
		t.Fatalf("expected %d summaries, got %d", expected, len(archive.summaries))
	}
}

func TestPoolStopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	pool := worker.New(1, &recordingArchive{}, nil)

	summaries := make(chan domain.Summary)
	done := make(chan struct{})
	go func() {
		pool.Run(ctx, summaries)
		close(done)
	}()

	cancel()
	waitForDone(t, done)
}

func TestPoolContinuesAfterArchiveError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	archive := &recordingArchive{errOnce: true, wg: &sync.WaitGroup{}}
	archive.wg.Add(2)
	pool := worker.New(1, archive, discardLogger{})

	summaries := make(chan domain.Summary, 2)
	done := make(chan struct{})
	go func() {
		pool.Run(ctx, summaries)
		close(done)
	}()

	summaries <- domain.Summary{Channel: "glucose"}
	summaries <- domain.Summary{Channel: "crustrol"}
	close(summaries)

	waitWithTimeout(t, archive.wg, 200*time.Millisecond)
	waitForDone(t, done)

	archive.mu.Lock()
	defer archive.mu.Unlock()
	if len(archive.summaries) != 1 {
		t.Fatalf("expected 1 archived summary, got %d", len(archive.summaries))
	}
	if archive.summaries[0].Channel != "crustrol" {
		t.Fatalf("expected crustrol to be archived, got %s", archive.summaries[0].Channel)
	}
}

func TestPoolWithoutWorkersDrains(t *testing.T) {
	t.Parallel()

	archive := &recordingArchive{}
	pool := worker.New(-1, archive, nil)

	summaries := make(chan domain.Summary, 3)
	summaries <- domain.Summary{}
	summaries <- domain.Summary{}
	close(summaries)

	done := make(chan struct{})
	go func() {
		pool.Run(context.Background(), summaries)
		close(done)
	}()
	waitForDone(t, done)

	if len(archive.summaries) != 0 {
		t.Fatalf("expected nothing archived, got %d", len(archive.summaries))
	}
}

func waitWithTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for waitgroup")
	}
}

func waitForDone(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("pool did not stop in time")
	}
}
