package worker

import (
	"context"
	"sync"

	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
)

// Logger defines the logging behaviour required by the worker pool.
type Logger interface {
	Printf(ctx context.Context, format string, v ...any)
}

// Pool consumes completed summaries and stores them in the archive.
type Pool struct {
	archive     domain.SummaryWriter
	workerCount int
	logger      Logger
}

// New creates a pool with the provided archive and worker count.
func New(workerCount int, archive domain.SummaryWriter, logger Logger) *Pool {
	if workerCount < 0 {
		workerCount = 0
	}
	return &Pool{archive: archive, workerCount: workerCount, logger: logger}
}

// Run starts the workers and blocks until the context is cancelled or the
// summaries channel is closed and drained.
func (p *Pool) Run(ctx context.Context, summaries <-chan domain.Summary) {
	if p.workerCount == 0 {
		p.drainUntilClosed(ctx, summaries)
		return
	}

	var wg sync.WaitGroup
	wg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		go func() {
			defer wg.Done()
			infra.WorkerStarted()
			defer infra.WorkerFinished()
			p.workerLoop(ctx, summaries)
		}()
	}
	wg.Wait()
}

func (p *Pool) workerLoop(ctx context.Context, summaries <-chan domain.Summary) {
	for {
		select {
		case <-ctx.Done():
			p.log(ctx, "worker: context cancelled: %v", ctx.Err())
			return
		case summary, ok := <-summaries:
			if !ok {
				return
			}
			p.store(ctx, summary)
		}
	}
}

func (p *Pool) store(ctx context.Context, summary domain.Summary) {
	ctx = infra.WithCorrelationID(ctx, summary.SessionID)

	err := p.archive.Add(ctx, summary)
	infra.RecordArchiveWrite(err)
	if err != nil {
		p.log(ctx, "worker: failed to archive channel=%s session=%s: %v", summary.Channel, summary.SessionID, err)
		return
	}
	p.log(ctx, "worker: archived channel=%s session=%s classification=%s", summary.Channel, summary.SessionID, summary.Classification)
}

// drainUntilClosed discards summaries when no worker is configured so that
// publishers never block.
func (p *Pool) drainUntilClosed(ctx context.Context, summaries <-chan domain.Summary) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-summaries:
			if !ok {
				return
			}
		}
	}
}

func (p *Pool) log(ctx context.Context, format string, v ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Printf(ctx, format, v...)
}

var _ domain.WorkerPool = (*Pool)(nil)
