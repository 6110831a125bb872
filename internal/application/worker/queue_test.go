package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals-monitor/internal/application/worker"
	"vitals-monitor/internal/domain"
)

func TestQueueFeedsPool(t *testing.T) {
	queue := worker.NewQueue(4)
	archive := &recordingArchive{wg: &sync.WaitGroup{}}
	archive.wg.Add(2)
	pool := worker.New(1, archive, discardLogger{})

	done := make(chan struct{})
	go func() {
		pool.Run(context.Background(), queue.Summaries())
		close(done)
	}()

	t.Log("Шаг 1: две сводки проходят через очередь в архив")
	require.NoError(t, queue.Publish(context.Background(), domain.Summary{Channel: "glucose"}))
	require.NoError(t, queue.Publish(context.Background(), domain.Summary{Channel: "crustrol"}))
	waitWithTimeout(t, archive.wg, time.Second)

	t.Log("Шаг 2: закрытие очереди останавливает пул")
	queue.Close()
	queue.Close()
	waitForDone(t, done)

	err := queue.Publish(context.Background(), domain.Summary{Channel: "glucose"})
	assert.ErrorIs(t, err, worker.ErrQueueClosed)
	assert.Len(t, archive.summaries, 2)
}

func TestQueuePublishRespectsContext(t *testing.T) {
	queue := worker.NewQueue(0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := queue.Publish(ctx, domain.Summary{Channel: "glucose"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
