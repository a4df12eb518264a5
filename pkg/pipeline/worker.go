package pipeline

import (
	"context"
	"sync"

	"audio2sign/pkg/models"
)

type WorkerPool struct {
	workers    int
	taskQueue  chan *models.Job
	workerFunc func(context.Context, *models.Job)
	wg         sync.WaitGroup
	once       sync.Once
}

func NewWorkerPool(workers, queueSize int, workerFunc func(context.Context, *models.Job)) *WorkerPool {
	if queueSize < workers {
		queueSize = workers
	}
	return &WorkerPool{
		workers:    workers,
		taskQueue:  make(chan *models.Job, queueSize),
		workerFunc: workerFunc,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx)
	}
}

// TrySubmit queues a job without blocking. It reports false when the queue is full.
func (wp *WorkerPool) TrySubmit(job *models.Job) bool {
	select {
	case wp.taskQueue <- job:
		return true
	default:
		return false
	}
}

func (wp *WorkerPool) Stop() {
	wp.once.Do(func() {
		close(wp.taskQueue)
	})
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context) {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.taskQueue:
			if !ok {
				return
			}
			wp.workerFunc(ctx, job)

		case <-ctx.Done():
			return
		}
	}
}
