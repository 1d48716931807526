// Package worker provides the bounded pool executing submitted extraction
// tasks in the background. Each task id is submitted exactly once, so a
// task record only ever has a single writer.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPoolStarted  = errors.New("worker: pool already started")
	ErrPoolStopped  = errors.New("worker: pool stopped")
	ErrQueueFull    = errors.New("worker: queue full")
	ErrNilTaskRunFn = errors.New("worker: task run callback is required")
)

// RunFunc executes one task to completion.
type RunFunc func(ctx context.Context, taskID uuid.UUID)

type Pool struct {
	run  RunFunc
	jobs chan uuid.UUID

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *zap.SugaredLogger
}

// NewPool builds a pool with the given queue depth.
func NewPool(depth int, run RunFunc) (*Pool, error) {
	if run == nil {
		return nil, ErrNilTaskRunFn
	}
	if depth <= 0 {
		depth = 64
	}
	return &Pool{
		run:    run,
		jobs:   make(chan uuid.UUID, depth),
		logger: zap.S().Named("worker"),
	}, nil
}

// Start launches the worker goroutines. Workers run until the parent
// context is canceled.
func (p *Pool) Start(parent context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrPoolStarted
	}

	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	p.started = true

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.logger.Infow("worker pool started", "workers", workers, "queue_depth", cap(p.jobs))
	return nil
}

// Submit enqueues a task id for background execution. It never blocks; a
// full queue is reported to the caller instead.
func (p *Pool) Submit(taskID uuid.UUID) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- taskID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop cancels the workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case taskID := <-p.jobs:
			p.run(ctx, taskID)
		}
	}
}
