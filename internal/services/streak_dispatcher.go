package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kantong/internal/core"
	"kantong/internal/log"
)

// ErrDispatcherStopped is delivered for events handed to a dispatcher that is not running.
var ErrDispatcherStopped = errors.New("streak dispatcher is not running")

// ErrQueueFull is delivered when the dispatch queue has no room left.
var ErrQueueFull = errors.New("streak dispatch queue is full")

// StreakDispatcherConfig holds configuration for the in-process dispatcher
type StreakDispatcherConfig struct {
	// Workers is the number of goroutines draining the queue (default: 2)
	Workers int

	// QueueSize bounds the number of pending events (default: 256)
	QueueSize int

	// MaxRetries is how many times a failing event is attempted (default: 3)
	MaxRetries int

	// RetryDelay is the base backoff between attempts, doubled each time (default: 50ms)
	RetryDelay time.Duration
}

// DefaultStreakDispatcherConfig returns sensible defaults
func DefaultStreakDispatcherConfig() StreakDispatcherConfig {
	return StreakDispatcherConfig{
		Workers:    2,
		QueueSize:  256,
		MaxRetries: 3,
		RetryDelay: 50 * time.Millisecond,
	}
}

type dispatchJob struct {
	ctx  context.Context
	ev   core.EntryLogged
	done chan error
}

// StreakDispatcher runs streak updates off the request path. It implements
// EntryNotifier for deployments without a message broker.
type StreakDispatcher struct {
	counter *StreakCounter
	config  StreakDispatcherConfig
	logger  *log.Logger

	// Lifecycle management
	mu      sync.RWMutex
	running bool
	queue   chan dispatchJob
	wg      sync.WaitGroup
}

func NewStreakDispatcher(counter *StreakCounter, config StreakDispatcherConfig, logger *log.Logger) *StreakDispatcher {
	def := DefaultStreakDispatcherConfig()
	if config.Workers < 1 {
		config.Workers = def.Workers
	}
	if config.QueueSize < 1 {
		config.QueueSize = def.QueueSize
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = def.MaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = def.RetryDelay
	}
	return &StreakDispatcher{
		counter: counter,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// Start launches the workers. Returns an error if already running.
func (d *StreakDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("streak dispatcher is already running")
	}
	d.running = true
	d.queue = make(chan dispatchJob, d.config.QueueSize)

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.work(d.queue)
	}

	d.logger.InfoContext(ctx, "Streak dispatcher started",
		"workers", d.config.Workers,
		"queue_size", d.config.QueueSize)
	return nil
}

// Stop refuses new events, drains the queue and waits for the workers.
func (d *StreakDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.InfoContext(ctx, "Streak dispatcher stopped gracefully")
		return nil
	case <-ctx.Done():
		d.logger.WarnContext(ctx, "Streak dispatcher stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the dispatcher accepts events
func (d *StreakDispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// EntryLogged enqueues a streak update. The channel receives exactly one value:
// nil on success or the final error.
func (d *StreakDispatcher) EntryLogged(ctx context.Context, ev core.EntryLogged) <-chan error {
	done := make(chan error, 1)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		d.logger.WarnContext(ctx, "Dropping entry event, dispatcher not running", log.FieldUserID, ev.UserID)
		done <- ErrDispatcherStopped
		return done
	}

	select {
	case d.queue <- dispatchJob{ctx: ctx, ev: ev, done: done}:
	default:
		d.logger.ErrorContext(ctx, "Streak dispatch queue full",
			log.FieldUserID, ev.UserID,
			log.FieldExpenseID, ev.ExpenseID)
		done <- ErrQueueFull
	}
	return done
}

func (d *StreakDispatcher) work(queue <-chan dispatchJob) {
	defer d.wg.Done()
	for job := range queue {
		job.done <- d.process(job)
	}
}

func (d *StreakDispatcher) process(job dispatchJob) error {
	var err error
	delay := d.config.RetryDelay
	for attempt := 1; attempt <= d.config.MaxRetries; attempt++ {
		if err = d.counter.HandleEntryLogged(job.ctx, job.ev); err == nil {
			return nil
		}
		if core.KindOf(err) == core.KindValidation {
			break
		}
		d.logger.WarnContext(job.ctx, "Streak update failed",
			log.FieldUserID, job.ev.UserID,
			log.FieldAttempt, attempt,
			log.FieldError, err)
		if attempt == d.config.MaxRetries {
			break
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-job.ctx.Done():
			return job.ctx.Err()
		}
	}

	d.logger.ErrorContext(job.ctx, "Streak update failed permanently",
		log.FieldUserID, job.ev.UserID,
		log.FieldExpenseID, job.ev.ExpenseID,
		log.FieldError, err)
	return err
}
