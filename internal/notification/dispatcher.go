package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrQueueFull = errors.New("notification queue is full")

// Pusher delivers a persisted notification to the user's live connections.
type Pusher interface {
	Push(ctx context.Context, userID int64, notification Response) error
}

type Job struct {
	Notification Response
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			// announce availability
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker pushing notification", "worker_id", w.ID, "notification_id", job.Notification.ID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	PushTimeout time.Duration
}

// Dispatcher fans persisted notifications out to the pusher through a bounded worker pool.
type Dispatcher struct {
	pusher      Pusher
	pushTimeout time.Duration
	logger      *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
	stopOnce   sync.Once
	// queued or being pushed
	pending atomic.Int64
}

func NewDispatcher(config DispatcherConfig, pusher Pusher, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.Workers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	pushTimeout := config.PushTimeout
	if pushTimeout <= 0 {
		pushTimeout = 5 * time.Second
	}

	return &Dispatcher{
		pusher:      pusher,
		pushTimeout: pushTimeout,
		logger:      logger,
		maxWorkers:  maxWorkers,
		jobQueue:    make(chan Job, queueSize),
		workerPool:  make(chan chan Job, maxWorkers),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (d *Dispatcher) Start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.push)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification dispatcher started",
			"workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- job:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

// Dispatch enqueues without blocking. A full queue drops the push; the notification stays
// persisted and is picked up on the next list call.
func (d *Dispatcher) Dispatch(n Response) error {
	d.pending.Add(1)
	select {
	case d.jobQueue <- Job{Notification: n}:
		return nil
	default:
		d.pending.Add(-1)
		d.logger.Warn("notification queue full, dropping push",
			"notification_id", n.ID,
			"user_id", n.UserID,
			"queue_capacity", cap(d.jobQueue))
		return ErrQueueFull
	}
}

// Shutdown waits for queued and in-flight pushes, bounded by the push timeout, then stops the workers.
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		d.logger.Info("shutting down notification dispatcher", "pending", d.pending.Load())
		d.drain()
		d.cancel()
		d.wg.Wait()
		d.logger.Info("notification dispatcher shutdown complete")
	})
}

func (d *Dispatcher) drain() {
	deadline := time.NewTimer(d.pushTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for d.pending.Load() > 0 {
		select {
		case <-ticker.C:
		case <-deadline.C:
			d.logger.Warn("dropping queued notifications on shutdown", "pending", d.pending.Load())
			return
		}
	}
}

func (d *Dispatcher) push(job Job) {
	defer d.pending.Add(-1)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(d.ctx), d.pushTimeout)
	defer cancel()

	if err := d.pusher.Push(ctx, job.Notification.UserID, job.Notification); err != nil {
		d.logger.Warn("failed to push notification",
			"notification_id", job.Notification.ID,
			"user_id", job.Notification.UserID,
			"error", err)
	}
}
