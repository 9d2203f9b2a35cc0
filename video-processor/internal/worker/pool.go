package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job represents a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// ErrStopped is returned by SubmitJob once the dispatcher is shutting down.
var ErrStopped = errors.New("dispatcher stopped")

// Worker runs in its own goroutine and receives jobs on its JobChannel after
// registering it with the pool.
type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	quit       <-chan struct{}
	wg         *sync.WaitGroup
	logger     *logrus.Logger
}

func newWorker(id int, workerPool chan chan Job, quit <-chan struct{}, wg *sync.WaitGroup, logger *logrus.Logger) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		quit:       quit,
		wg:         wg,
		logger:     logger,
	}
}

// Start makes the Worker listen for jobs. A job already handed to the
// worker runs to completion even if the dispatcher stops meanwhile.
func (w Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		log := w.logger.WithField("worker", w.ID)
		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-w.quit:
				log.Debug("Worker stopping")
				return
			}

			select {
			case job := <-w.JobChannel:
				jlog := log.WithField("job_id", job.ID())
				jlog.Info("Started job")
				if err := job.Execute(ctx); err != nil {
					jlog.WithError(err).Error("Error processing job")
				} else {
					jlog.Info("Finished job")
				}
			case <-w.quit:
				log.Debug("Worker stopping")
				return
			}
		}
	}()
}

// Dispatcher manages a pool of workers and dispatches jobs to them.
type Dispatcher struct {
	MaxWorkers int
	WorkerPool chan chan Job
	JobQueue   chan Job
	Workers    []Worker

	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
	logger   *logrus.Logger
}

// NewDispatcher creates a Dispatcher with maxWorkers workers and room for
// jobQueueSize waiting jobs.
func NewDispatcher(maxWorkers, jobQueueSize int, logger *logrus.Logger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		WorkerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the workers and the dispatch loop. Jobs execute with ctx.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.WithField("workers", d.MaxWorkers).Info("Dispatcher starting")
	for i := 1; i <= d.MaxWorkers; i++ {
		w := newWorker(i, d.WorkerPool, d.quit, &d.wg, d.logger)
		d.Workers = append(d.Workers, w)
		w.Start(ctx)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatch()
	}()
}

// dispatch hands queued jobs to idle workers one at a time, so a full
// JobQueue pushes back on SubmitJob.
func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.JobQueue:
			select {
			case jobChannel := <-d.WorkerPool:
				select {
				case jobChannel <- job:
				case <-d.quit:
					return
				}
			case <-d.quit:
				return
			}
		case <-d.quit:
			return
		}
	}
}

// SubmitJob queues job, blocking while the queue is full.
func (d *Dispatcher) SubmitJob(ctx context.Context, job Job) error {
	select {
	case <-d.quit:
		return ErrStopped
	default:
	}
	select {
	case d.JobQueue <- job:
		d.logger.WithField("job_id", job.ID()).Debug("Job submitted to queue")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.quit:
		return ErrStopped
	}
}

// Stop signals the workers to exit and waits for running jobs to finish.
// Jobs still waiting in the queue are dropped.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("Dispatcher: Initiating shutdown")
		close(d.quit)
		d.wg.Wait()
		if n := len(d.JobQueue); n > 0 {
			d.logger.WithField("dropped", n).Warn("Dispatcher: Queued jobs dropped on shutdown")
		}
		d.logger.Info("Dispatcher: Shutdown complete")
	})
}
