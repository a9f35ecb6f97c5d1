package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/metrics"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single job. Calls are never retried.
	Timeout time.Duration
}

// Job is one unit of outbound work. A job may issue several Bot API calls;
// they run sequentially in the order the job issues them.
type Job func(ctx context.Context) error

type job struct {
	ctx    context.Context
	action string
	run    Job
}

// Dispatcher executes outbound Telegram calls on a bounded worker pool.
type Dispatcher struct {
	opts Options
	jobs chan job
	stop chan struct{}
	mu   sync.RWMutex
	once sync.Once
	wg   sync.WaitGroup
	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		stop: make(chan struct{}),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules run for asynchronous execution. The job context is
// detached from ctx cancellation so that a finished webhook request does not
// abort delivery, but it keeps ctx values for logging.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run Job) error {
	if run == nil {
		return errors.New("telegram sender: nil job")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	select {
	case <-d.stop:
		metrics.IncQueueRejected()
		return ErrQueueClosed
	default:
	}

	select {
	case d.jobs <- job{ctx: context.WithoutCancel(ctx), action: action, run: run}:
		return nil
	default:
		metrics.IncQueueRejected()
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		close(d.stop)
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
		logger.LogEvent(context.Background(), logger.TG, slog.LevelInfo, "sender.closed",
			slog.Uint64("failed_jobs", d.errs.Load()),
		)
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.Timeout)
	defer cancel()

	start := time.Now()
	err := runSafe(ctx, j.run)
	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		d.errs.Add(1)
		attrs = append(attrs,
			slog.String("err", SanitizeError(err)),
			slog.String("err_code", ClassifyError(err)),
		)
		logger.LogEvent(j.ctx, logger.TG, slog.LevelWarn, "send.job", attrs...)
		return
	}
	logger.LogEvent(j.ctx, logger.TG, slog.LevelDebug, "send.job", attrs...)
}

func runSafe(ctx context.Context, run Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("telegram sender: job panicked")
			logger.LogEvent(ctx, logger.TG, slog.LevelError, "send.panic", slog.Any("err", r))
		}
	}()
	return run(ctx)
}
