// Package screening implements the bounded analysis task scheduler at the
// heart of the content-safety pipeline. It accepts image-analysis requests,
// bounds concurrent expensive work, degrades to a cheaper analysis mode under
// queue pressure, retries transient failures with a fixed backoff, and
// delivers exactly one outcome per request.
package screening

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/analysis/pixel"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
	"github.com/AsaTyr2018/VisionSuit-sub004/internal/observability"
)

// ErrSchedulerClosed settles tasks that were still pending when the
// scheduler shut down, and tasks enqueued afterwards.
var ErrSchedulerClosed = errors.New("screening scheduler closed")

// AnalyzeFunc is the injected analyzer contract. Any returned error is
// treated as transient and retried up to the configured limit.
type AnalyzeFunc func(ctx context.Context, buf []byte, opts pixel.Options) (*models.ImageAnalysisResult, error)

// Config holds the scheduler knobs. All values are supplied by the hosting
// application; the scheduler has no hidden defaults beyond sanity floors.
type Config struct {
	// MaxWorkers bounds concurrently executing analyses.
	MaxWorkers int
	// MaxBatchSize bounds tasks pulled into flight per scheduling pass.
	MaxBatchSize int
	// QueueSoftLimit is the pending-task depth at or above which new
	// dispatches run in degraded fast mode.
	QueueSoftLimit int
	// QueueHardLimit is the informational pending-task ceiling. The
	// scheduler never drops work past it; callers use Saturated to stop
	// enqueueing.
	QueueHardLimit int
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Backoff is the fixed delay before each retry.
	Backoff time.Duration
	// PressureCooldown is the minimum time before the scheduler reverts
	// from fast mode once queue pressure subsides.
	PressureCooldown time.Duration
	// PressureHeuristicOnly forces the cheap heuristic path in fast mode;
	// when false, fast mode is a hint to run a reduced-cost full pass.
	PressureHeuristicOnly bool
}

func (c Config) withFloors() Config {
	if c.MaxWorkers < 1 {
		c.MaxWorkers = 1
	}
	if c.MaxBatchSize < 1 {
		c.MaxBatchSize = 1
	}
	if c.QueueSoftLimit < 1 {
		c.QueueSoftLimit = 1
	}
	if c.QueueHardLimit < c.QueueSoftLimit {
		c.QueueHardLimit = c.QueueSoftLimit
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// Scheduler runs image analyses on a bounded worker pool over a shared
// pending queue.
type Scheduler struct {
	cfg     Config
	analyze AnalyzeFunc
	log     *zap.Logger
	metrics *observability.Metrics

	mu            sync.Mutex
	pending       []*task
	active        int
	pressureUntil time.Time
	closed        bool

	wake chan struct{}
	stop chan struct{}

	loopDone  chan struct{}
	workersWG sync.WaitGroup
}

// NewScheduler creates a scheduler and starts its dispatch loop.
func NewScheduler(cfg Config, analyze AnalyzeFunc, log *zap.Logger, metrics *observability.Metrics) *Scheduler {
	s := &Scheduler{
		cfg:      cfg.withFloors(),
		analyze:  analyze,
		log:      log,
		metrics:  metrics,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	go s.dispatchLoop()
	return s
}

// Enqueue appends an analysis task to the pending queue and returns its
// completion future. Enqueue never rejects work; callers that respect the
// hard limit consult Saturated before submitting.
func (s *Scheduler) Enqueue(buf []byte) *Future {
	t := &task{
		id:         uuid.NewString(),
		buffer:     buf,
		enqueuedAt: time.Now(),
		future:     newFuture(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		t.future.fail(ErrSchedulerClosed)
		return t.future
	}
	s.pending = append(s.pending, t)
	depth := len(s.pending)
	s.mu.Unlock()

	s.metrics.SetQueueDepth(depth)
	s.signal()
	return t.future
}

// Depth returns the number of pending (not yet started) tasks
func (s *Scheduler) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Saturated reports whether the pending queue has reached the hard limit
func (s *Scheduler) Saturated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) >= s.cfg.QueueHardLimit
}

// Close stops dispatching, waits for in-flight analyses, and fails any tasks
// still pending with ErrSchedulerClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	remaining := s.pending
	s.pending = nil
	s.mu.Unlock()

	close(s.stop)
	<-s.loopDone
	s.workersWG.Wait()

	for _, t := range remaining {
		t.future.fail(ErrSchedulerClosed)
	}
	s.metrics.SetQueueDepth(0)
	s.metrics.SetActiveWorkers(0)
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) dispatchLoop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.stop:
			return
		case <-s.wake:
		}
		s.dispatchPass()
	}
}

// dispatchPass pulls up to MaxBatchSize tasks into flight while worker slots
// are free. The queue, the worker count, and the pressure window share one
// mutex so the soft-limit mode decision stays consistent under parallel
// workers.
func (s *Scheduler) dispatchPass() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	dispatched := 0
	for dispatched < s.cfg.MaxBatchSize && s.active < s.cfg.MaxWorkers && len(s.pending) > 0 {
		// Depth counts the task being dispatched: pressure is judged on
		// what the queue looked like when dispatch began.
		mode := s.modeLocked(len(s.pending))

		t := s.pending[0]
		s.pending = s.pending[1:]
		s.active++
		dispatched++

		s.metrics.ObserveDispatch(string(mode))
		s.workersWG.Add(1)
		go s.run(t, mode)
	}

	depth := len(s.pending)
	active := s.active
	more := depth > 0 && active < s.cfg.MaxWorkers
	s.mu.Unlock()

	s.metrics.SetQueueDepth(depth)
	s.metrics.SetActiveWorkers(active)
	if more {
		// Batch size capped this pass; schedule another one.
		s.signal()
	}
}

// modeLocked decides the analysis mode for one dispatch. Entering pressure
// arms the cooldown window; while it is armed the scheduler keeps handing out
// fast mode even if the queue momentarily drains, so mode does not flap.
func (s *Scheduler) modeLocked(depth int) pixel.Mode {
	now := time.Now()
	if depth >= s.cfg.QueueSoftLimit {
		s.pressureUntil = now.Add(s.cfg.PressureCooldown)
		return pixel.ModeFast
	}
	if now.Before(s.pressureUntil) {
		return pixel.ModeFast
	}
	return pixel.ModeFull
}

// run executes one task to settlement: attempts, fixed-delay retries, and
// exactly one future resolution. Retries happen inside the worker slot, so a
// retried task is never delayed further by unrelated new arrivals.
func (s *Scheduler) run(t *task, mode pixel.Mode) {
	defer s.workersWG.Done()

	opts := pixel.Options{Mode: mode}
	if mode == pixel.ModeFast {
		opts.HeuristicOnly = s.cfg.PressureHeuristicOnly
	}

	var result *models.ImageAnalysisResult
	operation := func() error {
		if t.attempts > 0 {
			s.metrics.ObserveRetry()
		}
		t.attempts++

		res, err := s.analyze(context.Background(), t.buffer, opts)
		if err != nil {
			s.log.Warn("analysis attempt failed",
				zap.String("task_id", t.id),
				zap.Int("attempt", t.attempts),
				zap.String("mode", string(mode)),
				zap.Error(err))
			return err
		}
		result = res
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.Backoff), uint64(s.cfg.MaxRetries))
	err := backoff.Retry(operation, bo)

	if err != nil {
		s.metrics.ObserveSettled(observability.OutcomeExhausted)
		s.log.Error("analysis task exhausted retries",
			zap.String("task_id", t.id),
			zap.Int("attempts", t.attempts),
			zap.Duration("queued_for", time.Since(t.enqueuedAt)),
			zap.Error(err))
		t.future.fail(&ExhaustedError{Attempts: t.attempts, Last: err})
	} else {
		s.metrics.ObserveSettled(observability.OutcomeResolved)
		t.future.resolve(result)
	}

	s.mu.Lock()
	s.active--
	active := s.active
	more := len(s.pending) > 0
	s.mu.Unlock()

	s.metrics.SetActiveWorkers(active)
	if more {
		s.signal()
	}
}
