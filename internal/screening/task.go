package screening

import (
	"context"
	"fmt"
	"time"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

// ExhaustedError is the terminal failure returned when an analysis task has
// used up all its attempts. The scheduler never infers a moderation outcome
// from failure; the caller decides the fallback.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("analysis failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Future is the completion handle of one enqueued analysis task. It settles
// exactly once, with either a result or an error, and is independently
// awaitable so callers can also choose to ignore it.
type Future struct {
	done   chan struct{}
	result *models.ImageAnalysisResult
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done returns a channel closed when the task has settled
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task settles or the context is cancelled. The task
// itself keeps running on cancellation; every enqueued task settles
// regardless of who is still watching.
func (f *Future) Wait(ctx context.Context) (*models.ImageAnalysisResult, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) resolve(result *models.ImageAnalysisResult) {
	f.result = result
	close(f.done)
}

func (f *Future) fail(err error) {
	f.err = err
	close(f.done)
}

// task is the scheduler's unit of work. It is owned exclusively by the
// scheduler and discarded once its future settles.
type task struct {
	id         string
	buffer     []byte
	attempts   int
	enqueuedAt time.Time
	future     *Future
}
