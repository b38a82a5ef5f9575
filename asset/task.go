package asset

import "context"

// Summary counts the outcome of one resolution batch over its distinct
// sources.
type Summary struct {
	Requested int
	Resolved  int
	Failed    int
	Cancelled int
	// Cached counts sources that already had a final entry when the batch
	// started and were not fetched again.
	Cached int
}

// Task is a running resolution batch.
type Task struct {
	done    chan struct{}
	summary Summary
	err     error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) finish(s Summary, err error) {
	t.summary = s
	t.err = err
	close(t.done)
}

// Done is closed once every requested source is Resolved or Failed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the batch completes or ctx ends. Per-image failures are
// never returned as errors. The error is non-nil only when the batch was
// cancelled (context.Canceled or context.DeadlineExceeded from the resolve
// context) or when ctx ended before the batch finished.
func (t *Task) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-t.done:
		return t.summary, t.err
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}
}

// Summary returns the batch summary. It is the zero value until Done is
// closed.
func (t *Task) Summary() Summary {
	select {
	case <-t.done:
		return t.summary
	default:
		return Summary{}
	}
}
