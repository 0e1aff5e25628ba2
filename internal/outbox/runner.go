package outbox

import (
	"context"
)

// Runner drives a Processor on its own goroutine.
type Runner struct {
	processor *Processor
	done      chan struct{}
}

func NewRunner(processor *Processor) *Runner {
	return &Runner{processor: processor, done: make(chan struct{})}
}

// Start drains events staged while the service was down, then polls until
// ctx ends. Call it once.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		r.processor.ProcessBatch(ctx)
		r.processor.Run(ctx)
	}()
}

// Done is closed after the loop returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
