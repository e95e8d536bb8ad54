// Package suggest runs the keyword side-query behind the use-case input:
// once typing quiesces for a fixed delay, the generator is asked for
// keyword suggestions; a newer trigger for the same field supersedes and
// cancels any task still pending or in flight.
package suggest

import (
	"context"
	"sync"
	"time"

	"proai/internal/providers/prompt"
)

// Debouncer coalesces rapid triggers per field. Callbacks fire off the
// caller's goroutine; superseded tasks never invoke their callback with
// stale results because their context is cancelled first.
type Debouncer struct {
	generator prompt.Generator
	delay     time.Duration

	mu      sync.Mutex
	pending map[string]*task
}

type task struct {
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewDebouncer builds a Debouncer with the given quiesce delay.
func NewDebouncer(generator prompt.Generator, delay time.Duration) *Debouncer {
	return &Debouncer{generator: generator, delay: delay, pending: make(map[string]*task)}
}

// Trigger schedules a keyword lookup for the field after the quiesce
// delay. Blank input just cancels whatever is pending.
func (d *Debouncer) Trigger(ctx context.Context, field, useCase string, deliver func([]string, error)) {
	d.mu.Lock()
	if prev, ok := d.pending[field]; ok {
		prev.timer.Stop()
		prev.cancel()
		delete(d.pending, field)
	}
	if useCase == "" {
		d.mu.Unlock()
		return
	}
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel}
	t.timer = time.AfterFunc(d.delay, func() {
		keywords, err := d.generator.Keywords(taskCtx, useCase)
		d.mu.Lock()
		if d.pending[field] == t {
			delete(d.pending, field)
		}
		d.mu.Unlock()
		if taskCtx.Err() != nil {
			return
		}
		deliver(keywords, err)
	})
	d.pending[field] = t
	d.mu.Unlock()
}

// Cancel drops any pending or in-flight task for the field.
func (d *Debouncer) Cancel(field string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.pending[field]; ok {
		prev.timer.Stop()
		prev.cancel()
		delete(d.pending, field)
	}
}
