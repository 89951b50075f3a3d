package effect

import (
	"context"
	"sync"

	"github.com/roach88/boundary/internal/ir"
)

// Future is the eventual result of an effect handler.
//
// A Future resolves exactly once. Callbacks registered with OnResolve run
// on the goroutine that resolves it, or immediately if it already has.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	value     ir.IRValue
	resolved  bool
	callbacks []func(ir.IRValue)
}

// Resolved returns a Future that already holds v.
func Resolved(v ir.IRValue) *Future {
	if v == nil {
		v = ir.IRNull{}
	}
	f := &Future{done: make(chan struct{}), value: v, resolved: true}
	close(f.done)
	return f
}

// Pending returns an unresolved Future and the function that resolves
// it. Calls after the first are ignored.
func Pending() (*Future, func(ir.IRValue)) {
	f := &Future{done: make(chan struct{})}
	return f, f.resolve
}

func (f *Future) resolve(v ir.IRValue) {
	if v == nil {
		v = ir.IRNull{}
	}

	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.value = v
	f.resolved = true
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v)
	}
}

// Done is closed once the Future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Value returns the result and whether the Future has resolved.
func (f *Future) Value() (ir.IRValue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.resolved
}

// Await blocks until the Future resolves or ctx is done.
func (f *Future) Await(ctx context.Context) (ir.IRValue, error) {
	select {
	case <-f.done:
		v, _ := f.Value()
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnResolve registers fn to receive the result.
func (f *Future) OnResolve(fn func(ir.IRValue)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v := f.value
	f.mu.Unlock()
	fn(v)
}
