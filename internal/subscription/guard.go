package subscription

import (
	"sync"

	"github.com/roach88/boundary/internal/host"
)

// guard pairs a native cancel handle with a stopped flag. The host may
// have a callback in flight when Stop runs; the flag makes sure it does
// not deliver once stop has returned.
type guard struct {
	mu      sync.Mutex
	stopped bool
	cancel  host.Cancel
}

// run calls fn unless the guard was stopped. fn runs under the guard.
func (g *guard) run(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	fn()
}

func (g *guard) setCancel(c host.Cancel) {
	g.mu.Lock()
	g.cancel = c
	g.mu.Unlock()
}

func (g *guard) stop() {
	g.mu.Lock()
	g.stopped = true
	cancel := g.cancel
	g.mu.Unlock()
	if cancel != nil {
		cancel.Cancel()
	}
}
