package subscription

import (
	"fmt"
	"sync"
	"time"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// IntervalManager runs interval subscriptions. Every tick delivers the
// declared message without a source event.
type IntervalManager struct {
	browser host.Browser
	out     channel.Channel
	log     *logging.Logger

	mu     sync.Mutex
	active map[string]*guard
}

// NewIntervalManager creates an IntervalManager delivering to out.
func NewIntervalManager(browser host.Browser, out channel.Channel, log *logging.Logger) *IntervalManager {
	if log == nil {
		log = logging.Nop()
	}
	return &IntervalManager{
		browser: browser,
		out:     out,
		log:     log,
		active:  make(map[string]*guard),
	}
}

var _ Manager = (*IntervalManager)(nil)

// Start registers the native timer for sub.
func (m *IntervalManager) Start(sub ir.Subscription) error {
	iv := sub.Interval
	if iv == nil {
		return fmt.Errorf("subscription %q: not an interval", sub.ID)
	}
	if m.browser == nil {
		return fmt.Errorf("subscription %q: no browser", sub.ID)
	}

	g := &guard{}
	tick := func() {
		g.run(func() {
			m.log.Debug(logging.Interval, logging.Verbose, "interval tick", "id", iv.ID)
			if m.out != nil {
				m.out.Deliver(channel.FromSubscription(iv.Msg, nil))
			}
		})
	}
	g.setCancel(m.browser.SetInterval(tick, time.Duration(iv.DurationMS)*time.Millisecond))

	m.mu.Lock()
	if prev, ok := m.active[sub.ID]; ok {
		prev.stop()
	}
	m.active[sub.ID] = g
	m.mu.Unlock()

	m.log.Debug(logging.Interval, logging.Verbose, "started interval",
		"id", iv.ID, "duration_ms", iv.DurationMS)
	return nil
}

// Stop cancels the timer for id.
func (m *IntervalManager) Stop(id string) {
	m.mu.Lock()
	g, ok := m.active[id]
	delete(m.active, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	g.stop()
	m.log.Debug(logging.Interval, logging.Verbose, "stopped interval", "id", id)
}

// Len returns the number of running timers.
func (m *IntervalManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
