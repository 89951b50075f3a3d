package subscription

import (
	"fmt"
	"sync"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// EventManager runs eventListener subscriptions.
//
// Listeners are registered in the capture phase. A listener is passive
// unless its propagation policy asks for preventDefault.
type EventManager struct {
	browser host.Browser
	out     channel.Channel
	log     *logging.Logger

	mu     sync.Mutex
	active map[string]*guard
}

// NewEventManager creates an EventManager delivering to out.
func NewEventManager(browser host.Browser, out channel.Channel, log *logging.Logger) *EventManager {
	if log == nil {
		log = logging.Nop()
	}
	return &EventManager{
		browser: browser,
		out:     out,
		log:     log,
		active:  make(map[string]*guard),
	}
}

var _ Manager = (*EventManager)(nil)

// Start registers the native listener for sub.
func (m *EventManager) Start(sub ir.Subscription) error {
	el := sub.EventListener
	if el == nil {
		return fmt.Errorf("subscription %q: not an event listener", sub.ID)
	}
	switch el.ListenTarget {
	case ir.ListenWindow, ir.ListenDocument:
	default:
		m.log.Warn(logging.EventListener, "unknown listen target",
			"id", el.ID, "target", string(el.ListenTarget))
		return fmt.Errorf("subscription %q: unknown listen target %q", sub.ID, el.ListenTarget)
	}
	if m.browser == nil {
		return fmt.Errorf("subscription %q: no browser", sub.ID)
	}

	g := &guard{}
	cancel, err := m.browser.AddEventListener(el.ListenTarget, el.EventType,
		func(ev host.Event) { g.run(func() { m.handle(el, ev) }) },
		host.ListenOptions{Capture: true, Passive: !el.Propagation.PreventDefault})
	if err != nil {
		return fmt.Errorf("subscription %q: %w", sub.ID, err)
	}
	g.setCancel(cancel)

	m.mu.Lock()
	if prev, ok := m.active[sub.ID]; ok {
		prev.stop()
	}
	m.active[sub.ID] = g
	m.mu.Unlock()

	m.log.Debug(logging.EventListener, logging.Verbose, "started event listener",
		"id", el.ID, "eventType", el.EventType, "target", string(el.ListenTarget))
	return nil
}

// Stop cancels the listener for id.
func (m *EventManager) Stop(id string) {
	m.mu.Lock()
	g, ok := m.active[id]
	delete(m.active, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	g.stop()
	m.log.Debug(logging.EventListener, logging.Verbose, "stopped event listener", "id", id)
}

// Len returns the number of running listeners.
func (m *EventManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *EventManager) handle(el *ir.EventListener, ev host.Event) {
	if !Match(el.Matchers, ev, m.log) {
		m.log.Debug(logging.EventListener, logging.Verbose, "event did not match",
			"id", el.ID, "eventType", el.EventType, "target", string(el.ListenTarget))
		return
	}

	if el.Propagation.PreventDefault {
		ev.PreventDefault()
	}
	if el.Propagation.StopPropagation {
		ev.StopPropagation()
	}

	m.log.Debug(logging.EventListener, logging.Normal, "event matched",
		"id", el.ID, "eventType", el.EventType, "target", string(el.ListenTarget))
	if m.out != nil {
		m.out.Deliver(channel.FromSubscription(el.Msg, ev))
	}
}
