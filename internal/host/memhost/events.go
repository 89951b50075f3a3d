package memhost

import (
	"fmt"
	"sync"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
)

// Event is a synthetic native event.
type Event struct {
	mu         sync.Mutex
	typ        string
	target     *Element
	button     int
	code       string
	ctrl       bool
	meta       bool
	cancelable bool
	bubbles    bool

	passive            bool
	defaultPrevented   bool
	propagationStopped bool
	ignoredPrevents    int
}

var _ host.Event = (*Event)(nil)

// Type returns the event type.
func (e *Event) Type() string { return e.typ }

// Target returns the target element, or nil for window and document events.
func (e *Event) Target() host.Element {
	if e.target == nil {
		return nil
	}
	return e.target
}

// Button returns the mouse button code.
func (e *Event) Button() int { return e.button }

// Code returns the physical key code.
func (e *Event) Code() string { return e.code }

// CtrlKey reports whether Ctrl was held.
func (e *Event) CtrlKey() bool { return e.ctrl }

// MetaKey reports whether Meta was held.
func (e *Event) MetaKey() bool { return e.meta }

// PreventDefault cancels the default action. It is ignored inside a
// passive listener and on non-cancelable events.
func (e *Event) PreventDefault() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.passive || !e.cancelable {
		e.ignoredPrevents++
		return
	}
	e.defaultPrevented = true
}

// StopPropagation stops delivery to later listen targets.
func (e *Event) StopPropagation() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.propagationStopped = true
}

// DefaultPrevented reports whether PreventDefault took effect.
func (e *Event) DefaultPrevented() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaultPrevented
}

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.propagationStopped
}

// IgnoredPreventDefaults counts PreventDefault calls that had no effect.
func (e *Event) IgnoredPreventDefaults() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ignoredPrevents
}

// EventSpec describes an event to fire.
type EventSpec struct {
	Type string
	// TargetID names the target element; empty means no element target.
	TargetID   string
	Button     int
	Code       string
	Ctrl       bool
	Meta       bool
	Cancelable bool
	Bubbles    bool
}

type listener struct {
	id      int
	target  ir.ListenTarget
	typ     string
	fn      func(host.Event)
	opts    host.ListenOptions
	removed bool
}

// listeners is the registry of native listeners on window and document.
type listeners struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]*listener
}

func newListeners() *listeners {
	return &listeners{byID: make(map[int]*listener)}
}

func (ls *listeners) add(target ir.ListenTarget, typ string, fn func(host.Event), opts host.ListenOptions) (host.Cancel, error) {
	if target != ir.ListenWindow && target != ir.ListenDocument {
		return nil, fmt.Errorf("unknown listen target %q", target)
	}
	ls.mu.Lock()
	ls.nextID++
	l := &listener{id: ls.nextID, target: target, typ: typ, fn: fn, opts: opts}
	ls.byID[l.id] = l
	ls.mu.Unlock()

	return host.CancelFunc(func() {
		ls.mu.Lock()
		l.removed = true
		delete(ls.byID, l.id)
		ls.mu.Unlock()
	}), nil
}

// snapshot returns the live listeners for target and typ in
// registration order.
func (ls *listeners) snapshot(target ir.ListenTarget, typ string) []*listener {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	var out []*listener
	for id := 1; id <= ls.nextID; id++ {
		if l, ok := ls.byID[id]; ok && l.target == target && l.typ == typ {
			out = append(out, l)
		}
	}
	return out
}

func (ls *listeners) live(l *listener) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return !l.removed
}

// registrations returns the live registrations in registration order.
func (ls *listeners) registrations() []Registration {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	var out []Registration
	for id := 1; id <= ls.nextID; id++ {
		if l, ok := ls.byID[id]; ok {
			out = append(out, Registration{Target: l.target, Type: l.typ, Options: l.opts})
		}
	}
	return out
}

// Registration describes a live native listener.
type Registration struct {
	Target  ir.ListenTarget
	Type    string
	Options host.ListenOptions
}

// fire delivers ev to window listeners, then document listeners, in the
// capture phase. StopPropagation ends delivery after the current target.
func (ls *listeners) fire(ev *Event) {
	for _, target := range []ir.ListenTarget{ir.ListenWindow, ir.ListenDocument} {
		for _, l := range ls.snapshot(target, ev.typ) {
			if !ls.live(l) {
				continue
			}
			ev.mu.Lock()
			ev.passive = l.opts.Passive
			ev.mu.Unlock()
			l.fn(ev)
		}
		if ev.PropagationStopped() {
			return
		}
	}
}
