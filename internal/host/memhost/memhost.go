// Package memhost is a headless, deterministic host.
//
// The DOM is parsed with golang.org/x/net/html and queried with
// cascadia selectors. Timers run on a virtual clock that only moves
// through Advance. Every other capability records what it was asked to
// do so tests and scenarios can assert on it.
package memhost

import (
	"fmt"
	"sync"
	"time"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
)

// DefaultEpoch is the virtual start time: 2024-01-01T00:00:00Z.
var DefaultEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Options configure a Host.
type Options struct {
	Markup string
	Start  time.Time
	Width  int
	Height int

	// LocalStorage and SessionStorage override the in-memory areas,
	// for example with a SQLite-backed store.
	LocalStorage   host.Storage
	SessionStorage host.Storage
}

// Host is the in-memory host environment.
type Host struct {
	Document  *Document
	Scheduler *Scheduler
	Console   *Console
	Clipboard *Clipboard
	Nav       *Navigation
	Window    *Window

	LocalStorage   host.Storage
	SessionStorage host.Storage

	listeners  *listeners
	mu         sync.Mutex
	dispatched []EventSpec
}

// New creates a Host.
func New(opts Options) (*Host, error) {
	doc, err := NewDocument(opts.Markup)
	if err != nil {
		return nil, err
	}
	if opts.Start.IsZero() {
		opts.Start = DefaultEpoch
	}
	if opts.Width == 0 && opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	h := &Host{
		Document:       doc,
		Scheduler:      NewScheduler(opts.Start),
		Console:        &Console{},
		Clipboard:      &Clipboard{},
		Nav:            &Navigation{},
		Window:         &Window{width: opts.Width, height: opts.Height},
		LocalStorage:   opts.LocalStorage,
		SessionStorage: opts.SessionStorage,
		listeners:      newListeners(),
	}
	if h.LocalStorage == nil {
		h.LocalStorage = NewMemoryStorage()
	}
	if h.SessionStorage == nil {
		h.SessionStorage = NewMemoryStorage()
	}
	return h, nil
}

// Capabilities bundles the host for the runtime.
func (h *Host) Capabilities() host.Host {
	return host.Host{
		Browser:        h,
		Window:         h.Window,
		LocalStorage:   h.LocalStorage,
		SessionStorage: h.SessionStorage,
		Clipboard:      h.Clipboard,
		Console:        h.Console,
		History:        h.Nav,
		Location:       h.Nav,
		Clock:          h.Scheduler,
	}
}

var _ host.Browser = (*Host)(nil)

// ElementByID implements host.Browser.
func (h *Host) ElementByID(id string) host.Element { return h.Document.ElementByID(id) }

// ActiveElement implements host.Browser.
func (h *Host) ActiveElement() host.Element { return h.Document.ActiveElement() }

// QuerySelectorAll implements host.Browser.
func (h *Host) QuerySelectorAll(selector string) ([]host.Element, error) {
	return h.Document.QuerySelectorAll(selector)
}

// AddEventListener implements host.Browser.
func (h *Host) AddEventListener(target ir.ListenTarget, eventType string, fn func(host.Event), opts host.ListenOptions) (host.Cancel, error) {
	return h.listeners.add(target, eventType, fn, opts)
}

// SetInterval implements host.Browser.
func (h *Host) SetInterval(fn func(), every time.Duration) host.Cancel {
	return h.Scheduler.SetInterval(fn, every)
}

// SetTimeout implements host.Browser.
func (h *Host) SetTimeout(fn func(), after time.Duration) host.Cancel {
	return h.Scheduler.SetTimeout(fn, after)
}

// DispatchEvent implements host.Browser. Element targets must exist.
func (h *Host) DispatchEvent(target ir.EventTarget, init host.EventInit) error {
	spec := EventSpec{Type: init.Type, Bubbles: init.Bubbles, Cancelable: init.Cancelable}
	switch target.Kind {
	case ir.TargetWindow, ir.TargetDocument:
	case ir.TargetElement:
		spec.TargetID = target.ElementID
	default:
		return fmt.Errorf("unknown event target %q", target.Kind)
	}
	h.mu.Lock()
	h.dispatched = append(h.dispatched, spec)
	h.mu.Unlock()
	_, err := h.Fire(spec)
	return err
}

// Dispatched returns the events sent through DispatchEvent.
func (h *Host) Dispatched() []EventSpec {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]EventSpec(nil), h.dispatched...)
}

// Fire delivers a synthetic event to the registered listeners.
func (h *Host) Fire(spec EventSpec) (*Event, error) {
	ev := &Event{
		typ:        spec.Type,
		button:     spec.Button,
		code:       spec.Code,
		ctrl:       spec.Ctrl,
		meta:       spec.Meta,
		cancelable: spec.Cancelable,
		bubbles:    spec.Bubbles,
	}
	if spec.TargetID != "" {
		el := h.Document.ElementByID(spec.TargetID)
		if el == nil {
			return nil, fmt.Errorf("no element with id %q", spec.TargetID)
		}
		ev.target = el.(*Element)
	}
	h.listeners.fire(ev)
	return ev, nil
}

// Listeners returns the live native listener registrations.
func (h *Host) Listeners() []Registration {
	return h.listeners.registrations()
}

// Advance moves virtual time forward, firing due timers.
func (h *Host) Advance(d time.Duration) {
	h.Scheduler.Advance(d)
}

// Render replaces the document body, keeping unmanaged elements.
func (h *Host) Render(markup string) error {
	return h.Document.Render(markup)
}
