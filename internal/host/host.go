// Package host defines the capabilities the runtime consumes from its
// environment: element lookup, native event and timer registration,
// storage, clipboard, console, navigation and the clock.
//
// Each contract is small on purpose so tests can supply fakes. Long-lived
// registrations return a Cancel handle. The in-memory implementation
// lives in package memhost.
package host

import (
	"sync"
	"time"

	"github.com/roach88/boundary/internal/ir"
)

// Cancel releases a long-lived native resource. Cancel must be idempotent
// and no further callbacks may run once it returns.
type Cancel interface {
	Cancel()
}

// CancelFunc adapts fn into a Cancel that runs fn at most once.
func CancelFunc(fn func()) Cancel {
	return &onceCancel{fn: fn}
}

type onceCancel struct {
	once sync.Once
	fn   func()
}

func (c *onceCancel) Cancel() {
	c.once.Do(func() {
		if c.fn != nil {
			c.fn()
		}
	})
}

// ListenOptions are the registration flags of a native listener.
type ListenOptions struct {
	Capture bool
	Passive bool
}

// EventInit describes an event created by the dispatchEvent effect.
type EventInit struct {
	Type       string
	Bubbles    bool
	Cancelable bool
}

// Browser is the DOM-facing capability.
type Browser interface {
	// ElementByID returns nil when no element has the id.
	ElementByID(id string) Element
	ActiveElement() Element
	QuerySelectorAll(selector string) ([]Element, error)
	AddEventListener(target ir.ListenTarget, eventType string, fn func(Event), opts ListenOptions) (Cancel, error)
	SetInterval(fn func(), every time.Duration) Cancel
	SetTimeout(fn func(), after time.Duration) Cancel
	DispatchEvent(target ir.EventTarget, ev EventInit) error
}

// Element is a DOM element.
type Element interface {
	ID() string
	TagName() string
	Matches(selector string) (bool, error)
	// Closest returns the element itself or its nearest ancestor matching
	// selector, or nil.
	Closest(selector string) (Element, error)
	Attribute(name string) (string, bool)
	// Value reports false for elements without a value property.
	Value() (string, bool)
	Checked() bool
	Files() []File
	Focus()
	// Select selects the text of an input; it reports false for
	// non-input elements.
	Select() bool
}

// File is the metadata of a file chosen in a file input.
type File struct {
	Name         string
	MIME         string
	Size         int64
	LastModified int64
}

// Event is a native event delivered to a listener.
type Event interface {
	Type() string
	// Target is nil when the event was dispatched on window or document.
	Target() Element
	Button() int
	Code() string
	CtrlKey() bool
	MetaKey() bool
	PreventDefault()
	StopPropagation()
}

// Window reports the viewport size.
type Window interface {
	Size() (width, height int)
}

// Storage is a string-valued key/value area.
type Storage interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(text string) error
}

// Console receives log effects.
type Console interface {
	Log(message string)
}

// History manipulates the session history.
type History interface {
	PushURL(url string) error
	ReplaceURL(url string) error
}

// Location navigates away from the current document.
type Location interface {
	Assign(url string) error
}

// Clock reads wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Host bundles every capability consumed by the effect handlers and
// subscription managers.
type Host struct {
	Browser        Browser
	Window         Window
	LocalStorage   Storage
	SessionStorage Storage
	Clipboard      Clipboard
	Console        Console
	History        History
	Location       Location
	Clock          Clock
}
