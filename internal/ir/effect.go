package ir

import "fmt"

// EffectKind is the declared tag of an effect.
type EffectKind string

const (
	EffectNone           EffectKind = "none"
	EffectDom            EffectKind = "dom"
	EffectConsole        EffectKind = "console"
	EffectClipboard      EffectKind = "clipboard"
	EffectBrowser        EffectKind = "browser"
	EffectTime           EffectKind = "time"
	EffectNavigation     EffectKind = "navigation"
	EffectLocalStorage   EffectKind = "localStorage"
	EffectSessionStorage EffectKind = "sessionStorage"
	EffectCustom         EffectKind = "custom"
	EffectEffectfulMsg   EffectKind = "effectfulMsg"
)

// HandledEffectKinds lists the kinds that have a handler, in dispatch order.
var HandledEffectKinds = []EffectKind{
	EffectDom,
	EffectConsole,
	EffectClipboard,
	EffectBrowser,
	EffectTime,
	EffectNavigation,
	EffectLocalStorage,
	EffectSessionStorage,
	EffectCustom,
	EffectEffectfulMsg,
}

// Known reports whether k is one of the declared effect kinds.
func (k EffectKind) Known() bool {
	switch k {
	case EffectNone, EffectDom, EffectConsole, EffectClipboard, EffectBrowser,
		EffectTime, EffectNavigation, EffectLocalStorage, EffectSessionStorage,
		EffectCustom, EffectEffectfulMsg:
		return true
	}
	return false
}

// Effect is a declared one-shot side effect.
//
// Config holds the raw payload as declared. Op holds the decoded
// sub-operation for host-backed kinds and is nil for none, custom,
// effectfulMsg and unknown kinds. Msg is set only for effectfulMsg.
type Effect struct {
	Kind   EffectKind
	Config IRValue
	Op     Op
	Msg    *EffectfulMsg
}

// EffectfulMsg is a message whose Effect must run before Msg is delivered.
// The effect result replaces every "$CAPTURE_VALUE" string inside Msg.
type EffectfulMsg struct {
	Msg    IRValue
	Effect Effect
}

// Op is a sealed interface over per-kind sub-operations.
type Op interface {
	OpName() string
	op()
}

// EventTargetKind selects where dispatchEvent sends its event.
type EventTargetKind string

const (
	TargetWindow   EventTargetKind = "window"
	TargetDocument EventTargetKind = "document"
	TargetElement  EventTargetKind = "element"
)

// EventTarget is the target of a dispatched event.
type EventTarget struct {
	Kind      EventTargetKind
	ElementID string
}

// DOM operations.
type (
	DispatchEvent struct {
		Target     EventTarget
		EventType  string
		Bubbles    bool
		Cancelable bool
	}
	FocusElement       struct{ ElementID string }
	SelectInputText    struct{ ElementID string }
	GetWindowSize      struct{}
	GetElementValue    struct {
		ElementID   string
		ParseAsJSON bool
	}
	GetRadioGroupValue struct {
		Selector    string
		ParseAsJSON bool
	}
	GetFiles           struct{ ElementID string }
	GetTargetDataValue struct {
		Name        string
		ParseAsJSON bool
	}
)

// Console, clipboard, browser and time operations.
type (
	ConsoleLog  struct{ Message string }
	WriteText   struct{ Text string }
	SetTimeout  struct{ DurationMS int64 }
	CurrentTime struct{}
)

// Navigation operations. The wire config is the bare URL string.
type (
	PushURL     struct{ URL string }
	ReplaceURL  struct{ URL string }
	SetLocation struct{ URL string }
)

// Storage operations, shared by localStorage and sessionStorage.
type (
	GetItem struct{ Key string }
	SetItem struct {
		Key   string
		Value IRValue
	}
)

// UnknownOp is a sub-operation tag that no handler recognizes.
type UnknownOp struct{ Name string }

func (DispatchEvent) OpName() string      { return "dispatchEvent" }
func (FocusElement) OpName() string       { return "focusElement" }
func (SelectInputText) OpName() string    { return "selectInputText" }
func (GetWindowSize) OpName() string      { return "getWindowSize" }
func (GetElementValue) OpName() string    { return "getElementValue" }
func (GetRadioGroupValue) OpName() string { return "getRadioGroupValue" }
func (GetFiles) OpName() string           { return "getFiles" }
func (GetTargetDataValue) OpName() string { return "getTargetDataValue" }
func (ConsoleLog) OpName() string         { return "log" }
func (WriteText) OpName() string          { return "writeText" }
func (SetTimeout) OpName() string         { return "setTimeout" }
func (CurrentTime) OpName() string        { return "currentTime" }
func (PushURL) OpName() string            { return "pushUrl" }
func (ReplaceURL) OpName() string         { return "replaceUrl" }
func (SetLocation) OpName() string        { return "setLocation" }
func (GetItem) OpName() string            { return "getItem" }
func (SetItem) OpName() string            { return "setItem" }
func (u UnknownOp) OpName() string        { return u.Name }

func (DispatchEvent) op()      {}
func (FocusElement) op()       {}
func (SelectInputText) op()    {}
func (GetWindowSize) op()      {}
func (GetElementValue) op()    {}
func (GetRadioGroupValue) op() {}
func (GetFiles) op()           {}
func (GetTargetDataValue) op() {}
func (ConsoleLog) op()         {}
func (WriteText) op()          {}
func (SetTimeout) op()         {}
func (CurrentTime) op()        {}
func (PushURL) op()            {}
func (ReplaceURL) op()         {}
func (SetLocation) op()        {}
func (GetItem) op()            {}
func (SetItem) op()            {}
func (UnknownOp) op()          {}

// ErrSelfReferentialEffect is returned when a message-with-effect embeds
// an effect of kind none or effectfulMsg.
var ErrSelfReferentialEffect = fmt.Errorf("effectfulMsg cannot embed an effect of kind %q or %q", EffectNone, EffectEffectfulMsg)

// ValidateEffectfulMsg rejects embedded effects that cannot be run on
// their own.
func ValidateEffectfulMsg(m *EffectfulMsg) error {
	if m == nil {
		return fmt.Errorf("effectfulMsg: missing payload")
	}
	switch m.Effect.Kind {
	case EffectNone, EffectEffectfulMsg:
		return ErrSelfReferentialEffect
	}
	return nil
}

// Value converts the effect back to its wire shape.
func (e Effect) Value() IRValue {
	return Tagged(string(e.Kind), e.Config)
}

// String renders the effect as kind or kind/op for logs.
func (e Effect) String() string {
	if e.Op != nil {
		return string(e.Kind) + "/" + e.Op.OpName()
	}
	return string(e.Kind)
}
