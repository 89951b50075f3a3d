package ir

// SubscriptionKind is the declared tag of a subscription.
type SubscriptionKind string

const (
	SubscriptionNone          SubscriptionKind = "none"
	SubscriptionEventListener SubscriptionKind = "eventListener"
	SubscriptionInterval      SubscriptionKind = "interval"
)

// Subscription is a declared long-lived intent.
//
// Config is the raw declaration payload. The reconciler compares it
// structurally to decide whether an active subscription is kept.
type Subscription struct {
	Kind          SubscriptionKind
	ID            string
	Config        IRValue
	EventListener *EventListener
	Interval      *Interval
}

// ListenTarget is where an event listener is registered.
type ListenTarget string

const (
	ListenWindow   ListenTarget = "window"
	ListenDocument ListenTarget = "document"
)

// EventListener declares a native event listener.
type EventListener struct {
	ID           string
	ListenTarget ListenTarget
	EventType    string
	Matchers     []EventMatcher
	Msg          SubscriptionMsg
	Propagation  Propagation
}

// Interval declares a periodic timer.
type Interval struct {
	ID         string
	DurationMS int64
	Msg        SubscriptionMsg
}

// MatcherKind is the declared tag of an event matcher.
type MatcherKind string

const (
	MatchExactSelector   MatcherKind = "exactSelector"
	MatchClosestSelector MatcherKind = "closestSelector"
	MatchMouseButton     MatcherKind = "mouseButton"
	MatchKeyboardKey     MatcherKind = "keyboardKey"
)

// EventMatcher is a predicate over a native event. Only the fields for
// Kind are meaningful.
type EventMatcher struct {
	Kind         MatcherKind
	Selector     string
	Button       string
	Key          string
	RequiresCtrl bool
	RequiresMeta bool
}

// Propagation is the policy applied to a matched event.
type Propagation struct {
	StopPropagation bool
	PreventDefault  bool
}

// SubscriptionMsgKind distinguishes pure from effectful subscription messages.
type SubscriptionMsgKind string

const (
	SubscriptionMsgPure      SubscriptionMsgKind = "pure"
	SubscriptionMsgEffectful SubscriptionMsgKind = "effectful"
)

// SubscriptionMsg is the message a subscription emits on each occurrence.
type SubscriptionMsg struct {
	Kind      SubscriptionMsgKind
	Value     IRValue
	Effectful *EffectfulMsg
}

// Value converts the subscription back to its wire shape.
func (s Subscription) Value() IRValue {
	return Tagged(string(s.Kind), s.Config)
}
