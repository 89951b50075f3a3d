package ir

// NOTE: These are store-layer types. They are not part of the wire format
// exchanged with the core.

// TraceType classifies a trace record.
type TraceType string

const (
	// TraceCycle records a message entering the core.
	TraceCycle TraceType = "cycle"
	// TraceEffect records an effect handed to its handler.
	TraceEffect TraceType = "effect"
	// TraceResolved records a message-with-effect whose effect resolved.
	TraceResolved TraceType = "resolved"
	// TraceSubscriptionStart records a native listener or timer starting.
	TraceSubscriptionStart TraceType = "subscription_start"
	// TraceSubscriptionStop records a native listener or timer stopping.
	TraceSubscriptionStop TraceType = "subscription_stop"
	// TraceError records a cycle abandoned because the core failed.
	TraceError TraceType = "error"
)

// TraceEvent is one entry of the runtime journal.
type TraceEvent struct {
	Seq     int64     `json:"seq"`      // Logical clock
	CycleID string    `json:"cycle_id"` // Cycle that produced the event
	Type    TraceType `json:"type"`
	Subject string    `json:"subject"` // Effect kind, subscription id or message tag
	Detail  IRValue   `json:"detail"`
}

// Value renders the event as an IR object, the shape golden traces use.
func (e TraceEvent) Value() IRObject {
	detail := e.Detail
	if detail == nil {
		detail = IRNull{}
	}
	return IRObject{
		"seq":     IRInt(e.Seq),
		"cycle":   IRString(e.CycleID),
		"type":    IRString(string(e.Type)),
		"subject": IRString(e.Subject),
		"detail":  detail,
	}
}

// Hash returns the content fingerprint of the event.
func (e TraceEvent) Hash() (string, error) {
	return Fingerprint(DomainTrace, e.Value())
}
