// Package channel defines the single entry point through which host
// occurrences and resolved effects flow back to the core.
package channel

import (
	"sync"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
)

// Msg is a message bound for the core.
//
// A Msg with a nil Effect is pure. Otherwise Effect must run first and
// its result replaces every "$CAPTURE_VALUE" inside Msg. SourceEvent is
// the native event that produced the message, if any.
type Msg struct {
	Msg         ir.IRValue
	Effect      *ir.Effect
	SourceEvent host.Event
}

// Pure wraps v as a pure message.
func Pure(v ir.IRValue) Msg {
	return Msg{Msg: v}
}

// WithEffect builds a message-with-effect from its declaration.
func WithEffect(m *ir.EffectfulMsg, src host.Event) Msg {
	eff := m.Effect
	return Msg{Msg: m.Msg, Effect: &eff, SourceEvent: src}
}

// FromSubscription converts what a subscription declared into a message.
// Pure subscription messages carry no event.
func FromSubscription(sm ir.SubscriptionMsg, src host.Event) Msg {
	if sm.Kind == ir.SubscriptionMsgEffectful && sm.Effectful != nil {
		return WithEffect(sm.Effectful, src)
	}
	return Pure(sm.Value)
}

// IsPure reports whether the message can go straight to the core.
func (m Msg) IsPure() bool {
	return m.Effect == nil
}

// Channel accepts messages. Implementations must be safe to call from
// any goroutine.
type Channel interface {
	Deliver(Msg)
}

// Func adapts a function to Channel.
type Func func(Msg)

// Deliver calls f(m).
func (f Func) Deliver(m Msg) { f(m) }

// Recorder is a Channel that stores every delivered message. Tests use it
// in place of the engine.
type Recorder struct {
	mu   sync.Mutex
	msgs []Msg
}

// Deliver records m.
func (r *Recorder) Deliver(m Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

// Messages returns a copy of the recorded messages in delivery order.
func (r *Recorder) Messages() []Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Msg, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Len returns the number of recorded messages.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// Reset discards recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}
