package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/codec"
	"github.com/roach88/boundary/internal/effect"
	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
	"github.com/roach88/boundary/internal/subscription"
)

// DefaultMaxCycles is the default number of cycles the engine runs
// before the queue must go idle.
const DefaultMaxCycles = 1000

// Config holds the collaborators of an Engine. Core and Host are
// required; everything else has a default.
type Config struct {
	Core     Core
	Host     host.Host
	Custom   *effect.Custom
	Logger   *logging.Logger
	Renderer Renderer
	Tracer   Tracer
	IDs      CycleIDGenerator
}

// Engine is the single-writer message loop between the core and the host.
//
// Messages arrive through Deliver (listeners, timers, effectful
// messages) and Send (the embedding host). Each is processed in FIFO
// order by exactly one goroutine, Run or Drain, so the core only ever
// sees one update at a time and the model needs no locking beyond
// publication.
//
// Thread-safety model:
//   - Deliver, Send, Init, OnCustomEffect, Model, Stop: safe from any goroutine
//   - Run, Drain: must be called from exactly one goroutine
type Engine struct {
	core       Core
	dispatcher *effect.Dispatcher
	reconciler *subscription.Reconciler
	custom     *effect.Custom
	renderer   Renderer
	tracer     Tracer
	log        *logging.Logger
	clock      *Clock
	ids        CycleIDGenerator
	queue      *itemQueue
	quota      *QuotaEnforcer
	maxCycles  int
	pending    atomic.Int64

	mu      sync.Mutex
	model   ir.IRValue
	current string // Id of the cycle in progress
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxCycles sets the cycle quota. Zero disables it.
func WithMaxCycles(n int) EngineOption {
	return func(e *Engine) {
		e.maxCycles = n
	}
}

// WithClock sets the logical clock. Used to resume numbering after the
// last event already in a journal.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine and wires the effect dispatcher and the
// subscription reconciler to it.
func New(cfg Config, opts ...EngineOption) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	custom := cfg.Custom
	if custom == nil {
		custom = effect.NewCustom(effect.DefaultCustomConfig(), log)
	}
	ids := cfg.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	e := &Engine{
		core:      cfg.Core,
		custom:    custom,
		renderer:  cfg.Renderer,
		tracer:    cfg.Tracer,
		log:       log,
		clock:     NewClock(),
		ids:       ids,
		queue:     newItemQueue(),
		maxCycles: DefaultMaxCycles,
		model:     ir.IRNull{},
	}

	for _, opt := range opts {
		opt(e)
	}
	e.quota = NewQuotaEnforcer(e.maxCycles)

	e.dispatcher = effect.NewDispatcher(effect.Deps{
		Host:       cfg.Host,
		Channel:    e,
		Custom:     custom,
		JSON:       codec.New(log),
		Logger:     log,
		OnDispatch: e.traceEffect,
	})
	e.reconciler = subscription.NewReconciler(
		subscription.NewEventManager(cfg.Host.Browser, e, log),
		subscription.NewIntervalManager(cfg.Host.Browser, e, log),
		log,
		subscription.WithObserver(e.traceSubscription),
	)

	return e
}

var _ channel.Channel = (*Engine)(nil)

// Init queues the initial cycle.
func (e *Engine) Init() {
	e.enqueue(item{kind: itemInit})
}

// Deliver implements channel.Channel. It only queues the message, so it
// is safe to call from listener callbacks and timer goroutines.
func (e *Engine) Deliver(m channel.Msg) {
	e.enqueue(item{kind: itemMsg, msg: m})
}

// Send queues a host-originated message.
func (e *Engine) Send(msgType string, data ir.IRValue) {
	e.enqueue(item{kind: itemHost, host: HostMsg{Type: msgType, Data: data}})
}

func (e *Engine) enqueue(it item) {
	if !e.queue.Enqueue(it) {
		e.log.Debug(logging.Core, logging.Normal, "engine stopped, dropping message")
	}
}

// OnCustomEffect registers the consumer of custom effects. Buffered
// payloads are handed to fn before it returns.
func (e *Engine) OnCustomEffect(fn effect.HandlerFunc) {
	e.custom.SetHandler(fn)
}

// Model returns the model produced by the last successful cycle.
func (e *Engine) Model() ir.IRValue {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

// Subscriptions returns the ids of the running subscriptions, sorted.
func (e *Engine) Subscriptions() []string {
	return e.reconciler.Active()
}

// Pending returns how many message-with-effect results are outstanding.
func (e *Engine) Pending() int {
	return int(e.pending.Load())
}

// Queued returns how many items wait for the cycle goroutine.
func (e *Engine) Queued() int {
	return e.queue.Len()
}

// Clock returns the logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled, Stop is called, or a fatal error occurs.
//
// ERROR HANDLING: a failing core call is logged and traced, then the
// cycle is abandoned and the loop continues with the previous model.
// Only INVALID_SINGLE_EFFECT and an exceeded cycle quota stop the loop.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Debug(logging.Core, logging.Normal, "engine starting")

	for {
		it, ok := e.queue.TryDequeue()
		if ok {
			if err := e.step(ctx, it); err != nil {
				e.queue.Close()
				return err
			}
			continue
		}
		e.quota.Reset()

		select {
		case <-ctx.Done():
			e.log.Debug(logging.Core, logging.Normal, "engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue, so this case also
			// fires on Stop.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.log.Debug(logging.Core, logging.Normal, "engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain processes queued items until the queue is empty. Results that
// are still pending (timers, custom consumers) are picked up by a later
// Drain once they resolve.
func (e *Engine) Drain(ctx context.Context) error {
	e.quota.Reset()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		it, ok := e.queue.TryDequeue()
		if !ok {
			return nil
		}
		if err := e.step(ctx, it); err != nil {
			return err
		}
	}
}

// Stop closes the queue, which makes Run return. Later messages are
// dropped.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Close stops the engine and tears down every running subscription.
func (e *Engine) Close() {
	e.queue.Close()
	e.reconciler.Close()
}

// step processes one item.
// CRITICAL: called only from the Run or Drain goroutine.
func (e *Engine) step(ctx context.Context, it item) error {
	switch it.kind {
	case itemInit:
		return e.cycle(ctx, e.ids.Generate(), "init", ir.IRNull{}, func(ir.IRValue) (Output, error) {
			return e.core.Init(ctx)
		})

	case itemHost:
		e.log.Debug(logging.Core, logging.Normal, "sending host msg to core", "type", it.host.Type)
		return e.cycle(ctx, e.ids.Generate(), it.host.Type, it.host.Value(), func(model ir.IRValue) (Output, error) {
			return e.core.UpdateFromHost(ctx, it.host, model)
		})

	case itemMsg:
		if !it.msg.IsPure() {
			return e.prepare(ctx, it.msg)
		}
		id := it.cycleID
		if id == "" {
			id = e.ids.Generate()
		}
		if it.resolved != nil {
			e.setCurrent(id)
			e.trace(ctx, ir.TraceResolved, string(it.resolved.Kind), it.value)
		}
		msg := it.msg.Msg
		e.log.Debug(logging.Core, logging.Normal, "sending msg to core", "msg", ir.CanonicalString(msg))
		return e.cycle(ctx, id, msgTag(msg), msg, func(model ir.IRValue) (Output, error) {
			return e.core.Update(ctx, msg, model)
		})
	}
	return fmt.Errorf("unknown item kind: %d", it.kind)
}

// prepare runs the effect of a message-with-effect. When the result
// arrives, the message with every placeholder replaced is queued as a
// pure message. Non-object messages are queued unchanged.
func (e *Engine) prepare(ctx context.Context, m channel.Msg) error {
	id := e.ids.Generate()
	e.setCurrent(id)

	fut, err := e.dispatcher.RunOne(ctx, *m.Effect, m.SourceEvent)
	if err != nil {
		e.log.Error(logging.Core, "cannot run effect of message",
			"code", ir.ErrorCode(err),
			"msg", ir.CanonicalString(m.Msg),
			"error", err)
		e.trace(ctx, ir.TraceError, string(m.Effect.Kind), ir.IRString(err.Error()))
		return fmt.Errorf("prepare message: %w", err)
	}

	e.pending.Add(1)
	eff := *m.Effect
	fut.OnResolve(func(v ir.IRValue) {
		e.enqueue(item{
			kind:     itemMsg,
			msg:      channel.Pure(ir.ReplacePlaceholder(m.Msg, v)),
			cycleID:  id,
			resolved: &eff,
			value:    v,
		})
		e.pending.Add(-1)
	})
	return nil
}

// cycle runs one core call and applies its output: store the model,
// render, reconcile subscriptions, then run the effects.
func (e *Engine) cycle(ctx context.Context, id, subject string, msg ir.IRValue, call func(ir.IRValue) (Output, error)) error {
	if err := e.quota.Check(); err != nil {
		e.log.Error(logging.Core, "max cycles quota exceeded",
			"cycles", e.quota.Current(),
			"limit", e.quota.MaxCycles())
		return fmt.Errorf("quota enforcement failed: %w", err)
	}

	e.setCurrent(id)
	e.trace(ctx, ir.TraceCycle, subject, msg)

	out, err := call(e.Model())
	if err != nil {
		e.log.Error(logging.Core, "core update failed", "cycle", id, "msg", subject, "error", err)
		e.trace(ctx, ir.TraceError, subject, ir.IRString(err.Error()))
		return nil
	}
	if out.Model == nil {
		out.Model = ir.IRNull{}
	}

	e.log.Debug(logging.Core, logging.Normal, "updating model", "cycle", id)
	e.mu.Lock()
	e.model = out.Model
	e.mu.Unlock()

	e.render(ctx, out.Model)

	subs, err := e.core.Subscriptions(ctx, out.Model)
	if err != nil {
		e.log.Error(logging.Core, "core subscriptions failed", "cycle", id, "error", err)
		e.trace(ctx, ir.TraceError, "subscriptions", ir.IRString(err.Error()))
	} else {
		e.reconciler.Reconcile(subs)
	}

	e.dispatcher.HandleBatch(ctx, out.Effects)
	return nil
}

func (e *Engine) render(ctx context.Context, model ir.IRValue) {
	if e.renderer == nil {
		return
	}
	markup, err := e.core.View(ctx, model)
	if err != nil {
		e.log.Error(logging.Core, "core view failed", "error", err)
		e.trace(ctx, ir.TraceError, "view", ir.IRString(err.Error()))
		return
	}
	if err := e.renderer.Render(markup); err != nil {
		e.log.Error(logging.Core, "render failed", "error", err)
		return
	}
	e.log.Debug(logging.Core, logging.Verbose, "updated view with new markup", "markup", markup)
}

func (e *Engine) setCurrent(id string) {
	e.mu.Lock()
	e.current = id
	e.mu.Unlock()
}

func (e *Engine) currentCycle() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) traceEffect(eff ir.Effect) {
	e.trace(context.Background(), ir.TraceEffect, eff.String(), eff.Value())
}

func (e *Engine) traceSubscription(c subscription.Change) {
	typ := ir.TraceSubscriptionStart
	if c.Action == subscription.ActionStop {
		typ = ir.TraceSubscriptionStop
	}
	e.trace(context.Background(), typ, c.ID, ir.IRObject{"kind": ir.IRString(string(c.Kind))})
}

func (e *Engine) trace(ctx context.Context, typ ir.TraceType, subject string, detail ir.IRValue) {
	if e.tracer == nil {
		return
	}
	if detail == nil {
		detail = ir.IRNull{}
	}
	ev := ir.TraceEvent{
		Seq:     e.clock.Next(),
		CycleID: e.currentCycle(),
		Type:    typ,
		Subject: subject,
		Detail:  detail,
	}
	if err := e.tracer.Record(ctx, ev); err != nil {
		e.log.Warn(logging.Core, "failed to record trace event",
			"seq", ev.Seq, "type", string(ev.Type), "error", err)
	}
}

// msgTag names a message for traces: a string message is its own tag,
// an object message uses its "type" field.
func msgTag(v ir.IRValue) string {
	switch m := v.(type) {
	case ir.IRString:
		return string(m)
	case ir.IRObject:
		if t, ok := m["type"].(ir.IRString); ok {
			return string(t)
		}
	}
	return ""
}
