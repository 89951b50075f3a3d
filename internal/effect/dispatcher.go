// Package effect runs the effects declared by the core against the host.
//
// The Dispatcher groups a batch by kind and runs each group through its
// handler in declared order. RunOne runs a single effect and returns a
// Future, which is how a message-with-effect learns its result. Handler
// failures never escape: they are logged and encoded in the result.
package effect

import (
	"context"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/codec"
	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// Groups is a batch split by kind.
type Groups struct {
	// ByKind holds one FIFO slice per handled kind present in the batch.
	ByKind map[ir.EffectKind][]ir.Effect
	// Unknown holds effects whose kind has no handler, in batch order.
	Unknown []ir.Effect
	// Skipped counts none effects.
	Skipped int
}

// Dispatched returns how many effects will reach a handler.
func (g Groups) Dispatched() int {
	n := 0
	for _, effs := range g.ByKind {
		n += len(effs)
	}
	return n
}

// Group splits effects by kind. It is pure.
func Group(effects []ir.Effect) Groups {
	g := Groups{ByKind: make(map[ir.EffectKind][]ir.Effect)}
	for _, eff := range effects {
		switch {
		case eff.Kind == ir.EffectNone:
			g.Skipped++
		case !eff.Kind.Known():
			g.Unknown = append(g.Unknown, eff)
		default:
			g.ByKind[eff.Kind] = append(g.ByKind[eff.Kind], eff)
		}
	}
	return g
}

// Deps are the collaborators of a Dispatcher.
type Deps struct {
	Host    host.Host
	Channel channel.Channel
	Custom  *Custom
	JSON    *codec.JSON
	Logger  *logging.Logger

	// OnDispatch, if set, observes every effect handed to a handler.
	OnDispatch func(ir.Effect)
}

// Dispatcher routes effects to per-kind handlers.
type Dispatcher struct {
	handlers   map[ir.EffectKind]Handler
	out        channel.Channel
	log        *logging.Logger
	onDispatch func(ir.Effect)
}

// NewDispatcher wires the standard handlers to the host.
func NewDispatcher(deps Deps) *Dispatcher {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	json := deps.JSON
	if json == nil {
		json = codec.New(log)
	}
	custom := deps.Custom
	if custom == nil {
		custom = NewCustom(DefaultCustomConfig(), log)
	}
	h := deps.Host

	d := &Dispatcher{
		out:        deps.Channel,
		log:        log,
		onDispatch: deps.OnDispatch,
	}
	d.handlers = map[ir.EffectKind]Handler{
		ir.EffectDom:            NewDomHandler(h.Browser, h.Window, json, log),
		ir.EffectConsole:        NewConsoleHandler(h.Console, log),
		ir.EffectClipboard:      NewClipboardHandler(h.Clipboard, log),
		ir.EffectBrowser:        NewBrowserHandler(h.Browser, log),
		ir.EffectTime:           NewTimeHandler(h.Clock, log),
		ir.EffectNavigation:     NewNavigationHandler(h.History, h.Location, log),
		ir.EffectLocalStorage:   NewLocalStorageHandler(h.LocalStorage, json, log),
		ir.EffectSessionStorage: NewSessionStorageHandler(h.SessionStorage, json, log),
		ir.EffectCustom: HandlerFuncOf(func(_ context.Context, eff ir.Effect, _ host.Event) *Future {
			return custom.Handle(eff.Config)
		}),
	}
	return d
}

// SetHandler replaces the handler for kind. Tests use it to count calls.
func (d *Dispatcher) SetHandler(kind ir.EffectKind, h Handler) {
	d.handlers[kind] = h
}

// HandleBatch runs every effect in the batch and discards the results.
// none is skipped, unknown kinds are logged and skipped, and effectfulMsg
// entries are delivered to the channel as messages-with-effect.
func (d *Dispatcher) HandleBatch(ctx context.Context, effects []ir.Effect) {
	g := Group(effects)

	for _, eff := range g.Unknown {
		d.log.Warn(logging.Effects, "unknown effect kind",
			"code", ir.ErrCodeUnknownEffectKind,
			"kind", string(eff.Kind))
	}

	for _, kind := range ir.HandledEffectKinds {
		for _, eff := range g.ByKind[kind] {
			if kind == ir.EffectEffectfulMsg {
				d.deliverEffectful(eff)
				continue
			}
			d.run(ctx, eff, nil)
		}
	}
}

func (d *Dispatcher) deliverEffectful(eff ir.Effect) {
	if eff.Msg == nil {
		d.log.Warn(logging.Effects, "effectfulMsg without payload")
		return
	}
	d.notify(eff)
	if d.out == nil {
		d.log.Warn(logging.Effects, "no message channel, dropping effectfulMsg")
		return
	}
	d.out.Deliver(channel.WithEffect(eff.Msg, nil))
}

// RunOne runs a single effect and returns its Future. none and
// effectfulMsg cannot run on their own and return a RuntimeError with
// code INVALID_SINGLE_EFFECT. Unknown kinds are logged and resolve to null.
func (d *Dispatcher) RunOne(ctx context.Context, eff ir.Effect, src host.Event) (*Future, error) {
	switch eff.Kind {
	case ir.EffectNone, ir.EffectEffectfulMsg:
		return nil, ir.NewInvalidSingleEffectError(eff.Kind)
	}
	if _, ok := d.handlers[eff.Kind]; !ok {
		d.log.Warn(logging.Effects, "unknown effect kind",
			"code", ir.ErrCodeUnknownEffectKind,
			"kind", string(eff.Kind))
		return null(), nil
	}
	return d.run(ctx, eff, src), nil
}

func (d *Dispatcher) run(ctx context.Context, eff ir.Effect, src host.Event) *Future {
	d.notify(eff)
	d.log.Debug(logging.Effects, logging.Verbose, "running effect", "effect", eff.String())
	fut := d.handlers[eff.Kind].Handle(ctx, eff, src)
	if fut == nil {
		return null()
	}
	return fut
}

func (d *Dispatcher) notify(eff ir.Effect) {
	if d.onDispatch != nil {
		d.onDispatch(eff)
	}
}
