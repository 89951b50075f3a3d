package engine

import (
	"context"

	"github.com/roach88/boundary/internal/ir"
)

// Output is what the core returns from Init and every update.
type Output struct {
	Model   ir.IRValue
	Effects []ir.Effect
}

// HostMsg is a message originated by the embedding host rather than by
// a declared subscription or effect.
type HostMsg struct {
	Type string
	Data ir.IRValue
}

// Value renders the message in its {"type", "data"} wire shape.
func (m HostMsg) Value() ir.IRValue {
	data := m.Data
	if data == nil {
		data = ir.IRNull{}
	}
	return ir.IRObject{"type": ir.IRString(m.Type), "data": data}
}

// Core is the pure side of the boundary. The engine owns the model and
// passes it back on every call; the core keeps no state of its own.
type Core interface {
	Init(ctx context.Context) (Output, error)
	Update(ctx context.Context, msg ir.IRValue, model ir.IRValue) (Output, error)
	UpdateFromHost(ctx context.Context, msg HostMsg, model ir.IRValue) (Output, error)
	Subscriptions(ctx context.Context, model ir.IRValue) ([]ir.Subscription, error)
	View(ctx context.Context, model ir.IRValue) (string, error)
}

// FuncCore adapts functions to Core. A nil function keeps the model,
// declares nothing and renders nothing.
type FuncCore struct {
	InitFunc           func(ctx context.Context) (Output, error)
	UpdateFunc         func(ctx context.Context, msg, model ir.IRValue) (Output, error)
	UpdateFromHostFunc func(ctx context.Context, msg HostMsg, model ir.IRValue) (Output, error)
	SubscriptionsFunc  func(ctx context.Context, model ir.IRValue) ([]ir.Subscription, error)
	ViewFunc           func(ctx context.Context, model ir.IRValue) (string, error)
}

var _ Core = (*FuncCore)(nil)

// Init implements Core.
func (c *FuncCore) Init(ctx context.Context) (Output, error) {
	if c.InitFunc == nil {
		return Output{Model: ir.IRNull{}}, nil
	}
	return c.InitFunc(ctx)
}

// Update implements Core.
func (c *FuncCore) Update(ctx context.Context, msg, model ir.IRValue) (Output, error) {
	if c.UpdateFunc == nil {
		return Output{Model: model}, nil
	}
	return c.UpdateFunc(ctx, msg, model)
}

// UpdateFromHost implements Core.
func (c *FuncCore) UpdateFromHost(ctx context.Context, msg HostMsg, model ir.IRValue) (Output, error) {
	if c.UpdateFromHostFunc == nil {
		return Output{Model: model}, nil
	}
	return c.UpdateFromHostFunc(ctx, msg, model)
}

// Subscriptions implements Core.
func (c *FuncCore) Subscriptions(ctx context.Context, model ir.IRValue) ([]ir.Subscription, error) {
	if c.SubscriptionsFunc == nil {
		return nil, nil
	}
	return c.SubscriptionsFunc(ctx, model)
}

// View implements Core.
func (c *FuncCore) View(ctx context.Context, model ir.IRValue) (string, error) {
	if c.ViewFunc == nil {
		return "", nil
	}
	return c.ViewFunc(ctx, model)
}

// Renderer receives the markup produced after every cycle.
type Renderer interface {
	Render(markup string) error
}

// Tracer records the runtime journal. store.Store implements it.
type Tracer interface {
	Record(ctx context.Context, ev ir.TraceEvent) error
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(ctx context.Context, ev ir.TraceEvent) error

// Record calls f.
func (f TracerFunc) Record(ctx context.Context, ev ir.TraceEvent) error {
	return f(ctx, ev)
}
