package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/boundary/internal/engine"
	"github.com/roach88/boundary/internal/ir"
)

// scriptCore is an engine.Core driven by a CoreScript.
type scriptCore struct {
	init    engine.Output
	update  map[string]compiledRule
	host    map[string]compiledRule
	subs    []compiledSub
	view    string
	hasView bool
}

type compiledRule struct {
	model     ir.IRValue
	modelFrom string
	add       int64
	effects   []ir.Effect
	err       string
}

type compiledSub struct {
	below int64
	sub   ir.Subscription
}

var _ engine.Core = (*scriptCore)(nil)

// compileScript decodes every literal in the script up front so a
// malformed scenario fails before the engine starts.
func compileScript(s CoreScript) (*scriptCore, error) {
	c := &scriptCore{
		update:  make(map[string]compiledRule, len(s.Update)),
		host:    make(map[string]compiledRule, len(s.Host)),
		view:    s.View,
		hasView: s.View != "",
	}

	model, err := ir.FromAny(s.Init.Model)
	if err != nil {
		return nil, fmt.Errorf("core.init.model: %w", err)
	}
	effects, err := decodeEffects(s.Init.Effects)
	if err != nil {
		return nil, fmt.Errorf("core.init.effects: %w", err)
	}
	c.init = engine.Output{Model: model, Effects: effects}

	for i, rule := range s.Update {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("core.update[%d]: %w", i, err)
		}
		c.update[rule.On] = compiled
	}
	for i, rule := range s.Host {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("core.host[%d]: %w", i, err)
		}
		c.host[rule.On] = compiled
	}

	for i, rule := range s.Subscriptions {
		raw, err := ir.FromAny(rule.Subscription)
		if err != nil {
			return nil, fmt.Errorf("core.subscriptions[%d]: %w", i, err)
		}
		sub, err := ir.DecodeSubscription(raw)
		if err != nil {
			return nil, fmt.Errorf("core.subscriptions[%d]: %w", i, err)
		}
		c.subs = append(c.subs, compiledSub{below: rule.Below, sub: sub})
	}
	return c, nil
}

func compileRule(rule UpdateRule) (compiledRule, error) {
	compiled := compiledRule{modelFrom: rule.ModelFrom, add: rule.Add, err: rule.Error}
	if rule.Model != nil {
		model, err := ir.FromAny(rule.Model)
		if err != nil {
			return compiledRule{}, fmt.Errorf("model: %w", err)
		}
		compiled.model = model
	}
	effects, err := decodeEffects(rule.Effects)
	if err != nil {
		return compiledRule{}, fmt.Errorf("effects: %w", err)
	}
	compiled.effects = effects
	return compiled, nil
}

func decodeEffects(raw []any) ([]ir.Effect, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, err
	}
	return ir.DecodeEffects(v)
}

func (c *scriptCore) Init(context.Context) (engine.Output, error) {
	return c.init, nil
}

func (c *scriptCore) Update(_ context.Context, msg, model ir.IRValue) (engine.Output, error) {
	rule, ok := c.update[messageTag(msg)]
	if !ok {
		return engine.Output{Model: model}, nil
	}
	return rule.apply(msg, model)
}

func (c *scriptCore) UpdateFromHost(_ context.Context, msg engine.HostMsg, model ir.IRValue) (engine.Output, error) {
	rule, ok := c.host[msg.Type]
	if !ok {
		return engine.Output{Model: model}, nil
	}
	return rule.apply(msg.Value(), model)
}

func (c *scriptCore) Subscriptions(_ context.Context, model ir.IRValue) ([]ir.Subscription, error) {
	n, isInt := model.(ir.IRInt)
	subs := make([]ir.Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		if s.below != 0 && isInt && int64(n) >= s.below {
			continue
		}
		subs = append(subs, s.sub)
	}
	return subs, nil
}

func (c *scriptCore) View(_ context.Context, model ir.IRValue) (string, error) {
	if !c.hasView {
		return "", nil
	}
	text := ir.CanonicalString(model)
	if s, ok := model.(ir.IRString); ok {
		text = string(s)
	}
	return strings.ReplaceAll(c.view, "{{model}}", text), nil
}

func (r compiledRule) apply(msg, model ir.IRValue) (engine.Output, error) {
	if r.err != "" {
		return engine.Output{}, errors.New(r.err)
	}

	next := model
	switch {
	case r.model != nil:
		next = r.model
	case r.modelFrom != "":
		obj, ok := msg.(ir.IRObject)
		if !ok {
			return engine.Output{}, fmt.Errorf("modelFrom %q: message is not an object", r.modelFrom)
		}
		v, ok := obj[r.modelFrom]
		if !ok {
			return engine.Output{}, fmt.Errorf("modelFrom %q: field missing from message", r.modelFrom)
		}
		next = v
	case r.add != 0:
		n, ok := model.(ir.IRInt)
		if !ok {
			return engine.Output{}, fmt.Errorf("add: model is %T, not an integer", model)
		}
		next = n + ir.IRInt(r.add)
	}
	return engine.Output{Model: next, Effects: r.effects}, nil
}

// messageTag names a message: a string message is its own tag, an
// object message uses its "type" field.
func messageTag(v ir.IRValue) string {
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
