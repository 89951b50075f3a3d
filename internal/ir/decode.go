package ir

import (
	"fmt"
	"math"
)

// DecodeTagged splits the {"type": tag, "config": payload} wire shape.
// A missing config decodes as IRNull.
func DecodeTagged(v IRValue) (string, IRValue, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return "", nil, fmt.Errorf("expected tagged object, got %T", v)
	}
	tag, ok := obj["type"].(IRString)
	if !ok {
		return "", nil, fmt.Errorf("tagged object: missing string field \"type\"")
	}
	cfg, ok := obj["config"]
	if !ok || cfg == nil {
		cfg = IRNull{}
	}
	return string(tag), cfg, nil
}

// DecodeEffect decodes one declared effect. Unknown kinds and unknown
// sub-operations decode without error so the dispatcher can report them.
func DecodeEffect(v IRValue) (Effect, error) {
	tag, cfg, err := DecodeTagged(v)
	if err != nil {
		return Effect{}, fmt.Errorf("effect: %w", err)
	}
	eff := Effect{Kind: EffectKind(tag), Config: cfg}

	switch eff.Kind {
	case EffectNone, EffectCustom:
		return eff, nil
	case EffectEffectfulMsg:
		m, err := DecodeEffectfulMsg(cfg)
		if err != nil {
			return Effect{}, fmt.Errorf("effect %s: %w", tag, err)
		}
		eff.Msg = m
		return eff, nil
	case EffectDom, EffectConsole, EffectClipboard, EffectBrowser, EffectTime,
		EffectNavigation, EffectLocalStorage, EffectSessionStorage:
		op, err := decodeOp(eff.Kind, cfg)
		if err != nil {
			return Effect{}, fmt.Errorf("effect %s: %w", tag, err)
		}
		eff.Op = op
		return eff, nil
	default:
		return eff, nil
	}
}

// DecodeEffects decodes an array of declared effects. A null value
// decodes as an empty batch.
func DecodeEffects(v IRValue) ([]Effect, error) {
	if IsNull(v) {
		return nil, nil
	}
	arr, ok := v.(IRArray)
	if !ok {
		return nil, fmt.Errorf("effects: expected array, got %T", v)
	}
	out := make([]Effect, 0, len(arr))
	for i, elem := range arr {
		eff, err := DecodeEffect(elem)
		if err != nil {
			return nil, fmt.Errorf("effects[%d]: %w", i, err)
		}
		out = append(out, eff)
	}
	return out, nil
}

// DecodeEffectfulMsg decodes {msg, effect}. A sourceEvent field, if
// present, is ignored; the runtime attaches the native event itself.
func DecodeEffectfulMsg(v IRValue) (*EffectfulMsg, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return nil, fmt.Errorf("effectfulMsg: expected object, got %T", v)
	}
	rawEffect, ok := obj["effect"]
	if !ok {
		return nil, fmt.Errorf("effectfulMsg: missing field \"effect\"")
	}
	eff, err := DecodeEffect(rawEffect)
	if err != nil {
		return nil, fmt.Errorf("effectfulMsg: %w", err)
	}
	msg, ok := obj["msg"]
	if !ok || msg == nil {
		msg = IRNull{}
	}
	m := &EffectfulMsg{Msg: msg, Effect: eff}
	if err := ValidateEffectfulMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeOp(kind EffectKind, v IRValue) (Op, error) {
	name, cfg, err := DecodeTagged(v)
	if err != nil {
		return nil, err
	}

	switch kind {
	case EffectDom:
		return decodeDomOp(name, cfg)
	case EffectConsole:
		if name != "log" {
			return UnknownOp{Name: name}, nil
		}
		msg, err := stringField(cfg, "message")
		return ConsoleLog{Message: msg}, err
	case EffectClipboard:
		if name != "writeText" {
			return UnknownOp{Name: name}, nil
		}
		text, err := stringField(cfg, "text")
		return WriteText{Text: text}, err
	case EffectBrowser:
		if name != "setTimeout" {
			return UnknownOp{Name: name}, nil
		}
		d, err := intField(cfg, "duration")
		return SetTimeout{DurationMS: d}, err
	case EffectTime:
		if name != "currentTime" {
			return UnknownOp{Name: name}, nil
		}
		return CurrentTime{}, nil
	case EffectNavigation:
		switch name {
		case "pushUrl", "replaceUrl", "setLocation":
		default:
			return UnknownOp{Name: name}, nil
		}
		url, ok := cfg.(IRString)
		if !ok {
			return nil, fmt.Errorf("%s: expected url string, got %T", name, cfg)
		}
		switch name {
		case "pushUrl":
			return PushURL{URL: string(url)}, nil
		case "replaceUrl":
			return ReplaceURL{URL: string(url)}, nil
		}
		return SetLocation{URL: string(url)}, nil
	case EffectLocalStorage, EffectSessionStorage:
		switch name {
		case "getItem":
			key, err := stringField(cfg, "key")
			return GetItem{Key: key}, err
		case "setItem":
			key, err := stringField(cfg, "key")
			if err != nil {
				return nil, err
			}
			obj := cfg.(IRObject)
			val, ok := obj["value"]
			if !ok || val == nil {
				val = IRNull{}
			}
			return SetItem{Key: key, Value: val}, nil
		}
		return UnknownOp{Name: name}, nil
	}
	return UnknownOp{Name: name}, nil
}

func decodeDomOp(name string, cfg IRValue) (Op, error) {
	switch name {
	case "dispatchEvent":
		obj, ok := cfg.(IRObject)
		if !ok {
			return nil, fmt.Errorf("dispatchEvent: expected object, got %T", cfg)
		}
		targetTag, targetCfg, err := DecodeTagged(obj["eventTarget"])
		if err != nil {
			return nil, fmt.Errorf("dispatchEvent.eventTarget: %w", err)
		}
		target := EventTarget{Kind: EventTargetKind(targetTag)}
		if target.Kind == TargetElement {
			if target.ElementID, err = stringField(targetCfg, "elementId"); err != nil {
				return nil, fmt.Errorf("dispatchEvent.eventTarget: %w", err)
			}
		}
		eventType, err := stringField(cfg, "eventType")
		if err != nil {
			return nil, fmt.Errorf("dispatchEvent: %w", err)
		}
		return DispatchEvent{
			Target:     target,
			EventType:  eventType,
			Bubbles:    boolField(cfg, "bubbles"),
			Cancelable: boolField(cfg, "cancelable"),
		}, nil
	case "focusElement":
		id, err := stringField(cfg, "elementId")
		return FocusElement{ElementID: id}, err
	case "selectInputText":
		id, err := stringField(cfg, "elementId")
		return SelectInputText{ElementID: id}, err
	case "getWindowSize":
		return GetWindowSize{}, nil
	case "getElementValue":
		id, err := stringField(cfg, "elementId")
		return GetElementValue{ElementID: id, ParseAsJSON: boolField(cfg, "parseAsJson")}, err
	case "getRadioGroupValue":
		sel, err := stringField(cfg, "selector")
		return GetRadioGroupValue{Selector: sel, ParseAsJSON: boolField(cfg, "parseAsJson")}, err
	case "getFiles":
		id, err := stringField(cfg, "elementId")
		return GetFiles{ElementID: id}, err
	case "getTargetDataValue":
		n, err := stringField(cfg, "name")
		return GetTargetDataValue{Name: n, ParseAsJSON: boolField(cfg, "parseAsJson")}, err
	}
	return UnknownOp{Name: name}, nil
}

// DecodeSubscription decodes one declared subscription. Unknown kinds
// decode without error, keeping the id when one is present.
func DecodeSubscription(v IRValue) (Subscription, error) {
	tag, cfg, err := DecodeTagged(v)
	if err != nil {
		return Subscription{}, fmt.Errorf("subscription: %w", err)
	}
	sub := Subscription{Kind: SubscriptionKind(tag), Config: cfg}
	if obj, ok := cfg.(IRObject); ok {
		if id, ok := obj["id"].(IRString); ok {
			sub.ID = string(id)
		}
	}

	switch sub.Kind {
	case SubscriptionEventListener:
		el, err := decodeEventListener(cfg)
		if err != nil {
			return Subscription{}, fmt.Errorf("subscription %q: %w", sub.ID, err)
		}
		sub.EventListener = el
	case SubscriptionInterval:
		iv, err := decodeInterval(cfg)
		if err != nil {
			return Subscription{}, fmt.Errorf("subscription %q: %w", sub.ID, err)
		}
		sub.Interval = iv
	}
	return sub, nil
}

// DecodeSubscriptions decodes an array of declared subscriptions.
func DecodeSubscriptions(v IRValue) ([]Subscription, error) {
	if IsNull(v) {
		return nil, nil
	}
	arr, ok := v.(IRArray)
	if !ok {
		return nil, fmt.Errorf("subscriptions: expected array, got %T", v)
	}
	out := make([]Subscription, 0, len(arr))
	for i, elem := range arr {
		sub, err := DecodeSubscription(elem)
		if err != nil {
			return nil, fmt.Errorf("subscriptions[%d]: %w", i, err)
		}
		out = append(out, sub)
	}
	return out, nil
}

func decodeEventListener(cfg IRValue) (*EventListener, error) {
	id, err := stringField(cfg, "id")
	if err != nil {
		return nil, err
	}
	target, err := stringField(cfg, "listenTarget")
	if err != nil {
		return nil, err
	}
	eventType, err := stringField(cfg, "eventType")
	if err != nil {
		return nil, err
	}
	obj := cfg.(IRObject)

	var matchers []EventMatcher
	if raw, ok := obj["matchers"]; ok && !IsNull(raw) {
		arr, ok := raw.(IRArray)
		if !ok {
			return nil, fmt.Errorf("matchers: expected array, got %T", raw)
		}
		for i, elem := range arr {
			m, err := decodeMatcher(elem)
			if err != nil {
				return nil, fmt.Errorf("matchers[%d]: %w", i, err)
			}
			matchers = append(matchers, m)
		}
	}

	msg, err := DecodeSubscriptionMsg(obj["msg"])
	if err != nil {
		return nil, err
	}

	var prop Propagation
	if p, ok := obj["propagation"].(IRObject); ok {
		prop.StopPropagation = boolField(p, "stopPropagation")
		prop.PreventDefault = boolField(p, "preventDefault")
	}

	return &EventListener{
		ID:           id,
		ListenTarget: ListenTarget(target),
		EventType:    eventType,
		Matchers:     matchers,
		Msg:          msg,
		Propagation:  prop,
	}, nil
}

func decodeInterval(cfg IRValue) (*Interval, error) {
	id, err := stringField(cfg, "id")
	if err != nil {
		return nil, err
	}
	d, err := intField(cfg, "duration")
	if err != nil {
		return nil, err
	}
	msg, err := DecodeSubscriptionMsg(cfg.(IRObject)["msg"])
	if err != nil {
		return nil, err
	}
	return &Interval{ID: id, DurationMS: d, Msg: msg}, nil
}

// decodeMatcher keeps unknown matcher kinds; they fail at match time.
func decodeMatcher(v IRValue) (EventMatcher, error) {
	tag, cfg, err := DecodeTagged(v)
	if err != nil {
		return EventMatcher{}, err
	}
	m := EventMatcher{Kind: MatcherKind(tag)}
	switch m.Kind {
	case MatchExactSelector, MatchClosestSelector:
		m.Selector, err = stringField(cfg, "selector")
	case MatchMouseButton:
		m.Button, err = stringField(cfg, "button")
	case MatchKeyboardKey:
		m.Key, err = stringField(cfg, "key")
		m.RequiresCtrl = boolField(cfg, "requiresCtrl")
		m.RequiresMeta = boolField(cfg, "requiresMeta")
	}
	if err != nil {
		return EventMatcher{}, fmt.Errorf("%s: %w", tag, err)
	}
	return m, nil
}

// DecodeSubscriptionMsg decodes {"type": "pure"|"effectful", "config": ...}.
func DecodeSubscriptionMsg(v IRValue) (SubscriptionMsg, error) {
	tag, cfg, err := DecodeTagged(v)
	if err != nil {
		return SubscriptionMsg{}, fmt.Errorf("msg: %w", err)
	}
	switch SubscriptionMsgKind(tag) {
	case SubscriptionMsgPure:
		return SubscriptionMsg{Kind: SubscriptionMsgPure, Value: cfg}, nil
	case SubscriptionMsgEffectful:
		m, err := DecodeEffectfulMsg(cfg)
		if err != nil {
			return SubscriptionMsg{}, fmt.Errorf("msg: %w", err)
		}
		return SubscriptionMsg{Kind: SubscriptionMsgEffectful, Value: cfg, Effectful: m}, nil
	}
	return SubscriptionMsg{}, fmt.Errorf("msg: unknown kind %q", tag)
}

func stringField(v IRValue, name string) (string, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return "", fmt.Errorf("expected object with field %q, got %T", name, v)
	}
	s, ok := obj[name].(IRString)
	if !ok {
		return "", fmt.Errorf("missing string field %q", name)
	}
	return string(s), nil
}

func boolField(v IRValue, name string) bool {
	obj, ok := v.(IRObject)
	if !ok {
		return false
	}
	b, _ := obj[name].(IRBool)
	return bool(b)
}

func intField(v IRValue, name string) (int64, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return 0, fmt.Errorf("expected object with field %q, got %T", name, v)
	}
	switch n := obj[name].(type) {
	case IRInt:
		return int64(n), nil
	case IRFloat:
		return int64(math.Floor(float64(n))), nil
	}
	return 0, fmt.Errorf("missing number field %q", name)
}
