package effect

import (
	"context"

	"github.com/roach88/boundary/internal/codec"
	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// DomHandler runs dom effects.
//
// Reads that cannot find their element log MISSING_TARGET_ELEMENT and
// resolve to null (getFiles resolves to an empty array). Values read
// with parseAsJson resolve to null when the text is not valid JSON.
type DomHandler struct {
	browser host.Browser
	window  host.Window
	json    *codec.JSON
	log     *logging.Logger
}

// NewDomHandler creates a DomHandler.
func NewDomHandler(browser host.Browser, window host.Window, json *codec.JSON, log *logging.Logger) *DomHandler {
	return &DomHandler{browser: browser, window: window, json: json, log: log}
}

// Handle runs one dom operation.
func (h *DomHandler) Handle(_ context.Context, eff ir.Effect, src host.Event) *Future {
	if op, ok := eff.Op.(ir.GetWindowSize); ok {
		return Resolved(h.windowSize(op))
	}
	if h.browser == nil {
		return unavailable(h.log, logging.Dom, "browser", eff)
	}

	switch op := eff.Op.(type) {
	case ir.DispatchEvent:
		h.dispatchEvent(op)
		return null()
	case ir.FocusElement:
		if el := h.browser.ElementByID(op.ElementID); el != nil {
			el.Focus()
		}
		return null()
	case ir.SelectInputText:
		if el := h.browser.ElementByID(op.ElementID); el != nil && el.TagName() == "input" {
			el.Focus()
			el.Select()
		}
		return null()
	case ir.GetElementValue:
		return Resolved(h.elementValue(op))
	case ir.GetRadioGroupValue:
		return Resolved(h.radioGroupValue(op))
	case ir.GetFiles:
		return Resolved(h.files(op))
	case ir.GetTargetDataValue:
		return Resolved(h.targetDataValue(op, src))
	default:
		return unknownOp(h.log, logging.Dom, eff)
	}
}

func (h *DomHandler) dispatchEvent(op ir.DispatchEvent) {
	err := h.browser.DispatchEvent(op.Target, host.EventInit{
		Type:       op.EventType,
		Bubbles:    op.Bubbles,
		Cancelable: op.Cancelable,
	})
	if err != nil {
		h.log.Error(logging.Dom, "failed to dispatch event",
			"target", string(op.Target.Kind),
			"elementId", op.Target.ElementID,
			"eventType", op.EventType,
			"error", err)
	}
}

func (h *DomHandler) windowSize(ir.GetWindowSize) ir.IRValue {
	if h.window == nil {
		h.log.Error(logging.Dom, "host capability unavailable", "capability", "window")
		return ir.IRNull{}
	}
	w, ht := h.window.Size()
	return ir.IRObject{"width": ir.IRInt(w), "height": ir.IRInt(ht)}
}

func (h *DomHandler) elementValue(op ir.GetElementValue) ir.IRValue {
	el := h.browser.ElementByID(op.ElementID)
	if el != nil {
		if raw, ok := el.Value(); ok {
			v := h.readValue(raw, op.ParseAsJSON)
			h.log.Debug(logging.Dom, logging.Normal, "got value from element",
				"elementId", op.ElementID, "value", ir.CanonicalString(v))
			return v
		}
	}
	h.log.Error(logging.Dom, "failed to get value from element",
		"code", ir.ErrCodeMissingTargetElement,
		"elementId", op.ElementID)
	return ir.IRNull{}
}

func (h *DomHandler) radioGroupValue(op ir.GetRadioGroupValue) ir.IRValue {
	elems, err := h.browser.QuerySelectorAll(op.Selector)
	if err != nil {
		h.log.Error(logging.Dom, "failed to get value from radio group",
			"selector", op.Selector, "error", err)
		return ir.IRNull{}
	}
	for _, el := range elems {
		if !el.Checked() {
			continue
		}
		raw, ok := el.Value()
		if !ok {
			h.log.Error(logging.Dom, "failed to get value from radio group",
				"code", ir.ErrCodeMissingTargetElement,
				"selector", op.Selector)
			return ir.IRNull{}
		}
		v := h.readValue(raw, op.ParseAsJSON)
		h.log.Debug(logging.Dom, logging.Normal, "got value from radio group",
			"selector", op.Selector, "value", ir.CanonicalString(v))
		return v
	}
	return ir.IRNull{}
}

func (h *DomHandler) files(op ir.GetFiles) ir.IRValue {
	el := h.browser.ElementByID(op.ElementID)
	if el == nil {
		h.log.Error(logging.Dom, "failed to get files from element",
			"code", ir.ErrCodeMissingTargetElement,
			"elementId", op.ElementID)
		return ir.IRArray{}
	}
	files := el.Files()
	out := make(ir.IRArray, 0, len(files))
	for _, f := range files {
		out = append(out, ir.IRObject{
			"name":         ir.IRString(f.Name),
			"mime":         ir.IRString(f.MIME),
			"size":         ir.IRInt(f.Size),
			"lastModified": ir.IRInt(f.LastModified),
		})
	}
	h.log.Debug(logging.Dom, logging.Normal, "got files from element",
		"elementId", op.ElementID, "count", len(out))
	return out
}

// targetDataValue reads data-<name> from the event target or its
// closest ancestor carrying the attribute. Without a source event the
// result is null.
func (h *DomHandler) targetDataValue(op ir.GetTargetDataValue, src host.Event) ir.IRValue {
	attr := "data-" + op.Name
	if src == nil || src.Target() == nil {
		return ir.IRNull{}
	}
	target, err := src.Target().Closest("[" + attr + "]")
	if err != nil {
		h.log.Error(logging.Dom, "failed to get value from data attribute",
			"attribute", attr, "error", err)
		return ir.IRNull{}
	}
	if target == nil {
		return ir.IRNull{}
	}
	raw, ok := target.Attribute(attr)
	if !ok {
		h.log.Error(logging.Dom, "failed to get value from data attribute",
			"code", ir.ErrCodeMissingTargetElement,
			"attribute", attr)
		return ir.IRNull{}
	}
	v := h.readValue(raw, op.ParseAsJSON)
	h.log.Debug(logging.Dom, logging.Normal, "got value from data attribute",
		"attribute", attr, "value", ir.CanonicalString(v))
	return v
}

func (h *DomHandler) readValue(raw string, parseAsJSON bool) ir.IRValue {
	if !parseAsJSON {
		return ir.IRString(raw)
	}
	v, err := h.json.Decode(raw)
	if err != nil {
		return ir.IRNull{}
	}
	return v
}
