package effect

import (
	"context"

	"github.com/roach88/boundary/internal/codec"
	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// StorageHandler runs localStorage or sessionStorage effects. Values are
// stored JSON-encoded.
type StorageHandler struct {
	area   string
	domain logging.Domain
	store  host.Storage
	json   *codec.JSON
	log    *logging.Logger
}

// NewLocalStorageHandler creates the localStorage handler.
func NewLocalStorageHandler(store host.Storage, json *codec.JSON, log *logging.Logger) *StorageHandler {
	return &StorageHandler{area: "localStorage", domain: logging.LocalStorage, store: store, json: json, log: log}
}

// NewSessionStorageHandler creates the sessionStorage handler.
func NewSessionStorageHandler(store host.Storage, json *codec.JSON, log *logging.Logger) *StorageHandler {
	return &StorageHandler{area: "sessionStorage", domain: logging.SessionStorage, store: store, json: json, log: log}
}

// Handle reads or writes one key. getItem resolves to the decoded value
// or null; setItem resolves to a success flag.
func (h *StorageHandler) Handle(_ context.Context, eff ir.Effect, _ host.Event) *Future {
	switch op := eff.Op.(type) {
	case ir.GetItem:
		return Resolved(h.getItem(op.Key))
	case ir.SetItem:
		return Resolved(ir.IRBool(h.setItem(op.Key, op.Value)))
	default:
		return unknownOp(h.log, h.domain, eff)
	}
}

func (h *StorageHandler) getItem(key string) ir.IRValue {
	if h.store == nil {
		h.log.Error(h.domain, "host capability unavailable", "capability", h.area)
		return ir.IRNull{}
	}
	raw, ok, err := h.store.GetItem(key)
	if err != nil {
		h.log.Error(h.domain, "failed to read value from "+h.area, "key", key, "error", err)
		return ir.IRNull{}
	}
	if !ok {
		return ir.IRNull{}
	}
	v, err := h.json.Decode(raw)
	if err != nil {
		return ir.IRNull{}
	}
	h.log.Debug(h.domain, logging.Normal, "read value from "+h.area, "key", key, "value", raw)
	return v
}

func (h *StorageHandler) setItem(key string, value ir.IRValue) bool {
	if h.store == nil {
		h.log.Error(h.domain, "host capability unavailable", "capability", h.area)
		return false
	}
	encoded, err := h.json.Encode(value)
	if err != nil {
		return false
	}
	if err := h.store.SetItem(key, encoded); err != nil {
		h.log.Error(h.domain, "failed to save value to "+h.area,
			"code", ir.ErrCodeStorageWriteFailure,
			"key", key,
			"value", encoded,
			"error", err)
		return false
	}
	h.log.Debug(h.domain, logging.Normal, "saved value to "+h.area, "key", key, "value", encoded)
	return true
}
