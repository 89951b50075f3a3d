package effect

import (
	"context"
	"time"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// BrowserHandler runs browser effects. setTimeout resolves with null
// once the host timer fires.
type BrowserHandler struct {
	browser host.Browser
	log     *logging.Logger
}

// NewBrowserHandler creates a BrowserHandler.
func NewBrowserHandler(browser host.Browser, log *logging.Logger) *BrowserHandler {
	return &BrowserHandler{browser: browser, log: log}
}

// Handle schedules the timeout.
func (h *BrowserHandler) Handle(_ context.Context, eff ir.Effect, _ host.Event) *Future {
	op, ok := eff.Op.(ir.SetTimeout)
	if !ok {
		return unknownOp(h.log, logging.Browser, eff)
	}
	if h.browser == nil {
		return unavailable(h.log, logging.Browser, "browser", eff)
	}

	fut, resolve := Pending()
	h.browser.SetTimeout(func() {
		h.log.Debug(logging.Browser, logging.Verbose, "timeout fired", "duration_ms", op.DurationMS)
		resolve(ir.IRNull{})
	}, time.Duration(op.DurationMS)*time.Millisecond)
	return fut
}
