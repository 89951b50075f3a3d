package effect

import (
	"context"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// NavigationHandler runs navigation effects against history and location.
type NavigationHandler struct {
	history  host.History
	location host.Location
	log      *logging.Logger
}

// NewNavigationHandler creates a NavigationHandler.
func NewNavigationHandler(history host.History, location host.Location, log *logging.Logger) *NavigationHandler {
	return &NavigationHandler{history: history, location: location, log: log}
}

// Handle navigates. Host failures are logged and the result is null.
func (h *NavigationHandler) Handle(_ context.Context, eff ir.Effect, _ host.Event) *Future {
	var (
		url string
		err error
	)
	switch op := eff.Op.(type) {
	case ir.PushURL:
		if h.history == nil {
			return unavailable(h.log, logging.Navigation, "history", eff)
		}
		url, err = op.URL, h.history.PushURL(op.URL)
	case ir.ReplaceURL:
		if h.history == nil {
			return unavailable(h.log, logging.Navigation, "history", eff)
		}
		url, err = op.URL, h.history.ReplaceURL(op.URL)
	case ir.SetLocation:
		if h.location == nil {
			return unavailable(h.log, logging.Navigation, "location", eff)
		}
		url, err = op.URL, h.location.Assign(op.URL)
	default:
		return unknownOp(h.log, logging.Navigation, eff)
	}

	if err != nil {
		h.log.Error(logging.Navigation, "navigation failed", "op", eff.Op.OpName(), "url", url, "error", err)
	}
	return null()
}
