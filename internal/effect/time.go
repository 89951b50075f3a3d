package effect

import (
	"context"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// TimeHandler runs time effects. currentTime resolves to whole seconds
// since the Unix epoch.
type TimeHandler struct {
	clock host.Clock
	log   *logging.Logger
}

// NewTimeHandler creates a TimeHandler. A nil clock uses the system clock.
func NewTimeHandler(clock host.Clock, log *logging.Logger) *TimeHandler {
	if clock == nil {
		clock = host.SystemClock{}
	}
	return &TimeHandler{clock: clock, log: log}
}

// Handle reads the clock.
func (h *TimeHandler) Handle(_ context.Context, eff ir.Effect, _ host.Event) *Future {
	if _, ok := eff.Op.(ir.CurrentTime); !ok {
		return unknownOp(h.log, logging.Time, eff)
	}
	return Resolved(ir.IRInt(floorDiv(h.clock.Now().UnixMilli(), 1000)))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
