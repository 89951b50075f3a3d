package effect

import (
	"context"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// ConsoleHandler runs console effects.
type ConsoleHandler struct {
	console host.Console
	log     *logging.Logger
}

// NewConsoleHandler creates a ConsoleHandler.
func NewConsoleHandler(console host.Console, log *logging.Logger) *ConsoleHandler {
	return &ConsoleHandler{console: console, log: log}
}

// Handle writes log messages to the host console.
func (h *ConsoleHandler) Handle(_ context.Context, eff ir.Effect, _ host.Event) *Future {
	op, ok := eff.Op.(ir.ConsoleLog)
	if !ok {
		return unknownOp(h.log, logging.Console, eff)
	}
	if h.console == nil {
		return unavailable(h.log, logging.Console, "console", eff)
	}
	h.console.Log(op.Message)
	return null()
}
