package effect

import (
	"context"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// Handler runs every effect of one kind. src is the native event that
// triggered the effect and may be nil.
type Handler interface {
	Handle(ctx context.Context, eff ir.Effect, src host.Event) *Future
}

// HandlerFuncOf adapts a function to Handler.
type HandlerFuncOf func(ctx context.Context, eff ir.Effect, src host.Event) *Future

// Handle calls f.
func (f HandlerFuncOf) Handle(ctx context.Context, eff ir.Effect, src host.Event) *Future {
	return f(ctx, eff, src)
}

// null is the result of fire-and-forget operations.
func null() *Future { return Resolved(ir.IRNull{}) }

// unknownOp logs an unrecognized sub-operation and yields null.
func unknownOp(log *logging.Logger, domain logging.Domain, eff ir.Effect) *Future {
	name := ""
	if eff.Op != nil {
		name = eff.Op.OpName()
	}
	log.Warn(domain, "unknown "+string(eff.Kind)+" effect type",
		"code", ir.ErrCodeUnknownEffectKind,
		"type", name)
	return null()
}

// unavailable logs a missing host capability and yields null.
func unavailable(log *logging.Logger, domain logging.Domain, capability string, eff ir.Effect) *Future {
	log.Error(domain, "host capability unavailable",
		"capability", capability,
		"effect", eff.String())
	return null()
}
