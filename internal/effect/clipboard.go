package effect

import (
	"context"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// ClipboardHandler runs clipboard effects. writeText resolves to
// {"success": bool, "error": string|null}.
type ClipboardHandler struct {
	clipboard host.Clipboard
	log       *logging.Logger
}

// NewClipboardHandler creates a ClipboardHandler.
func NewClipboardHandler(clipboard host.Clipboard, log *logging.Logger) *ClipboardHandler {
	return &ClipboardHandler{clipboard: clipboard, log: log}
}

// Handle writes text to the clipboard.
func (h *ClipboardHandler) Handle(_ context.Context, eff ir.Effect, _ host.Event) *Future {
	op, ok := eff.Op.(ir.WriteText)
	if !ok {
		return unknownOp(h.log, logging.Clipboard, eff)
	}
	if h.clipboard == nil {
		return Resolved(writeTextResult(false, "clipboard unavailable"))
	}
	if err := h.clipboard.WriteText(op.Text); err != nil {
		h.log.Error(logging.Clipboard, "failed to write text to clipboard", "error", err)
		return Resolved(writeTextResult(false, err.Error()))
	}
	return Resolved(writeTextResult(true, ""))
}

func writeTextResult(success bool, errMsg string) ir.IRObject {
	var errVal ir.IRValue = ir.IRNull{}
	if errMsg != "" {
		errVal = ir.IRString(errMsg)
	}
	return ir.IRObject{"success": ir.IRBool(success), "error": errVal}
}
