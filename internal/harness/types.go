package harness

import (
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/testutil"
)

// Result contains the outcome of running a scenario.
type Result struct {
	// Pass is true if all assertions passed
	Pass bool

	// Trace is the journal the engine recorded, ordered by seq
	Trace []ir.TraceEvent

	// Errors contains assertion failure messages
	Errors []string

	// Model is the model after the last step
	Model ir.IRValue

	// Logs holds every record the runtime logged during the run
	Logs []testutil.LogEntry
}

// NewResult creates a new Result with Pass=true by default.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.TraceEvent{},
		Errors: []string{},
		Model:  ir.IRNull{},
	}
}

// AddError records an error and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}
