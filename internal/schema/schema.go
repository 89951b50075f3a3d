// Package schema validates what the core declares against a CUE schema.
//
// The runtime itself tolerates unknown kinds (they are logged and
// skipped). The schema is stricter: it is what `boundary validate` and
// the external core pipe check against when validation is switched on.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/boundary/internal/ir"
)

//go:embed declarations.cue
var declarationsCUE string

// Definition names a schema entry point.
type Definition string

const (
	Output        Definition = "#Output"
	Effect        Definition = "#Effect"
	Effects       Definition = "#Effects"
	Subscription  Definition = "#Subscription"
	Subscriptions Definition = "#Subscriptions"
)

// Validation error codes (E200-E299)
const (
	ErrMalformedInput  = "E200" // input is not valid JSON
	ErrSchemaViolation = "E201" // input does not satisfy the definition
	ErrUnknownDef      = "E202" // definition not found in the schema
)

// ValidationError is one schema violation.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch {
	case e.Line > 0 && e.Path != "":
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Path, e.Message)
	case e.Path != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Validator checks declarations. It compiles the schema once.
//
// Thread-safety: safe for concurrent use. A cue.Context is not, so calls
// are serialized.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(declarationsCUE, cue.Filename("declarations.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile declarations schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// ValidateJSON checks raw JSON against def. Returns all errors found.
func (v *Validator) ValidateJSON(def Definition, data []byte) []ValidationError {
	v.mu.Lock()
	defer v.mu.Unlock()

	val := v.ctx.CompileBytes(data, cue.Filename("input.json"))
	if err := val.Err(); err != nil {
		return convertErrors(err, ErrMalformedInput)
	}
	return v.unifyLocked(def, val)
}

// Validate checks an IR value against def.
func (v *Validator) Validate(def Definition, value ir.IRValue) []ValidationError {
	data, err := ir.MarshalCanonical(value)
	if err != nil {
		return []ValidationError{{Message: err.Error(), Code: ErrMalformedInput}}
	}
	return v.ValidateJSON(def, data)
}

func (v *Validator) unifyLocked(def Definition, val cue.Value) []ValidationError {
	schema := v.schema.LookupPath(cue.ParsePath(string(def)))
	if !schema.Exists() {
		return []ValidationError{{
			Path:    string(def),
			Message: "definition not found",
			Code:    ErrUnknownDef,
		}}
	}
	if err := schema.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return convertErrors(err, ErrSchemaViolation)
	}
	return nil
}

// convertErrors flattens a CUE error list, keeping the first position of
// each entry.
func convertErrors(err error, code string) []ValidationError {
	list := errors.Errors(err)
	if len(list) == 0 {
		return []ValidationError{{Message: err.Error(), Code: code}}
	}
	out := make([]ValidationError, 0, len(list))
	for _, e := range list {
		ve := ValidationError{
			Path:    strings.Join(e.Path(), "."),
			Message: strings.TrimSpace(msgOf(e)),
			Code:    code,
		}
		if positions := errors.Positions(e); len(positions) > 0 {
			for _, pos := range positions {
				if pos.Filename() == "input.json" {
					ve.Line = pos.Line()
					break
				}
			}
		}
		out = append(out, ve)
	}
	return out
}

func msgOf(e errors.Error) string {
	format, args := e.Msg()
	return fmt.Sprintf(format, args...)
}

// Join renders errors one per line.
func Join(errs []ValidationError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}
