// Package corepipe runs the core as an external program.
//
// Every core call starts the program once, writes a single JSON request
// to its stdin and reads a single JSON response from its stdout. The
// core is stateless, since the engine passes the model on every call,
// so no process outlives a call.
//
// Requests:
//
//	{"op": "init"}
//	{"op": "update",         "msg": <msg>, "model": <model>}
//	{"op": "updateFromHost", "msg": {"type": t, "data": d}, "model": <model>}
//	{"op": "subscriptions",  "model": <model>}
//	{"op": "view",           "model": <model>}
//
// Responses are {"model", "effects"} for init and updates,
// {"subscriptions": [...]} and {"markup": "..."} otherwise. Any response
// may instead be {"error": "..."}.
package corepipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/roach88/boundary/internal/engine"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
	"github.com/roach88/boundary/internal/schema"
)

// DefaultTimeout bounds a single core call.
const DefaultTimeout = 10 * time.Second

// Operation names.
const (
	OpInit           = "init"
	OpUpdate         = "update"
	OpUpdateFromHost = "updateFromHost"
	OpSubscriptions  = "subscriptions"
	OpView           = "view"
)

// OutputError reports a response that fails schema validation.
type OutputError struct {
	Op     string
	Errors []schema.ValidationError
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	return fmt.Sprintf("core %s returned invalid output:\n%s", e.Op, schema.Join(e.Errors))
}

// Command is an engine.Core backed by an external program.
type Command struct {
	path      string
	args      []string
	dir       string
	env       []string
	timeout   time.Duration
	validator *schema.Validator
	log       *logging.Logger
}

var _ engine.Core = (*Command)(nil)

// Option configures a Command.
type Option func(*Command)

// WithValidator checks every response against the declarations schema.
func WithValidator(v *schema.Validator) Option {
	return func(c *Command) { c.validator = v }
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Command) { c.timeout = d }
}

// WithDir sets the working directory of the program.
func WithDir(dir string) Option {
	return func(c *Command) { c.dir = dir }
}

// WithEnv adds KEY=VALUE entries to the inherited environment.
func WithEnv(env ...string) Option {
	return func(c *Command) { c.env = append(c.env, env...) }
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Command) { c.log = log }
}

// New creates a Command running path with args.
func New(path string, args []string, opts ...Option) *Command {
	c := &Command{
		path:    path,
		args:    args,
		timeout: DefaultTimeout,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split breaks a command line on whitespace. Quoting is not supported.
func Split(command string) (string, []string, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return "", nil, errors.New("empty core command")
	}
	return parts[0], parts[1:], nil
}

// Init implements engine.Core.
func (c *Command) Init(ctx context.Context) (engine.Output, error) {
	return c.output(ctx, OpInit, ir.IRObject{"op": ir.IRString(OpInit)})
}

// Update implements engine.Core.
func (c *Command) Update(ctx context.Context, msg, model ir.IRValue) (engine.Output, error) {
	return c.output(ctx, OpUpdate, ir.IRObject{
		"op":    ir.IRString(OpUpdate),
		"msg":   orNull(msg),
		"model": orNull(model),
	})
}

// UpdateFromHost implements engine.Core.
func (c *Command) UpdateFromHost(ctx context.Context, msg engine.HostMsg, model ir.IRValue) (engine.Output, error) {
	return c.output(ctx, OpUpdateFromHost, ir.IRObject{
		"op":    ir.IRString(OpUpdateFromHost),
		"msg":   msg.Value(),
		"model": orNull(model),
	})
}

// Subscriptions implements engine.Core.
func (c *Command) Subscriptions(ctx context.Context, model ir.IRValue) ([]ir.Subscription, error) {
	resp, err := c.call(ctx, OpSubscriptions, ir.IRObject{
		"op":    ir.IRString(OpSubscriptions),
		"model": orNull(model),
	})
	if err != nil {
		return nil, err
	}
	raw, ok := resp["subscriptions"]
	if !ok {
		raw = ir.IRArray{}
	}
	if err := c.validate(OpSubscriptions, schema.Subscriptions, raw); err != nil {
		return nil, err
	}
	subs, err := ir.DecodeSubscriptions(raw)
	if err != nil {
		return nil, fmt.Errorf("core %s: %w", OpSubscriptions, err)
	}
	return subs, nil
}

// View implements engine.Core.
func (c *Command) View(ctx context.Context, model ir.IRValue) (string, error) {
	resp, err := c.call(ctx, OpView, ir.IRObject{
		"op":    ir.IRString(OpView),
		"model": orNull(model),
	})
	if err != nil {
		return "", err
	}
	switch markup := resp["markup"].(type) {
	case ir.IRString:
		return string(markup), nil
	case nil, ir.IRNull:
		return "", nil
	default:
		return "", fmt.Errorf("core %s: markup must be a string, got %T", OpView, markup)
	}
}

func (c *Command) output(ctx context.Context, op string, req ir.IRObject) (engine.Output, error) {
	resp, err := c.call(ctx, op, req)
	if err != nil {
		return engine.Output{}, err
	}
	if _, ok := resp["effects"]; !ok {
		resp["effects"] = ir.IRArray{}
	}
	if _, ok := resp["model"]; !ok {
		resp["model"] = ir.IRNull{}
	}
	if err := c.validate(op, schema.Output, resp); err != nil {
		return engine.Output{}, err
	}
	effects, err := ir.DecodeEffects(resp["effects"])
	if err != nil {
		return engine.Output{}, fmt.Errorf("core %s: %w", op, err)
	}
	return engine.Output{Model: resp["model"], Effects: effects}, nil
}

func (c *Command) validate(op string, def schema.Definition, v ir.IRValue) error {
	if c.validator == nil {
		return nil
	}
	if errs := c.validator.Validate(def, v); len(errs) > 0 {
		return &OutputError{Op: op, Errors: errs}
	}
	return nil
}

// call runs the program once for op.
func (c *Command) call(ctx context.Context, op string, req ir.IRObject) (ir.IRObject, error) {
	input, err := ir.MarshalIRValue(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", op, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Dir = c.dir
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debug(logging.Core, logging.Verbose, "calling core", "op", op, "request", string(input))

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("core %s timed out after %s", op, c.timeout)
		}
		errText := strings.TrimSpace(stderr.String())
		if errText == "" {
			errText = err.Error()
		}
		return nil, fmt.Errorf("core %s failed: %s", op, errText)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, fmt.Errorf("core %s returned empty stdout", op)
	}
	v, err := ir.UnmarshalIRValue(out)
	if err != nil {
		return nil, fmt.Errorf("core %s returned invalid json: %w", op, err)
	}
	resp, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("core %s: response must be an object, got %T", op, v)
	}
	if msg, ok := resp["error"]; ok && !ir.IsNull(msg) {
		return nil, fmt.Errorf("core %s: %s", op, describe(msg))
	}

	c.log.Debug(logging.Core, logging.Verbose, "core responded", "op", op, "response", string(out))
	return resp, nil
}

func describe(v ir.IRValue) string {
	if s, ok := v.(ir.IRString); ok {
		return string(s)
	}
	return ir.CanonicalString(v)
}

func orNull(v ir.IRValue) ir.IRValue {
	if v == nil {
		return ir.IRNull{}
	}
	return v
}
