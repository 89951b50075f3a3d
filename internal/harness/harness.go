package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/corepipe"
	"github.com/roach88/boundary/internal/effect"
	"github.com/roach88/boundary/internal/engine"
	"github.com/roach88/boundary/internal/host/memhost"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
	"github.com/roach88/boundary/internal/schema"
	"github.com/roach88/boundary/internal/store"
	"github.com/roach88/boundary/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with sequential cycle ids and a virtual clock so
// the recorded journal is byte-identical across runs.
type Harness struct {
	engine *engine.Engine
	host   *memhost.Host
	logs   *testutil.LogRecorder
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	validate  bool
	store     *store.Store
	persist   bool
	command   string
	timeout   time.Duration
	maxCycles int
	custom    *effect.CustomConfig
	logging   *logging.Config
}

// WithCoreValidation checks every response of an external core against
// the declarations schema.
func WithCoreValidation() Option {
	return func(o *runOptions) { o.validate = true }
}

// WithStore records the journal in st instead of a fresh in-memory
// database. Cycle ids become UUIDv7 and seq resumes after the last
// recorded event, so several runs can share one journal. Result.Trace
// only holds the events of this run.
func WithStore(st *store.Store) Option {
	return func(o *runOptions) { o.store = st }
}

// WithPersistentStorage backs localStorage with the store's "local"
// area. Requires WithStore.
func WithPersistentStorage() Option {
	return func(o *runOptions) { o.persist = true }
}

// WithCoreCommand replaces the scenario's core with an external program.
func WithCoreCommand(command string) Option {
	return func(o *runOptions) { o.command = command }
}

// WithCoreTimeout bounds every call to an external core.
func WithCoreTimeout(d time.Duration) Option {
	return func(o *runOptions) { o.timeout = d }
}

// WithMaxCycles sets the cycle quota used when the scenario does not
// set config.maxCycles.
func WithMaxCycles(n int) Option {
	return func(o *runOptions) { o.maxCycles = n }
}

// WithCustomConfig sets the custom effect defaults. The scenario's
// useBacklog and fallback still take precedence.
func WithCustomConfig(cfg effect.CustomConfig) Option {
	return func(o *runOptions) { o.custom = &cfg }
}

// WithLogging sets the logger filters. Warnings and errors are always
// captured.
func WithLogging(cfg logging.Config) Option {
	return func(o *runOptions) { o.logging = &cfg }
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database and host
// 2. Build the core (scripted or external) and the engine
// 3. Run init, then every step, draining the engine after each
// 4. Read the journal back and evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a context. Cancelling it stops an external
// core mid-call.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.persist && o.store == nil {
		return nil, fmt.Errorf("persistent storage requires a store")
	}

	st := o.store
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}
	startSeq, err := st.LatestSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	h, err := newHarness(scenario, st, startSeq, o)
	if err != nil {
		return nil, err
	}
	defer h.engine.Close()

	h.engine.Init()
	if err := h.drain(ctx); err != nil {
		return nil, fmt.Errorf("failed to run init: %w", err)
	}

	if err := h.executeSteps(ctx, scenario.Steps); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	trace, err := st.QueryTrace(ctx, store.TraceFilter{AfterSeq: startSeq})
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	result := NewResult()
	result.Trace = trace
	result.Model = h.engine.Model()
	result.Logs = h.logs.Entries()

	// Evaluate assertions against the result
	actx := &AssertionContext{
		Host:          h.host,
		Logs:          h.logs,
		Subscriptions: h.engine.Subscriptions(),
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func newHarness(scenario *Scenario, st *store.Store, startSeq int64, o runOptions) (*Harness, error) {
	hostOpts := memhost.Options{Markup: scenario.Markup}
	if scenario.Config.Start != "" {
		start, err := time.Parse(time.RFC3339, scenario.Config.Start)
		if err != nil {
			return nil, fmt.Errorf("config.start: %w", err)
		}
		hostOpts.Start = start
	}
	if o.persist {
		hostOpts.LocalStorage = st.Area("local")
	}
	h, err := memhost.New(hostOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create host: %w", err)
	}
	if err := seedStorage(h, scenario.Storage); err != nil {
		return nil, err
	}

	// Warnings and errors are captured for log_count assertions.
	logs := testutil.NewLogRecorder()
	logCfg := logging.DefaultConfig()
	if o.logging != nil {
		logCfg = *o.logging
	}
	log := logging.New(logs.Logger(), logCfg)

	coreScript := scenario.Core
	if o.command != "" {
		coreScript = CoreScript{Command: o.command}
	}
	core, err := buildCore(coreScript, o, log)
	if err != nil {
		return nil, err
	}

	customCfg := effect.DefaultCustomConfig()
	if o.custom != nil {
		customCfg = *o.custom
	}
	if scenario.Config.UseBacklog != nil {
		customCfg.UseBacklog = *scenario.Config.UseBacklog
	}
	if scenario.Config.Fallback != "" {
		fallback, err := effect.ParseFallback(scenario.Config.Fallback)
		if err != nil {
			return nil, fmt.Errorf("config.fallback: %w", err)
		}
		customCfg.Fallback = fallback
	}

	var engineOpts []engine.EngineOption
	switch {
	case scenario.Config.MaxCycles > 0:
		engineOpts = append(engineOpts, engine.WithMaxCycles(scenario.Config.MaxCycles))
	case o.maxCycles > 0:
		engineOpts = append(engineOpts, engine.WithMaxCycles(o.maxCycles))
	}

	// A shared journal already holds cycle-0001; only a fresh one gets
	// sequential ids.
	var ids engine.CycleIDGenerator = testutil.NewSequentialIDGenerator("cycle")
	if o.store != nil {
		ids = engine.UUIDv7Generator{}
		engineOpts = append(engineOpts, engine.WithClock(engine.NewClockAt(startSeq)))
	}

	eng := engine.New(engine.Config{
		Core:     core,
		Host:     h.Capabilities(),
		Custom:   effect.NewCustom(customCfg, log),
		Logger:   log,
		Renderer: h,
		Tracer:   st,
		IDs:      ids,
	}, engineOpts...)

	return &Harness{engine: eng, host: h, logs: logs}, nil
}

func buildCore(script CoreScript, o runOptions, log *logging.Logger) (engine.Core, error) {
	if script.Command == "" {
		core, err := compileScript(script)
		if err != nil {
			return nil, fmt.Errorf("invalid core script: %w", err)
		}
		return core, nil
	}

	path, args, err := corepipe.Split(script.Command)
	if err != nil {
		return nil, err
	}
	pipeOpts := []corepipe.Option{corepipe.WithLogger(log)}
	if o.timeout > 0 {
		pipeOpts = append(pipeOpts, corepipe.WithTimeout(o.timeout))
	}
	if o.validate {
		v, err := schema.New()
		if err != nil {
			return nil, err
		}
		pipeOpts = append(pipeOpts, corepipe.WithValidator(v))
	}
	return corepipe.New(path, args, pipeOpts...), nil
}

func seedStorage(h *memhost.Host, seed StorageSeed) error {
	for key, value := range seed.Local {
		if err := h.LocalStorage.SetItem(key, value); err != nil {
			return fmt.Errorf("seed localStorage %q: %w", key, err)
		}
	}
	for key, value := range seed.Session {
		if err := h.SessionStorage.SetItem(key, value); err != nil {
			return fmt.Errorf("seed sessionStorage %q: %w", key, err)
		}
	}
	return nil
}

// drain processes everything queued. Results that need the virtual
// clock stay pending until an advance step.
func (h *Harness) drain(ctx context.Context) error {
	return h.engine.Drain(ctx)
}

// executeSteps runs every step and drains the engine after each.
func (h *Harness) executeSteps(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := h.executeStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := h.drain(ctx); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (h *Harness) executeStep(step Step) error {
	switch {
	case step.Deliver != nil:
		msg, err := ir.FromAny(step.Deliver)
		if err != nil {
			return fmt.Errorf("deliver: %w", err)
		}
		h.engine.Deliver(channel.Pure(msg))

	case step.Send != nil:
		data, err := ir.FromAny(step.Send.Data)
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
		h.engine.Send(step.Send.Type, data)

	case step.Fire != nil:
		f := step.Fire
		if _, err := h.host.Fire(memhost.EventSpec{
			Type:       f.Type,
			TargetID:   f.Target,
			Button:     f.Button,
			Code:       f.Code,
			Ctrl:       f.Ctrl,
			Meta:       f.Meta,
			Cancelable: f.Cancelable,
			Bubbles:    f.Bubbles,
		}); err != nil {
			return fmt.Errorf("fire %s: %w", f.Type, err)
		}

	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		h.host.Advance(d)

	case step.Consumer != nil:
		fn, err := consumerFunc(step.Consumer)
		if err != nil {
			return err
		}
		h.engine.OnCustomEffect(fn)

	case step.SetValue != nil:
		if err := h.host.Document.SetValue(step.SetValue.ID, step.SetValue.Value); err != nil {
			return fmt.Errorf("setValue: %w", err)
		}

	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

func consumerFunc(c *ConsumerStep) (effect.HandlerFunc, error) {
	if c.Error != "" {
		msg := c.Error
		return func(ir.IRValue) (ir.IRValue, error) {
			return nil, fmt.Errorf("%s", msg)
		}, nil
	}
	if c.Echo {
		return func(payload ir.IRValue) (ir.IRValue, error) {
			return payload, nil
		}, nil
	}
	result, err := ir.FromAny(c.Result)
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}
	return func(ir.IRValue) (ir.IRValue, error) {
		return result, nil
	}, nil
}
