package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario represents a runtime scenario test case.
// Loaded from YAML files and executed by the harness against the real
// engine and an in-memory host.
type Scenario struct {
	// Name is the scenario identifier (used for golden file naming)
	Name string `yaml:"name"`

	// Description explains what this scenario tests
	Description string `yaml:"description"`

	// Markup is the initial document body, for elements the view does not
	// render (unmanaged inputs, overlay targets).
	Markup string `yaml:"markup,omitempty"`

	// Config tunes the engine and the custom effect channel.
	Config ScenarioConfig `yaml:"config,omitempty"`

	// Storage pre-populates the storage areas before init.
	Storage StorageSeed `yaml:"storage,omitempty"`

	// Core scripts the application core.
	Core CoreScript `yaml:"core"`

	// Steps are executed in order after init. The engine is drained
	// after every step.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions to verify after execution
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioConfig holds per-scenario runtime settings.
type ScenarioConfig struct {
	// MaxCycles overrides the engine cycle quota. Zero keeps the default.
	MaxCycles int `yaml:"maxCycles,omitempty"`

	// UseBacklog buffers custom effects until a consumer is registered.
	// Unset keeps the default (on).
	UseBacklog *bool `yaml:"useBacklog,omitempty"`

	// Fallback is the custom effect fallback: original or null.
	Fallback string `yaml:"fallback,omitempty"`

	// Start is the virtual wall clock start (RFC 3339).
	Start string `yaml:"start,omitempty"`
}

// StorageSeed pre-populates the storage areas.
type StorageSeed struct {
	Local   map[string]string `yaml:"local,omitempty"`
	Session map[string]string `yaml:"session,omitempty"`
}

// CoreScript describes the core under test. Either Command names an
// external core program or the remaining fields script an in-process
// one.
type CoreScript struct {
	// Command runs an external core over the corepipe protocol.
	Command string `yaml:"command,omitempty"`

	Init          OutputScript       `yaml:"init,omitempty"`
	Update        []UpdateRule       `yaml:"update,omitempty"`
	Host          []UpdateRule       `yaml:"host,omitempty"`
	Subscriptions []SubscriptionRule `yaml:"subscriptions,omitempty"`

	// View is the rendered markup. {{model}} is replaced by the canonical
	// JSON of the model, or by the string itself for a string model.
	View string `yaml:"view,omitempty"`
}

// OutputScript is a literal core output.
type OutputScript struct {
	Model   any   `yaml:"model,omitempty"`
	Effects []any `yaml:"effects,omitempty"`
}

// UpdateRule scripts the core's answer to one message tag.
//
// The new model is, in order of precedence: Model, the message field
// named by ModelFrom, the current integer model plus Add, or the
// current model unchanged.
type UpdateRule struct {
	// On is the message tag: the string message itself or the "type"
	// field of an object message. For host rules it is the host message
	// type.
	On string `yaml:"on"`

	Model     any    `yaml:"model,omitempty"`
	ModelFrom string `yaml:"modelFrom,omitempty"`
	Add       int64  `yaml:"add,omitempty"`
	Effects   []any  `yaml:"effects,omitempty"`

	// Error makes the core fail with this message.
	Error string `yaml:"error,omitempty"`
}

// SubscriptionRule declares a subscription while the integer model is
// below Below. A zero Below keeps it declared forever.
type SubscriptionRule struct {
	Below        int64 `yaml:"below,omitempty"`
	Subscription any   `yaml:"subscription"`
}

// Step is one scenario action. Exactly one field must be set.
type Step struct {
	// Deliver sends a pure message.
	Deliver any `yaml:"deliver,omitempty"`

	// Send sends a host message.
	Send *SendStep `yaml:"send,omitempty"`

	// Fire dispatches a native event through the host.
	Fire *FireStep `yaml:"fire,omitempty"`

	// Advance moves the virtual clock, e.g. "1500ms".
	Advance string `yaml:"advance,omitempty"`

	// Consumer registers the custom effect consumer.
	Consumer *ConsumerStep `yaml:"consumer,omitempty"`

	// SetValue changes the value of an input element.
	SetValue *SetValueStep `yaml:"setValue,omitempty"`
}

// SendStep is a host message.
type SendStep struct {
	Type string `yaml:"type"`
	Data any    `yaml:"data,omitempty"`
}

// FireStep is a native event.
type FireStep struct {
	Type       string `yaml:"type"`
	Target     string `yaml:"target,omitempty"`
	Button     int    `yaml:"button,omitempty"`
	Code       string `yaml:"code,omitempty"`
	Ctrl       bool   `yaml:"ctrl,omitempty"`
	Meta       bool   `yaml:"meta,omitempty"`
	Cancelable bool   `yaml:"cancelable,omitempty"`
	Bubbles    bool   `yaml:"bubbles,omitempty"`
}

// ConsumerStep registers a custom effect consumer. With Echo the
// consumer returns the payload; otherwise it returns Result, or fails
// with Error.
type ConsumerStep struct {
	Echo   bool   `yaml:"echo,omitempty"`
	Result any    `yaml:"result,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// SetValueStep sets an input element's value.
type SetValueStep struct {
	ID    string `yaml:"id"`
	Value string `yaml:"value"`
}

// Assertion represents a post-execution check.
type Assertion struct {
	// Type is the assertion kind (see Assert* constants)
	Type string `yaml:"type"`

	// Event is a trace event type, for trace_contains and trace_count
	Event string `yaml:"event,omitempty"`

	// Subject is the trace event subject, for trace_contains and trace_count
	Subject string `yaml:"subject,omitempty"`

	// Detail is matched with subset semantics, for trace_contains
	Detail any `yaml:"detail,omitempty"`

	// Events are "type:subject" keys, for trace_order
	Events []string `yaml:"events,omitempty"`

	// Count is the exact number of occurrences, for trace_count and log_count
	Count int `yaml:"count,omitempty"`

	// Area and Key select a storage item, for storage
	Area string `yaml:"area,omitempty"`
	Key  string `yaml:"key,omitempty"`

	// Level and Contains select log records, for log_count
	Level    string `yaml:"level,omitempty"`
	Contains string `yaml:"contains,omitempty"`

	// Expect is the expected value
	Expect any `yaml:"expect,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalModel    = "final_model"
	AssertConsole       = "console"
	AssertHistory       = "history"
	AssertStorage       = "storage"
	AssertBody          = "body"
	AssertSubscriptions = "subscriptions"
	AssertLogCount      = "log_count"
)

// LoadScenario loads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath loads a scenario and resolves a relative
// core command program against basePath. An empty basePath resolves
// against the scenario file's directory.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath == "" {
		basePath = filepath.Dir(path)
	}
	scenario.Core.Command = resolveCommand(scenario.Core.Command, basePath)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// resolveCommand makes a relative program path (./core.sh) absolute.
// Bare program names are left for PATH lookup.
func resolveCommand(command, basePath string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return command
	}
	prog := fields[0]
	if filepath.IsAbs(prog) || !strings.ContainsRune(prog, filepath.Separator) {
		return command
	}
	fields[0] = filepath.Join(basePath, prog)
	return strings.Join(fields, " ")
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Config.MaxCycles < 0 {
		return fmt.Errorf("config.maxCycles must be non-negative")
	}
	switch s.Config.Fallback {
	case "", "original", "null":
	default:
		return fmt.Errorf("config.fallback: unknown fallback %q", s.Config.Fallback)
	}
	if s.Config.Start != "" {
		if _, err := time.Parse(time.RFC3339, s.Config.Start); err != nil {
			return fmt.Errorf("config.start: %w", err)
		}
	}

	if s.Core.Command != "" && (len(s.Core.Update) > 0 || len(s.Core.Host) > 0 ||
		len(s.Core.Subscriptions) > 0 || s.Core.View != "" || s.Core.Init.Model != nil || len(s.Core.Init.Effects) > 0) {
		return fmt.Errorf("core: command cannot be combined with a scripted core")
	}

	// Validate update rules
	for i, rule := range s.Core.Update {
		if rule.On == "" {
			return fmt.Errorf("core.update[%d]: on is required", i)
		}
	}
	for i, rule := range s.Core.Host {
		if rule.On == "" {
			return fmt.Errorf("core.host[%d]: on is required", i)
		}
	}
	for i, rule := range s.Core.Subscriptions {
		if rule.Subscription == nil {
			return fmt.Errorf("core.subscriptions[%d]: subscription is required", i)
		}
	}

	// Validate steps
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	set := 0
	for _, present := range []bool{
		step.Deliver != nil,
		step.Send != nil,
		step.Fire != nil,
		step.Advance != "",
		step.Consumer != nil,
		step.SetValue != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one action is required, got %d", set)
	}

	switch {
	case step.Send != nil && step.Send.Type == "":
		return fmt.Errorf("send: type is required")
	case step.Fire != nil && step.Fire.Type == "":
		return fmt.Errorf("fire: type is required")
	case step.SetValue != nil && step.SetValue.ID == "":
		return fmt.Errorf("setValue: id is required")
	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("advance: duration must be non-negative")
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
		for _, key := range a.Events {
			if !strings.Contains(key, ":") {
				return fmt.Errorf("assertions[%d]: trace_order event %q must be type:subject", index, key)
			}
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalModel, AssertConsole, AssertHistory, AssertBody, AssertSubscriptions:
		// A missing expect means null or empty.
	case AssertStorage:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for storage", index)
		}
		switch a.Area {
		case "", "local", "session":
		default:
			return fmt.Errorf("assertions[%d]: unknown storage area %q", index, a.Area)
		}
	case AssertLogCount:
		switch a.Level {
		case "warn", "error":
		default:
			return fmt.Errorf("assertions[%d]: level must be warn or error for log_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
