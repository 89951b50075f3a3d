package harness

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/host/memhost"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Trace    []ir.TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", event.Seq, event.CycleID, eventKey(event), ir.CanonicalString(event.Detail))
		}
	}

	return buf.String()
}

// eventKey is the "type:subject" form trace_order uses.
func eventKey(ev ir.TraceEvent) string {
	return string(ev.Type) + ":" + ev.Subject
}

func eventMatches(ev ir.TraceEvent, a Assertion) bool {
	if string(ev.Type) != a.Event {
		return false
	}
	return a.Subject == "" || ev.Subject == a.Subject
}

func describeEvent(a Assertion) string {
	if a.Subject == "" {
		return a.Event
	}
	return a.Event + ":" + a.Subject
}

// assertTraceContains checks if the trace contains an event of the given
// type and subject whose detail matches (subset match).
func assertTraceContains(trace []ir.TraceEvent, assertion Assertion) error {
	var expected ir.IRValue
	if assertion.Detail != nil {
		v, err := ir.FromAny(assertion.Detail)
		if err != nil {
			return fmt.Errorf("trace_contains detail: %w", err)
		}
		expected = v
	}

	for _, event := range trace {
		if eventMatches(event, assertion) && (expected == nil || matchSubset(event.Detail, expected)) {
			return nil
		}
	}

	want := describeEvent(assertion)
	if expected != nil {
		want += " with detail " + ir.CanonicalString(expected)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if events appear in the specified order.
// Events don't need to be consecutive (intervening events are allowed).
func assertTraceOrder(trace []ir.TraceEvent, assertion Assertion) error {
	// Step 1: Find first position of each expected event
	positions := make(map[string]int)

	for i, event := range trace {
		key := eventKey(event)
		if positions[key] == 0 && slices.Contains(assertion.Events, key) {
			positions[key] = i + 1 // 1-indexed for readability
		}
	}

	// Step 2: Verify all events found
	for _, key := range assertion.Events {
		if positions[key] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all events present: %v", assertion.Events),
				Actual:   fmt.Sprintf("missing event: %s", key),
				Trace:    trace,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Events); i++ {
		prev := assertion.Events[i-1]
		curr := assertion.Events[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the event appears exactly the specified number of times.
func assertTraceCount(trace []ir.TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if eventMatches(event, assertion) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, describeEvent(assertion)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalModel compares the model after the last step.
func assertFinalModel(model ir.IRValue, assertion Assertion) error {
	expected, err := ir.FromAny(assertion.Expect)
	if err != nil {
		return fmt.Errorf("final_model expect: %w", err)
	}
	if !ir.Equal(model, expected) {
		return &AssertionError{
			Type:     AssertFinalModel,
			Expected: ir.CanonicalString(expected),
			Actual:   ir.CanonicalString(model),
		}
	}
	return nil
}

// assertStrings compares a host recorder against the expected list.
func assertStrings(typ string, actual []string, assertion Assertion) error {
	expected, err := stringList(assertion.Expect)
	if err != nil {
		return fmt.Errorf("%s expect: %w", typ, err)
	}
	if actual == nil {
		actual = []string{}
	}
	if !slices.Equal(actual, expected) {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%q", expected),
			Actual:   fmt.Sprintf("%q", actual),
		}
	}
	return nil
}

func stringList(v any) ([]string, error) {
	if v == nil {
		return []string{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("must be a list, got %T", v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("item %d must be a string, got %T", i, item)
		}
		out[i] = s
	}
	return out, nil
}

// assertStorage checks one storage item. A null expect asserts the key
// is absent.
func assertStorage(h *memhost.Host, assertion Assertion) error {
	var area host.Storage = h.LocalStorage
	name := "localStorage"
	if assertion.Area == "session" {
		area, name = h.SessionStorage, "sessionStorage"
	}

	value, ok, err := area.GetItem(assertion.Key)
	if err != nil {
		return fmt.Errorf("storage %s: %w", name, err)
	}

	actual := "(absent)"
	if ok {
		actual = fmt.Sprintf("%q", value)
	}
	expected := "(absent)"
	if assertion.Expect != nil {
		s, isString := assertion.Expect.(string)
		if !isString {
			return fmt.Errorf("storage expect must be a string, got %T", assertion.Expect)
		}
		expected = fmt.Sprintf("%q", s)
	}

	if actual != expected {
		return &AssertionError{
			Type:     AssertStorage,
			Expected: fmt.Sprintf("%s[%q] = %s", name, assertion.Key, expected),
			Actual:   actual,
		}
	}
	return nil
}

// assertBody checks that the rendered body contains the expected text.
func assertBody(h *memhost.Host, assertion Assertion) error {
	want, ok := assertion.Expect.(string)
	if !ok {
		return fmt.Errorf("body expect must be a string, got %T", assertion.Expect)
	}
	body := h.Document.Body()
	if !strings.Contains(body, want) {
		return &AssertionError{
			Type:     AssertBody,
			Expected: fmt.Sprintf("body containing %q", want),
			Actual:   body,
		}
	}
	return nil
}

// assertLogCount counts warnings or errors whose message contains the
// given text.
func assertLogCount(logs *testutil.LogRecorder, assertion Assertion) error {
	level := slog.LevelWarn
	if assertion.Level == "error" {
		level = slog.LevelError
	}
	count := logs.Count(level, assertion.Contains)
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%d %s records containing %q", assertion.Count, assertion.Level, assertion.Contains),
			Actual:   fmt.Sprintf("%d records", count),
		}
	}
	return nil
}

// matchSubset reports whether actual contains expected. Objects match
// when every expected key matches; everything else compares with
// ir.Equal.
func matchSubset(actual, expected ir.IRValue) bool {
	expObj, ok := expected.(ir.IRObject)
	if !ok {
		return ir.Equal(actual, expected)
	}
	actObj, ok := actual.(ir.IRObject)
	if !ok {
		return false
	}
	for key, want := range expObj {
		got, exists := actObj[key]
		if !exists || !matchSubset(got, want) {
			return false
		}
	}
	return true
}

// AssertionContext provides the host state assertions inspect.
type AssertionContext struct {
	Host          *memhost.Host
	Logs          *testutil.LogRecorder
	Subscriptions []string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides host access for recorder assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalModel:
			err = assertFinalModel(result.Model, assertion)
		case AssertConsole, AssertHistory, AssertStorage, AssertBody, AssertSubscriptions, AssertLogCount:
			if actx == nil || actx.Host == nil {
				err = fmt.Errorf("assertion[%d]: %s requires host context", i, assertion.Type)
				break
			}
			err = evaluateHostAssertion(assertion, actx)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func evaluateHostAssertion(assertion Assertion, actx *AssertionContext) error {
	switch assertion.Type {
	case AssertConsole:
		return assertStrings(AssertConsole, actx.Host.Console.Messages(), assertion)
	case AssertHistory:
		return assertStrings(AssertHistory, actx.Host.Nav.History(), assertion)
	case AssertSubscriptions:
		return assertStrings(AssertSubscriptions, actx.Subscriptions, assertion)
	case AssertStorage:
		return assertStorage(actx.Host, assertion)
	case AssertBody:
		return assertBody(actx.Host, assertion)
	case AssertLogCount:
		if actx.Logs == nil {
			return fmt.Errorf("log_count requires a log recorder")
		}
		return assertLogCount(actx.Logs, assertion)
	}
	return fmt.Errorf("unknown host assertion type %q", assertion.Type)
}
