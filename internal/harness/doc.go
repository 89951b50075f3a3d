// Package harness runs runtime scenarios against the real engine.
//
// A scenario scripts a core, drives the engine through an in-memory
// host, and checks the recorded journal and host state afterwards.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	markup: '<input id="name">'
//	config:
//	  maxCycles: 50
//	  fallback: original
//	storage:
//	  local: { theme: dark }
//	core:
//	  init:
//	    model: 0
//	    effects: [...]
//	  update:
//	    - on: inc
//	      add: 1
//	      effects: [...]
//	    - on: gotTime
//	      modelFrom: time
//	  host:
//	    - on: reset
//	      modelFrom: data
//	  subscriptions:
//	    - below: 3
//	      subscription: { type: interval, config: {...} }
//	  view: '<p id="count">{{model}}</p>'
//	steps:
//	  - deliver: inc
//	  - send: { type: reset, data: 0 }
//	  - fire: { type: click, target: go, bubbles: true }
//	  - advance: 1500ms
//	  - consumer: { echo: true }
//	assertions:
//	  - type: trace_contains
//	    event: effect
//	    subject: console/log
//	  - type: final_model
//	    expect: 3
//
// Instead of a script, core.command runs an external core program over
// the corepipe protocol.
//
// # Assertion Types
//
//   - trace_contains: an event of the type (and subject) is in the trace, detail matched as a subset
//   - trace_order: "type:subject" events appear in the given order
//   - trace_count: an event appears exactly N times
//   - final_model: the model after the last step
//   - console, history, subscriptions: exact string lists from the host
//   - storage: one localStorage or sessionStorage item
//   - body: the rendered document contains a fragment
//   - log_count: warnings or errors whose message contains a fragment
//
// # Deterministic Testing
//
// The harness uses:
//   - Sequential cycle ids (testutil.SequentialIDGenerator)
//   - A virtual wall clock that only moves on advance steps
//   - In-memory SQLite database as the journal (isolated per run)
//
// This ensures identical traces across runs for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/counter.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
