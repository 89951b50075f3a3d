package subscription

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/host/memhost"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
	"github.com/roach88/boundary/internal/testutil"
)

const listMarkup = `
<ul id="todos">
  <li class="todo" id="t1"><button class="delete" id="d1">x</button></li>
</ul>
<input id="search">`

type managerFixture struct {
	host   *memhost.Host
	out    *channel.Recorder
	logs   *testutil.LogRecorder
	events *EventManager
}

func newManagerFixture(t *testing.T, cfg logging.Config) *managerFixture {
	t.Helper()
	h, err := memhost.New(memhost.Options{Markup: listMarkup})
	require.NoError(t, err)
	logs := testutil.NewLogRecorder()
	out := &channel.Recorder{}
	return &managerFixture{
		host:   h,
		out:    out,
		logs:   logs,
		events: NewEventManager(h, out, logging.New(logs.Logger(), cfg)),
	}
}

func (f *managerFixture) fire(t *testing.T, spec memhost.EventSpec) *memhost.Event {
	t.Helper()
	ev, err := f.host.Fire(spec)
	require.NoError(t, err)
	return ev
}

func TestMouseButton(t *testing.T) {
	names := []string{"main", "auxiliary", "secondary", "fourth", "fifth"}
	for code, name := range names {
		assert.Equal(t, name, MouseButton(code))
	}
	assert.Empty(t, MouseButton(5))
	assert.Empty(t, MouseButton(-1))
}

func TestMatchers(t *testing.T) {
	tests := []struct {
		name     string
		matchers string
		spec     memhost.EventSpec
		want     bool
	}{
		{"no matchers", `[]`, memhost.EventSpec{Type: "click"}, true},
		{"exact selector", `[{"type":"exactSelector","config":{"selector":".delete"}}]`, memhost.EventSpec{Type: "click", TargetID: "d1"}, true},
		{"exact selector on ancestor", `[{"type":"exactSelector","config":{"selector":".todo"}}]`, memhost.EventSpec{Type: "click", TargetID: "d1"}, false},
		{"exact selector without target", `[{"type":"exactSelector","config":{"selector":".delete"}}]`, memhost.EventSpec{Type: "click"}, false},
		{"closest selector", `[{"type":"closestSelector","config":{"selector":".todo"}}]`, memhost.EventSpec{Type: "click", TargetID: "d1"}, true},
		{"closest selector miss", `[{"type":"closestSelector","config":{"selector":".done"}}]`, memhost.EventSpec{Type: "click", TargetID: "d1"}, false},
		{"mouse button", `[{"type":"mouseButton","config":{"button":"secondary"}}]`, memhost.EventSpec{Type: "click", Button: 2}, true},
		{"mouse button mismatch", `[{"type":"mouseButton","config":{"button":"main"}}]`, memhost.EventSpec{Type: "click", Button: 1}, false},
		{"mouse button unmapped", `[{"type":"mouseButton","config":{"button":"main"}}]`, memhost.EventSpec{Type: "click", Button: 7}, false},
		{"key case-insensitive", `[{"type":"keyboardKey","config":{"key":"KEYK"}}]`, memhost.EventSpec{Type: "click", Code: "KeyK"}, true},
		{"key any", `[{"type":"keyboardKey","config":{"key":"any"}}]`, memhost.EventSpec{Type: "click", Code: "Enter"}, true},
		{"key requires ctrl", `[{"type":"keyboardKey","config":{"key":"KeyK","requiresCtrl":true}}]`, memhost.EventSpec{Type: "click", Code: "KeyK"}, false},
		{"key with ctrl", `[{"type":"keyboardKey","config":{"key":"KeyK","requiresCtrl":true}}]`, memhost.EventSpec{Type: "click", Code: "KeyK", Ctrl: true}, true},
		{"key requires meta", `[{"type":"keyboardKey","config":{"key":"any","requiresMeta":true}}]`, memhost.EventSpec{Type: "click", Code: "KeyK", Ctrl: true}, false},
		{"unknown matcher", `[{"type":"swipe","config":{}}]`, memhost.EventSpec{Type: "click"}, false},
		{"all must pass", `[{"type":"closestSelector","config":{"selector":".todo"}},{"type":"mouseButton","config":{"button":"main"}}]`, memhost.EventSpec{Type: "click", TargetID: "d1", Button: 0}, true},
		{"one failing fails all", `[{"type":"closestSelector","config":{"selector":".todo"}},{"type":"mouseButton","config":{"button":"main"}}]`, memhost.EventSpec{Type: "click", TargetID: "d1", Button: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newManagerFixture(t, logging.DefaultConfig())
			require.NoError(t, f.events.Start(decodeSub(t, listenerJSON("L", `"hit"`, tt.matchers, ""))))

			f.fire(t, tt.spec)

			if tt.want {
				require.Equal(t, 1, f.out.Len())
				assert.Equal(t, ir.IRString("hit"), f.out.Messages()[0].Msg)
			} else {
				assert.Equal(t, 0, f.out.Len())
			}
		})
	}
}

func TestUnknownMatcherWarns(t *testing.T) {
	f := newManagerFixture(t, logging.DefaultConfig())
	require.NoError(t, f.events.Start(decodeSub(t, listenerJSON("L", `1`, `[{"type":"swipe","config":{}}]`, ""))))

	f.fire(t, memhost.EventSpec{Type: "click"})

	entries := f.logs.AtLevel(slog.LevelWarn)
	require.Len(t, entries, 1)
	assert.Equal(t, ir.ErrCodeUnknownMatcherKind, entries[0].Attrs["code"])
}

func TestNoMatchLogsAtVerbose(t *testing.T) {
	cfg := logging.VerboseConfig()
	f := newManagerFixture(t, cfg)
	require.NoError(t, f.events.Start(decodeSub(t, listenerJSON("L", `1`, `[{"type":"mouseButton","config":{"button":"fifth"}}]`, ""))))

	f.fire(t, memhost.EventSpec{Type: "click"})

	assert.Equal(t, 1, f.logs.Count(slog.LevelDebug, "event did not match"))
}

func TestListenerRegistrationOptions(t *testing.T) {
	f := newManagerFixture(t, logging.DefaultConfig())
	require.NoError(t, f.events.Start(decodeSub(t, listenerJSON("passive", `1`, "", ""))))
	require.NoError(t, f.events.Start(decodeSub(t, listenerJSON("active", `1`, "",
		`{"stopPropagation":false,"preventDefault":true}`))))

	regs := f.host.Listeners()
	require.Len(t, regs, 2)
	for _, reg := range regs {
		assert.Equal(t, ir.ListenDocument, reg.Target)
		assert.Equal(t, "click", reg.Type)
		assert.True(t, reg.Options.Capture)
	}
	assert.True(t, regs[0].Options.Passive)
	assert.False(t, regs[1].Options.Passive)
}

func TestPropagationPolicy(t *testing.T) {
	f := newManagerFixture(t, logging.DefaultConfig())
	require.NoError(t, f.events.Start(decodeSub(t, listenerJSON("L", `1`, "",
		`{"stopPropagation":true,"preventDefault":true}`))))

	var windowSaw bool
	_, err := f.host.AddEventListener(ir.ListenWindow, "click", func(host.Event) { windowSaw = true }, host.ListenOptions{})
	require.NoError(t, err)

	ev := f.fire(t, memhost.EventSpec{Type: "click", Cancelable: true})

	assert.True(t, ev.DefaultPrevented())
	assert.True(t, ev.PropagationStopped())
	assert.True(t, windowSaw, "window listeners run before document listeners")
}

func TestMessageCarriesSourceEvent(t *testing.T) {
	f := newManagerFixture(t, logging.DefaultConfig())
	sub := decodeSub(t, `{"type":"eventListener","config":{"id":"L","listenTarget":"document","eventType":"click",
		"matchers":[],"msg":{"type":"effectful","config":{"msg":{"type":"Removed","id":"$CAPTURE_VALUE"},
		"effect":{"type":"dom","config":{"type":"getTargetDataValue","config":{"name":"id"}}}}},
		"propagation":{"stopPropagation":false,"preventDefault":false}}}`)
	require.NoError(t, f.events.Start(sub))

	f.fire(t, memhost.EventSpec{Type: "click", TargetID: "d1"})

	msgs := f.out.Messages()
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Effect)
	assert.Equal(t, ir.EffectDom, msgs[0].Effect.Kind)
	require.NotNil(t, msgs[0].SourceEvent)
	assert.Equal(t, "d1", msgs[0].SourceEvent.Target().ID())
}

func TestStopIsIdempotentAndFinal(t *testing.T) {
	f := newManagerFixture(t, logging.DefaultConfig())
	require.NoError(t, f.events.Start(decodeSub(t, listenerJSON("L", `1`, "", ""))))

	f.events.Stop("L")
	f.events.Stop("L")
	f.events.Stop("never-started")

	f.fire(t, memhost.EventSpec{Type: "click"})
	assert.Equal(t, 0, f.out.Len())
	assert.Empty(t, f.host.Listeners())
	assert.Equal(t, 0, f.events.Len())
}

func TestUnknownListenTarget(t *testing.T) {
	f := newManagerFixture(t, logging.DefaultConfig())
	sub := decodeSub(t, `{"type":"eventListener","config":{"id":"L","listenTarget":"body","eventType":"click",
		"matchers":[],"msg":{"type":"pure","config":1},"propagation":{}}}`)

	err := f.events.Start(sub)

	assert.Error(t, err)
	assert.Equal(t, 1, f.logs.Count(slog.LevelWarn, "unknown listen target"))
	assert.Empty(t, f.host.Listeners())
}

func TestIntervalManager(t *testing.T) {
	h, err := memhost.New(memhost.Options{})
	require.NoError(t, err)
	out := &channel.Recorder{}
	m := NewIntervalManager(h, out, nil)

	require.NoError(t, m.Start(decodeSub(t, intervalJSON("tick", 1000, `{"type":"Tick"}`))))

	h.Advance(3500 * time.Millisecond)
	require.Equal(t, 3, out.Len())
	for _, msg := range out.Messages() {
		assert.True(t, msg.IsPure())
		assert.Nil(t, msg.SourceEvent)
		assert.Equal(t, ir.IRObject{"type": ir.IRString("Tick")}, msg.Msg)
	}

	m.Stop("tick")
	m.Stop("tick")
	h.Advance(5 * time.Second)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, 0, h.Scheduler.Pending())
}

func TestReconcilerWithRealManagers(t *testing.T) {
	h, err := memhost.New(memhost.Options{Markup: listMarkup})
	require.NoError(t, err)
	out := &channel.Recorder{}
	r := NewReconciler(NewEventManager(h, out, nil), NewIntervalManager(h, out, nil), nil)

	r.Reconcile([]ir.Subscription{
		decodeSub(t, listenerJSON("A", `{"x":1}`, "", "")),
		decodeSub(t, intervalJSON("T", 100, `"t"`)),
	})
	require.Len(t, h.Listeners(), 1)

	r.Reconcile([]ir.Subscription{decodeSub(t, listenerJSON("A", `{"x":2}`, "", ""))})
	require.Len(t, h.Listeners(), 1)

	_, err = h.Fire(memhost.EventSpec{Type: "click"})
	require.NoError(t, err)
	h.Advance(time.Second)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, ir.IRObject{"x": ir.IRInt(2)}, out.Messages()[0].Msg)

	r.Close()
	assert.Empty(t, h.Listeners())
}
