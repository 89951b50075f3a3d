package memhost

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
)

const page = `
<form id="form">
  <input id="name" value="Ada">
  <textarea id="bio">hello</textarea>
  <input type="radio" name="size" class="size" value="s">
  <input type="radio" name="size" class="size" value="m" checked>
  <ul id="list"><li data-id="7"><span id="label">seven</span></li></ul>
  <div id="box"></div>
</form>`

func newHost(t *testing.T) *Host {
	t.Helper()
	h, err := New(Options{Markup: page})
	require.NoError(t, err)
	return h
}

func TestElementLookupAndValues(t *testing.T) {
	h := newHost(t)

	name := h.ElementByID("name")
	require.NotNil(t, name)
	v, ok := name.Value()
	assert.True(t, ok)
	assert.Equal(t, "Ada", v)

	bio, ok := h.ElementByID("bio").Value()
	assert.True(t, ok)
	assert.Equal(t, "hello", bio)

	_, ok = h.ElementByID("box").Value()
	assert.False(t, ok)

	assert.Nil(t, h.ElementByID("missing"))
}

func TestQuerySelectorAllAndChecked(t *testing.T) {
	h := newHost(t)

	radios, err := h.QuerySelectorAll("input.size")
	require.NoError(t, err)
	require.Len(t, radios, 2)
	assert.False(t, radios[0].Checked())
	assert.True(t, radios[1].Checked())

	require.NoError(t, h.Document.SetChecked("name", true))
	assert.True(t, h.ElementByID("name").Checked())

	_, err = h.QuerySelectorAll("[[")
	assert.Error(t, err)
}

func TestClosest(t *testing.T) {
	h := newHost(t)

	label := h.ElementByID("label")
	li, err := label.Closest("[data-id]")
	require.NoError(t, err)
	require.NotNil(t, li)
	id, ok := li.Attribute("data-id")
	assert.True(t, ok)
	assert.Equal(t, "7", id)

	self, err := label.Closest("span")
	require.NoError(t, err)
	assert.Equal(t, "label", self.ID())

	none, err := label.Closest("table")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFocusAndSelect(t *testing.T) {
	h := newHost(t)

	h.ElementByID("name").Focus()
	assert.Equal(t, "name", h.ActiveElement().ID())

	assert.True(t, h.ElementByID("name").Select())
	assert.False(t, h.ElementByID("box").Select())
	assert.Equal(t, "name", h.Document.SelectedElement().ID())
}

func TestRenderKeepsUnmanaged(t *testing.T) {
	h, err := New(Options{Markup: `<div id="editor" unmanaged><input id="draft" value="typed"></div><p id="count">1</p>`})
	require.NoError(t, err)
	h.ElementByID("draft").Focus()

	require.NoError(t, h.Render(`<div id="editor" unmanaged></div><p id="count">2</p>`))

	v, ok := h.ElementByID("draft").Value()
	assert.True(t, ok)
	assert.Equal(t, "typed", v)
	assert.Contains(t, h.Document.Body(), `<p id="count">2</p>`)
	assert.Equal(t, "draft", h.ActiveElement().ID())

	require.NoError(t, h.Render(`<p id="count">3</p>`))
	assert.Nil(t, h.ElementByID("draft"))
	assert.Nil(t, h.ActiveElement())
}

func TestFireOrderAndStopPropagation(t *testing.T) {
	h := newHost(t)
	var order []string

	_, err := h.AddEventListener(ir.ListenWindow, "click", func(e host.Event) {
		order = append(order, "window")
		e.StopPropagation()
	}, host.ListenOptions{Capture: true})
	require.NoError(t, err)
	_, err = h.AddEventListener(ir.ListenDocument, "click", func(host.Event) {
		order = append(order, "document")
	}, host.ListenOptions{Capture: true})
	require.NoError(t, err)

	ev, err := h.Fire(EventSpec{Type: "click", TargetID: "label"})
	require.NoError(t, err)

	assert.Equal(t, []string{"window"}, order)
	assert.True(t, ev.PropagationStopped())
	assert.Equal(t, "label", ev.Target().ID())
}

func TestPassiveListenerCannotPreventDefault(t *testing.T) {
	h := newHost(t)

	_, err := h.AddEventListener(ir.ListenDocument, "wheel", func(e host.Event) { e.PreventDefault() },
		host.ListenOptions{Capture: true, Passive: true})
	require.NoError(t, err)

	ev, err := h.Fire(EventSpec{Type: "wheel", Cancelable: true})
	require.NoError(t, err)
	assert.False(t, ev.DefaultPrevented())
	assert.Equal(t, 1, ev.IgnoredPreventDefaults())
	assert.Nil(t, ev.Target())
}

func TestCancelListener(t *testing.T) {
	h := newHost(t)
	calls := 0

	cancel, err := h.AddEventListener(ir.ListenWindow, "keydown", func(host.Event) { calls++ }, host.ListenOptions{})
	require.NoError(t, err)
	require.Len(t, h.Listeners(), 1)

	cancel.Cancel()
	cancel.Cancel()
	_, err = h.Fire(EventSpec{Type: "keydown"})
	require.NoError(t, err)

	assert.Equal(t, 0, calls)
	assert.Empty(t, h.Listeners())
}

func TestUnknownListenTarget(t *testing.T) {
	h := newHost(t)
	_, err := h.AddEventListener("body", "click", func(host.Event) {}, host.ListenOptions{})
	assert.Error(t, err)
}

func TestScheduler(t *testing.T) {
	s := NewScheduler(DefaultEpoch)
	var fired []string

	s.SetTimeout(func() { fired = append(fired, "timeout") }, 150*time.Millisecond)
	stop := s.SetInterval(func() { fired = append(fired, "tick") }, 100*time.Millisecond)

	s.Advance(250 * time.Millisecond)
	assert.Equal(t, []string{"tick", "timeout", "tick"}, fired)
	assert.Equal(t, DefaultEpoch.Add(250*time.Millisecond), s.Now())

	stop.Cancel()
	s.Advance(time.Second)
	assert.Len(t, fired, 3)
	assert.Equal(t, 0, s.Pending())
}

func TestDispatchEvent(t *testing.T) {
	h := newHost(t)
	var got []string
	_, err := h.AddEventListener(ir.ListenDocument, "change", func(e host.Event) {
		got = append(got, e.Target().ID())
	}, host.ListenOptions{})
	require.NoError(t, err)

	require.NoError(t, h.DispatchEvent(ir.EventTarget{Kind: ir.TargetElement, ElementID: "name"}, host.EventInit{Type: "change", Bubbles: true}))
	assert.Equal(t, []string{"name"}, got)
	assert.Len(t, h.Dispatched(), 1)

	assert.Error(t, h.DispatchEvent(ir.EventTarget{Kind: ir.TargetElement, ElementID: "nope"}, host.EventInit{Type: "change"}))
	assert.Error(t, h.DispatchEvent(ir.EventTarget{Kind: "frame"}, host.EventInit{Type: "change"}))
}

func TestRecorders(t *testing.T) {
	h := newHost(t)
	caps := h.Capabilities()

	caps.Console.Log("hi")
	assert.Equal(t, []string{"hi"}, h.Console.Messages())

	require.NoError(t, caps.Clipboard.WriteText("copied"))
	assert.Equal(t, "copied", h.Clipboard.Text())
	h.Clipboard.Fail(errors.New("denied"))
	assert.Error(t, caps.Clipboard.WriteText("x"))

	require.NoError(t, caps.History.PushURL("/a"))
	require.NoError(t, caps.History.ReplaceURL("/b"))
	require.NoError(t, caps.Location.Assign("https://example.com"))
	assert.Equal(t, []string{"/b"}, h.Nav.History())
	assert.Equal(t, []string{"https://example.com"}, h.Nav.Assigned())

	w, ht := caps.Window.Size()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, ht)
	assert.Equal(t, DefaultEpoch, caps.Clock.Now())
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()

	_, ok, err := s.GetItem("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem("k", `"v"`))
	v, ok, err := s.GetItem("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"v"`, v)

	s.FailWrites(errors.New("quota"))
	assert.Error(t, s.SetItem("k2", "1"))
	assert.Equal(t, []string{"k"}, s.Keys())
}
