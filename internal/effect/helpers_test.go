package effect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/host/memhost"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
	"github.com/roach88/boundary/internal/testutil"
)

type fixture struct {
	host   *memhost.Host
	out    *channel.Recorder
	logs   *testutil.LogRecorder
	custom *Custom
	d      *Dispatcher
}

func newFixture(t *testing.T, markup string) *fixture {
	t.Helper()
	h, err := memhost.New(memhost.Options{Markup: markup})
	require.NoError(t, err)

	logs := testutil.NewLogRecorder()
	log := logging.New(logs.Logger(), logging.DefaultConfig())
	out := &channel.Recorder{}
	custom := NewCustom(DefaultCustomConfig(), log)

	return &fixture{
		host:   h,
		out:    out,
		logs:   logs,
		custom: custom,
		d: NewDispatcher(Deps{
			Host:    h.Capabilities(),
			Channel: out,
			Custom:  custom,
			Logger:  log,
		}),
	}
}

// runOne runs eff and returns its already-resolved value.
func (f *fixture) runOne(t *testing.T, eff ir.Effect, src host.Event) ir.IRValue {
	t.Helper()
	fut, err := f.d.RunOne(context.Background(), eff, src)
	require.NoError(t, err)
	v, ok := fut.Value()
	require.True(t, ok, "future not resolved")
	return v
}

func decodeEffect(t *testing.T, js string) ir.Effect {
	t.Helper()
	v, err := ir.UnmarshalIRValue([]byte(js))
	require.NoError(t, err)
	eff, err := ir.DecodeEffect(v)
	require.NoError(t, err)
	return eff
}

// countingHandler records every effect it receives.
type countingHandler struct {
	seen []ir.Effect
}

func (c *countingHandler) Handle(_ context.Context, eff ir.Effect, _ host.Event) *Future {
	c.seen = append(c.seen, eff)
	return Resolved(ir.IRNull{})
}
