package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/ir"
)

func TestFromSubscriptionPure(t *testing.T) {
	m := FromSubscription(ir.SubscriptionMsg{Kind: ir.SubscriptionMsgPure, Value: ir.IRString("tick")}, nil)

	assert.True(t, m.IsPure())
	assert.Equal(t, ir.IRString("tick"), m.Msg)
}

func TestFromSubscriptionEffectful(t *testing.T) {
	sm := ir.SubscriptionMsg{
		Kind: ir.SubscriptionMsgEffectful,
		Effectful: &ir.EffectfulMsg{
			Msg:    ir.IRObject{"now": ir.IRString(ir.CaptureValue)},
			Effect: ir.Effect{Kind: ir.EffectTime, Op: ir.CurrentTime{}},
		},
	}

	m := FromSubscription(sm, nil)

	assert.False(t, m.IsPure())
	require.NotNil(t, m.Effect)
	assert.Equal(t, ir.EffectTime, m.Effect.Kind)
	// the message owns a copy of the effect
	m.Effect.Kind = ir.EffectConsole
	assert.Equal(t, ir.EffectTime, sm.Effectful.Effect.Kind)
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	var ch Channel = &rec

	ch.Deliver(Pure(ir.IRInt(1)))
	ch.Deliver(Pure(ir.IRInt(2)))

	require.Equal(t, 2, rec.Len())
	assert.Equal(t, ir.IRInt(1), rec.Messages()[0].Msg)

	rec.Reset()
	assert.Equal(t, 0, rec.Len())
}

func TestFunc(t *testing.T) {
	var got []Msg
	ch := Func(func(m Msg) { got = append(got, m) })

	ch.Deliver(Pure(ir.IRNull{}))

	assert.Len(t, got, 1)
}
