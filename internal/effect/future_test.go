package effect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/ir"
)

func TestResolvedFuture(t *testing.T) {
	f := Resolved(ir.IRInt(3))

	v, ok := f.Value()
	assert.True(t, ok)
	assert.Equal(t, ir.IRInt(3), v)

	var got ir.IRValue
	f.OnResolve(func(v ir.IRValue) { got = v })
	assert.Equal(t, ir.IRInt(3), got)
}

func TestPendingFutureResolvesOnce(t *testing.T) {
	f, resolve := Pending()
	var calls []ir.IRValue
	f.OnResolve(func(v ir.IRValue) { calls = append(calls, v) })

	_, ok := f.Value()
	assert.False(t, ok)

	resolve(ir.IRString("first"))
	resolve(ir.IRString("second"))

	assert.Equal(t, []ir.IRValue{ir.IRString("first")}, calls)
	v, _ := f.Value()
	assert.Equal(t, ir.IRString("first"), v)
}

func TestFutureNilResolvesToNull(t *testing.T) {
	f, resolve := Pending()
	resolve(nil)
	v, ok := f.Value()
	assert.True(t, ok)
	assert.Equal(t, ir.IRNull{}, v)
}

func TestFutureAwait(t *testing.T) {
	f, resolve := Pending()
	go func() {
		time.Sleep(5 * time.Millisecond)
		resolve(ir.IRBool(true))
	}()

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(true), v)
}

func TestFutureAwaitCancelled(t *testing.T) {
	f, _ := Pending()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
