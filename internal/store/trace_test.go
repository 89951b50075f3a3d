package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/ir"
)

func TestRecordAndReadTrace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	msg := ir.IRObject{"type": ir.IRString("Increment"), "by": ir.IRInt(2)}

	events := []ir.TraceEvent{
		traceEvent(1, "c1", ir.TraceCycle, "Increment", msg),
		traceEvent(2, "c1", ir.TraceSubscriptionStart, "tick", ir.IRString("interval")),
		traceEvent(3, "c1", ir.TraceEffect, "console", ir.IRObject{"op": ir.IRString("log")}),
		traceEvent(4, "c2", ir.TraceCycle, "Tick", ir.IRString("Tick")),
	}
	// Write out of order; reads come back by seq.
	for _, i := range []int{2, 0, 3, 1} {
		require.NoError(t, s.Record(ctx, events[i]))
	}

	got, err := s.ReadTrace(ctx)
	require.NoError(t, err)
	assert.Equal(t, events, got)

	c1, err := s.ReadCycleTrace(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, c1, 3)

	seq, err := s.LatestSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
}

func TestRecordIsIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ev := traceEvent(1, "c1", ir.TraceCycle, "Init", ir.IRNull{})

	require.NoError(t, s.Record(ctx, ev))
	require.NoError(t, s.Record(ctx, ev))

	got, err := s.ReadTrace(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecordNilDetail(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, traceEvent(1, "c1", ir.TraceSubscriptionStop, "A", nil)))

	got, err := s.ReadTrace(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ir.IRNull{}, got[0].Detail)
}

func TestRecordPreservesLargeIntegers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	big := ir.IRInt(1<<53 + 1)

	require.NoError(t, s.Record(ctx, traceEvent(1, "c1", ir.TraceResolved, "time", big)))

	got, err := s.ReadTrace(ctx)
	require.NoError(t, err)
	assert.Equal(t, big, got[0].Detail)
}

func TestReadCycles(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	msg := ir.IRObject{"type": ir.IRString("Init")}

	require.NoError(t, s.Record(ctx, traceEvent(1, "c1", ir.TraceCycle, "Init", msg)))
	require.NoError(t, s.Record(ctx, traceEvent(2, "c1", ir.TraceEffect, "console", ir.IRNull{})))

	cycles, err := s.ReadCycles(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, "c1", cycles[0].ID)
	assert.Equal(t, int64(1), cycles[0].Seq)
	assert.Equal(t, ir.IRValue(msg), cycles[0].Msg)
	assert.Equal(t, ir.MustFingerprint(ir.DomainMessage, msg), cycles[0].MsgHash)
	assert.Equal(t, ir.RuntimeVersion, cycles[0].RuntimeVersion)
	assert.Equal(t, ir.WireVersion, cycles[0].WireVersion)
}

func TestReadEmpty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	events, err := s.ReadTrace(ctx)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	seq, err := s.LatestSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestQueryTrace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, ev := range []ir.TraceEvent{
		traceEvent(1, "c1", ir.TraceCycle, "init", ir.IRNull{}),
		traceEvent(2, "c1", ir.TraceEffect, "console/log", ir.IRNull{}),
		traceEvent(3, "c2", ir.TraceCycle, "inc", ir.IRString("inc")),
		traceEvent(4, "c2", ir.TraceEffect, "console/log", ir.IRNull{}),
		traceEvent(5, "c2", ir.TraceEffect, "time/currentTime", ir.IRNull{}),
	} {
		require.NoError(t, s.Record(ctx, ev))
	}

	tests := []struct {
		name    string
		filter  TraceFilter
		wantSeq []int64
	}{
		{"everything", TraceFilter{}, []int64{1, 2, 3, 4, 5}},
		{"cycle", TraceFilter{CycleID: "c2"}, []int64{3, 4, 5}},
		{"type", TraceFilter{Type: ir.TraceEffect}, []int64{2, 4, 5}},
		{"type and subject", TraceFilter{Type: ir.TraceEffect, Subject: "console/log"}, []int64{2, 4}},
		{"after seq", TraceFilter{AfterSeq: 3}, []int64{4, 5}},
		{"no match", TraceFilter{CycleID: "c1", Type: ir.TraceError}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryTrace(ctx, tt.filter)
			require.NoError(t, err)
			seqs := make([]int64, len(got))
			for i, ev := range got {
				seqs[i] = ev.Seq
			}
			assert.Equal(t, tt.wantSeq, seqs)
		})
	}
}

func TestTraceFilterCompile(t *testing.T) {
	query, args := TraceFilter{}.compile()
	assert.Equal(t, "SELECT seq, cycle_id, type, subject, detail FROM trace_events ORDER BY seq ASC", query)
	assert.Empty(t, args)

	query, args = TraceFilter{CycleID: "c1'; DROP TABLE trace_events; --", AfterSeq: 2}.compile()
	assert.Contains(t, query, "WHERE cycle_id = ? AND seq > ?")
	assert.NotContains(t, query, "DROP")
	assert.Equal(t, []any{"c1'; DROP TABLE trace_events; --", int64(2)}, args)
}
