package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/store"
)

// seedJournal writes two cycles: init with an effect, then a failing update.
func seedJournal(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	events := []ir.TraceEvent{
		{Seq: 1, CycleID: "cycle-0001", Type: ir.TraceCycle, Subject: "init", Detail: ir.IRNull{}},
		{Seq: 2, CycleID: "cycle-0001", Type: ir.TraceEffect, Subject: "console/log",
			Detail: ir.Tagged("console", ir.Tagged("log", ir.IRObject{"message": ir.IRString("hi")}))},
		{Seq: 3, CycleID: "cycle-0002", Type: ir.TraceCycle, Subject: "boom", Detail: ir.IRString("boom")},
		{Seq: 4, CycleID: "cycle-0002", Type: ir.TraceError, Subject: "boom", Detail: ir.IRString("core exploded")},
	}
	for _, ev := range events {
		require.NoError(t, st.Record(ctx, ev))
	}
	return dbPath
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceEmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No events recorded")
}

func TestTraceText(t *testing.T) {
	dbPath := seedJournal(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text", Verbose: true}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] cycle-0001")
	assert.Contains(t, out, "console/log")
	assert.Contains(t, out, `"message":"hi"`)
	assert.Contains(t, out, "=== Stats ===")
	assert.Contains(t, out, "Errors:       1")
}

func TestTraceJSON(t *testing.T) {
	dbPath := seedJournal(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Events, 4)
	assert.Equal(t, TraceStats{TotalEvents: 4, Cycles: 2, Effects: 1, Errors: 1}, resp.Data.Stats)
	assert.Equal(t, "boom", resp.Data.Events[2].Detail)
}

func TestTraceFilters(t *testing.T) {
	dbPath := seedJournal(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"cycle", []string{"--cycle", "cycle-0002"}, 2},
		{"type", []string{"--type", "effect"}, 1},
		{"cycle and type", []string{"--cycle", "cycle-0001", "--type", "error"}, 0},
		{"subject", []string{"--subject", "boom"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath}, tt.args...)
			out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), args...)
			require.NoError(t, err)

			var resp struct {
				Data TraceResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Len(t, resp.Data.Events, tt.want)
		})
	}
}

func TestTraceHelpText(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{})
	assert.Contains(t, cmd.Short, "journal")
	assert.Contains(t, cmd.Long, "--cycle")
}

func TestTruncateID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"cycle-0001", "cycle-0001"},
		{"0192f5c4-7d2e-7b3a-9c1d-5e6f7a8b9c0d", "0192f5c4...7a8b9c0d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateID(tt.id))
	}
}

func TestTraceStatsCountsDistinctCycles(t *testing.T) {
	stats := traceStats([]ir.TraceEvent{
		{CycleID: "a", Type: ir.TraceCycle},
		{CycleID: "a", Type: ir.TraceEffect},
		{CycleID: "a", Type: ir.TraceEffect},
		{CycleID: "b", Type: ir.TraceSubscriptionStart},
	})
	assert.Equal(t, TraceStats{TotalEvents: 4, Cycles: 2, Effects: 2}, stats)
}
