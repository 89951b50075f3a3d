package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/boundary/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// traceEvent creates a trace event with minimal required fields.
func traceEvent(seq int64, cycleID string, typ ir.TraceType, subject string, detail ir.IRValue) ir.TraceEvent {
	return ir.TraceEvent{Seq: seq, CycleID: cycleID, Type: typ, Subject: subject, Detail: detail}
}
