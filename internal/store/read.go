package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/boundary/internal/ir"
)

// CycleRecord is a row of the cycles table.
type CycleRecord struct {
	ID             string
	Seq            int64
	Msg            ir.IRValue
	MsgHash        string
	RuntimeVersion string
	WireVersion    string
}

// ReadTrace returns the whole journal ordered by seq.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ReadTrace(ctx context.Context) ([]ir.TraceEvent, error) {
	return s.QueryTrace(ctx, TraceFilter{})
}

// ReadCycleTrace returns the events of one cycle ordered by seq.
func (s *Store) ReadCycleTrace(ctx context.Context, cycleID string) ([]ir.TraceEvent, error) {
	return s.QueryTrace(ctx, TraceFilter{CycleID: cycleID})
}

func scanTraceEvents(rows *sql.Rows) ([]ir.TraceEvent, error) {
	events := []ir.TraceEvent{}
	for rows.Next() {
		var (
			ev     ir.TraceEvent
			typ    string
			detail string
		)
		if err := rows.Scan(&ev.Seq, &ev.CycleID, &typ, &ev.Subject, &detail); err != nil {
			return nil, fmt.Errorf("scan trace event: %w", err)
		}
		ev.Type = ir.TraceType(typ)
		v, err := unmarshalDetail(detail)
		if err != nil {
			return nil, fmt.Errorf("trace event %d: %w", ev.Seq, err)
		}
		ev.Detail = v
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return events, nil
}

// ReadCycles returns every recorded cycle ordered by seq.
func (s *Store) ReadCycles(ctx context.Context) ([]CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, msg, msg_hash, runtime_version, wire_version
		FROM cycles
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []CycleRecord{}
	for rows.Next() {
		var (
			c   CycleRecord
			msg string
		)
		if err := rows.Scan(&c.ID, &c.Seq, &msg, &c.MsgHash, &c.RuntimeVersion, &c.WireVersion); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if c.Msg, err = unmarshalDetail(msg); err != nil {
			return nil, fmt.Errorf("cycle %s: %w", c.ID, err)
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return cycles, nil
}

// LatestSeq returns the highest recorded seq, or 0 for an empty journal.
// The engine resumes its logical clock from here.
func (s *Store) LatestSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM trace_events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return seq.Int64, nil
}

// TraceFilter selects journal events. Zero fields match everything.
type TraceFilter struct {
	CycleID  string
	Type     ir.TraceType
	Subject  string
	AfterSeq int64 // only events with seq > AfterSeq
}

// QueryTrace returns the events matching f ordered by seq.
//
// Every value is bound as a parameter, never interpolated.
func (s *Store) QueryTrace(ctx context.Context, f TraceFilter) ([]ir.TraceEvent, error) {
	query, args := f.compile()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()
	return scanTraceEvents(rows)
}

func (f TraceFilter) compile() (string, []any) {
	var (
		preds []string
		args  []any
	)
	if f.CycleID != "" {
		preds = append(preds, "cycle_id = ?")
		args = append(args, f.CycleID)
	}
	if f.Type != "" {
		preds = append(preds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Subject != "" {
		preds = append(preds, "subject = ?")
		args = append(args, f.Subject)
	}
	if f.AfterSeq > 0 {
		preds = append(preds, "seq > ?")
		args = append(args, f.AfterSeq)
	}

	var b strings.Builder
	b.WriteString("SELECT seq, cycle_id, type, subject, detail FROM trace_events")
	if len(preds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(preds, " AND "))
	}
	b.WriteString(" ORDER BY seq ASC")
	return b.String(), args
}
