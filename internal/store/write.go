package store

import (
	"context"
	"fmt"

	"github.com/roach88/boundary/internal/ir"
)

// WriteCycle records that msg entered the core under cycle id at seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteCycle(ctx context.Context, id string, seq int64, msg ir.IRValue) error {
	msgJSON, err := marshalDetail(msg)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	msgHash, err := ir.Fingerprint(ir.DomainMessage, msg)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cycles (id, seq, msg, msg_hash, runtime_version, wire_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, seq, msgJSON, msgHash, ir.RuntimeVersion, ir.WireVersion)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	return nil
}

// Record appends a trace event. A cycle event also writes the cycles row.
// Writing the same seq twice is a no-op.
func (s *Store) Record(ctx context.Context, ev ir.TraceEvent) error {
	detailJSON, err := marshalDetail(ev.Detail)
	if err != nil {
		return fmt.Errorf("record trace event %d: %w", ev.Seq, err)
	}
	hash, err := ev.Hash()
	if err != nil {
		return fmt.Errorf("record trace event %d: %w", ev.Seq, err)
	}

	if ev.Type == ir.TraceCycle {
		if err := s.WriteCycle(ctx, ev.CycleID, ev.Seq, ev.Detail); err != nil {
			return err
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trace_events (seq, cycle_id, type, subject, detail, detail_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`, ev.Seq, ev.CycleID, string(ev.Type), ev.Subject, detailJSON, hash)
	if err != nil {
		return fmt.Errorf("record trace event %d: %w", ev.Seq, err)
	}
	return nil
}
