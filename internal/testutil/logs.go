package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEntry is one record captured by LogRecorder.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any

	// PC is the caller recorded with the entry, zero when unknown.
	PC uintptr
}

// LogRecorder is an slog.Handler that keeps every record in memory so
// tests can assert on warnings and errors. Handlers derived with
// WithAttrs or WithGroup share the same record list.
type LogRecorder struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
	group   string
}

// NewLogRecorder creates an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

// Logger returns an *slog.Logger writing to the recorder.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(r)
}

// Enabled accepts every level.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle stores the record.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]any, len(r.attrs)+rec.NumAttrs())
	for _, a := range r.attrs {
		addAttr(attrs, "", a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, r.group, a)
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, LogEntry{
		Time:    rec.Time,
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   attrs,
		PC:      rec.PC,
	})
	return nil
}

// WithAttrs returns a handler that adds attrs to every record.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *r
	next.attrs = make([]slog.Attr, 0, len(r.attrs)+len(attrs))
	next.attrs = append(next.attrs, r.attrs...)
	for _, a := range attrs {
		if r.group != "" {
			a.Key = r.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup returns a handler that prefixes later keys with name.
func (r *LogRecorder) WithGroup(name string) slog.Handler {
	next := *r
	if next.group != "" {
		next.group += "." + name
	} else {
		next.group = name
	}
	return &next
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			addAttr(dst, key, ga)
		}
		return
	}
	dst[key] = v.Any()
}

// Entries returns a copy of all captured records.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(*r.entries))
	copy(out, *r.entries)
	return out
}

// AtLevel returns the captured records with exactly the given level.
func (r *LogRecorder) AtLevel(level slog.Level) []LogEntry {
	var out []LogEntry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many records at level contain substr in their message.
func (r *LogRecorder) Count(level slog.Level, substr string) int {
	n := 0
	for _, e := range r.AtLevel(level) {
		if strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

// Reset discards all captured records.
func (r *LogRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = (*r.entries)[:0]
}
