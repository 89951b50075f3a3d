// Package logging provides the domain-tagged logger injected into every
// runtime component.
//
// Warnings and errors are always emitted. Debug entries pass when their
// domain is enabled and their verbosity is within the configured level,
// or when the global debug override is on.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync/atomic"
	"time"
)

// Format selects the slog handler that renders entries.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses "text" or "json". Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want text or json)", s)
}

// Config controls debug filtering.
type Config struct {
	// DebugDomains enables debug output per domain. All enables every domain.
	DebugDomains []Domain
	Verbosity    Verbosity

	// Override is the global debug switch.
	Override bool

	// OverrideBypassesFilters makes the override emit every debug entry.
	// When false, the override only lifts the verbosity filter and the
	// domain must still be enabled.
	OverrideBypassesFilters bool

	// AddSource records the caller of each entry.
	AddSource bool

	// Format is the output format of NewHandler. Empty means text.
	Format Format
}

// DefaultConfig emits no debug output.
func DefaultConfig() Config {
	return Config{OverrideBypassesFilters: true}
}

// DebugConfig emits normal debug output for every domain.
func DebugConfig() Config {
	return Config{DebugDomains: []Domain{All}, OverrideBypassesFilters: true}
}

// VerboseConfig emits all debug output for every domain.
func VerboseConfig() Config {
	return Config{DebugDomains: []Domain{All}, Verbosity: Verbose, OverrideBypassesFilters: true}
}

// TraceConfig is VerboseConfig with caller locations.
func TraceConfig() Config {
	cfg := VerboseConfig()
	cfg.AddSource = true
	return cfg
}

// Preset returns a named configuration: default, debug, verbose or trace.
func Preset(name string) (Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "debug":
		return DebugConfig(), nil
	case "verbose":
		return VerboseConfig(), nil
	case "trace":
		return TraceConfig(), nil
	}
	return Config{}, fmt.Errorf("unknown logger preset %q", name)
}

// NewHandler returns the handler writing cfg's format to w. Every level
// reaches the handler; filtering happens in Logger.
func NewHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: cfg.AddSource}
	if cfg.Format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Logger is a domain-tagged logger over slog.
//
// Thread-safety: safe for concurrent use. The override may be flipped
// at runtime with SetOverride.
type Logger struct {
	base     *slog.Logger
	cfg      Config
	override atomic.Bool
}

// New creates a Logger writing to base. A nil base uses slog.Default().
func New(base *slog.Logger, cfg Config) *Logger {
	if base == nil {
		base = slog.Default()
	}
	l := &Logger{base: base, cfg: cfg}
	l.override.Store(cfg.Override)
	return l
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(slog.New(slog.DiscardHandler), DefaultConfig())
}

// SetOverride flips the global debug switch.
func (l *Logger) SetOverride(on bool) {
	l.override.Store(on)
}

// Config returns the logger's configuration.
func (l *Logger) Config() Config {
	cfg := l.cfg
	cfg.Override = l.override.Load()
	return cfg
}

// DebugEnabled reports whether a debug entry would be emitted.
func (l *Logger) DebugEnabled(domain Domain, v Verbosity) bool {
	domainOK := l.domainEnabled(domain)
	verbosityOK := v == Normal || l.cfg.Verbosity == Verbose

	if l.override.Load() {
		if l.cfg.OverrideBypassesFilters {
			return true
		}
		return domainOK
	}
	return domainOK && verbosityOK
}

func (l *Logger) domainEnabled(domain Domain) bool {
	if len(l.cfg.DebugDomains) == 0 {
		return false
	}
	return slices.Contains(l.cfg.DebugDomains, All) || slices.Contains(l.cfg.DebugDomains, domain)
}

// Debug logs at debug level when the domain and verbosity are enabled.
func (l *Logger) Debug(domain Domain, v Verbosity, msg string, args ...any) {
	if !l.DebugEnabled(domain, v) {
		return
	}
	l.log(slog.LevelDebug, domain, msg, args...)
}

// Warn always logs at warn level.
func (l *Logger) Warn(domain Domain, msg string, args ...any) {
	l.log(slog.LevelWarn, domain, msg, args...)
}

// Error always logs at error level.
func (l *Logger) Error(domain Domain, msg string, args ...any) {
	l.log(slog.LevelError, domain, msg, args...)
}

func (l *Logger) log(level slog.Level, domain Domain, msg string, args ...any) {
	ctx := context.Background()
	if !l.base.Enabled(ctx, level) {
		return
	}
	// Skip Callers, log and the exported method so the source is the
	// component that logged.
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add("domain", domain.String())
	r.Add(args...)
	_ = l.base.Handler().Handle(ctx, r)
}

// Slog returns the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	return l.base
}
