package effect

import (
	"fmt"
	"sync"

	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// DefaultBacklogCapacity bounds the custom effect backlog.
const DefaultBacklogCapacity = 100

// Fallback selects what Handle returns when the consumer fails.
type Fallback int

const (
	// FallbackOriginal returns the unmodified payload.
	FallbackOriginal Fallback = iota
	// FallbackNull returns null.
	FallbackNull
)

// ParseFallback parses "original" or "null".
func ParseFallback(s string) (Fallback, error) {
	switch s {
	case "", "original":
		return FallbackOriginal, nil
	case "null":
		return FallbackNull, nil
	}
	return 0, fmt.Errorf("unknown custom effect fallback %q (want original or null)", s)
}

// CustomConfig configures the custom effect channel.
type CustomConfig struct {
	// UseBacklog buffers payloads until a consumer registers. When false
	// they are dropped.
	UseBacklog bool
	Capacity   int
	Fallback   Fallback
}

// DefaultCustomConfig buffers up to 100 payloads and falls back to the
// original payload.
func DefaultCustomConfig() CustomConfig {
	return CustomConfig{UseBacklog: true, Capacity: DefaultBacklogCapacity, Fallback: FallbackOriginal}
}

// HandlerFunc consumes an application-defined effect payload.
type HandlerFunc func(payload ir.IRValue) (ir.IRValue, error)

// Custom decouples application-defined effects from a consumer that may
// register later.
//
// Thread-safety: safe for concurrent use. The consumer is always invoked
// without the lock held.
type Custom struct {
	mu      sync.Mutex
	cfg     CustomConfig
	handler HandlerFunc
	backlog []ir.IRValue
	log     *logging.Logger
}

// NewCustom creates a custom effect channel.
func NewCustom(cfg CustomConfig, log *logging.Logger) *Custom {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultBacklogCapacity
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Custom{cfg: cfg, log: log}
}

// Handle passes payload to the consumer, or buffers it when none is
// registered. Without a consumer the Future holds the payload itself.
func (c *Custom) Handle(payload ir.IRValue) *Future {
	c.mu.Lock()
	h := c.handler
	if h == nil {
		c.enqueueLocked(payload)
		c.mu.Unlock()
		return Resolved(payload)
	}
	c.mu.Unlock()

	return Resolved(c.safeHandle(h, payload))
}

func (c *Custom) enqueueLocked(payload ir.IRValue) {
	if !c.cfg.UseBacklog {
		c.log.Debug(logging.CustomEffect, logging.Normal, "no handler registered, dropping effect",
			"effect", ir.CanonicalString(payload))
		return
	}
	if len(c.backlog) >= c.cfg.Capacity {
		c.log.Warn(logging.CustomEffect, "the custom effect backlog is full, ignoring effect",
			"effect", ir.CanonicalString(payload),
			"capacity", c.cfg.Capacity)
		return
	}
	c.backlog = append(c.backlog, payload)
	c.log.Debug(logging.CustomEffect, logging.Normal, "added effect to backlog",
		"effect", ir.CanonicalString(payload),
		"backlog", len(c.backlog))
}

// SetHandler installs fn and drains the backlog through it in arrival
// order before returning. A nil fn unregisters the consumer.
func (c *Custom) SetHandler(fn HandlerFunc) {
	c.mu.Lock()
	c.handler = fn
	if fn == nil {
		c.mu.Unlock()
		return
	}
	pending := c.backlog
	c.backlog = nil
	c.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	c.log.Debug(logging.CustomEffect, logging.Normal, "handling backlog", "count", len(pending))
	for _, payload := range pending {
		c.safeHandle(fn, payload)
	}
}

// Backlog returns a copy of the buffered payloads.
func (c *Custom) Backlog() []ir.IRValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ir.IRValue, len(c.backlog))
	copy(out, c.backlog)
	return out
}

// safeHandle isolates one consumer call. A panic or error yields the
// configured fallback; a null result yields the payload.
func (c *Custom) safeHandle(fn HandlerFunc, payload ir.IRValue) (result ir.IRValue) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error(logging.CustomEffect, "error while handling app effect",
				"code", ir.ErrCodeHandlerException,
				"panic", fmt.Sprint(r),
				"effect", ir.CanonicalString(payload))
			result = c.fallback(payload)
		}
	}()

	out, err := fn(payload)
	if err != nil {
		c.log.Error(logging.CustomEffect, "error while handling app effect",
			"code", ir.ErrCodeHandlerException,
			"error", err,
			"effect", ir.CanonicalString(payload))
		return c.fallback(payload)
	}
	if ir.IsNull(out) {
		return payload
	}
	return out
}

func (c *Custom) fallback(payload ir.IRValue) ir.IRValue {
	if c.cfg.Fallback == FallbackNull {
		return ir.IRNull{}
	}
	return payload
}
