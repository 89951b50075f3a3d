package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer bounds the number of cycles the engine runs without the
// queue going idle.
//
// A core that answers every message with another immediately resolving
// message-with-effect never lets the queue drain. The quota turns that
// runaway into an error instead of a hang. The counter resets whenever
// the queue is empty.
type QuotaEnforcer struct {
	maxCycles int
	current   int
}

// NewQuotaEnforcer creates a quota enforcer. A limit of zero or less
// disables the check.
func NewQuotaEnforcer(maxCycles int) *QuotaEnforcer {
	return &QuotaEnforcer{maxCycles: maxCycles}
}

// Check counts one cycle and reports a StepsExceededError once the
// limit is passed.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.maxCycles > 0 && q.current > q.maxCycles {
		return &StepsExceededError{Cycles: q.current, Limit: q.maxCycles}
	}
	return nil
}

// Reset sets the counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current cycle count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxCycles returns the limit.
func (q *QuotaEnforcer) MaxCycles() int {
	return q.maxCycles
}

// StepsExceededError is returned when a burst of cycles exceeds the quota.
// It stops Run and Drain.
type StepsExceededError struct {
	Cycles int // Number of cycles taken
	Limit  int // Maximum allowed cycles
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("exceeded max cycles quota: %d cycles > %d limit", e.Cycles, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
