package ir

import (
	"errors"
	"fmt"
)

// RuntimeError represents a failure detected at the host boundary.
//
// Apart from ErrCodeInvalidSingleEffect, every code is contained by the
// component that detects it: logged, then surfaced as a null value or a
// success flag. RuntimeError carries structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the effect or subscription kind involved, if any.
	Kind string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	ErrCodeUnknownEffectKind       RuntimeErrorCode = "UNKNOWN_EFFECT_KIND"
	ErrCodeUnknownSubscriptionKind RuntimeErrorCode = "UNKNOWN_SUBSCRIPTION_KIND"
	ErrCodeUnknownMatcherKind      RuntimeErrorCode = "UNKNOWN_MATCHER_KIND"
	ErrCodeHandlerException        RuntimeErrorCode = "HANDLER_EXCEPTION"
	ErrCodeStorageWriteFailure     RuntimeErrorCode = "STORAGE_WRITE_FAILURE"
	ErrCodeJSONDecodeFailure       RuntimeErrorCode = "JSON_DECODE_FAILURE"
	ErrCodeJSONEncodeFailure       RuntimeErrorCode = "JSON_ENCODE_FAILURE"
	ErrCodeMissingTargetElement    RuntimeErrorCode = "MISSING_TARGET_ELEMENT"

	// ErrCodeInvalidSingleEffect is fatal: the core asked to run a none or
	// effectfulMsg effect on its own.
	ErrCodeInvalidSingleEffect RuntimeErrorCode = "INVALID_SINGLE_EFFECT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Kind != "" {
		msg = fmt.Sprintf("%s (kind=%s)", msg, e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a RuntimeError wrapping cause (which may be nil).
func NewRuntimeError(code RuntimeErrorCode, message string, cause error) *RuntimeError {
	return &RuntimeError{Code: code, Message: message, Err: cause}
}

// NewInvalidSingleEffectError reports an attempt to run kind on its own.
func NewInvalidSingleEffectError(kind EffectKind) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidSingleEffect,
		Message: "effect cannot be run on its own",
		Kind:    string(kind),
	}
}

// ErrorCode extracts the RuntimeErrorCode from err, or "" if err is not
// a RuntimeError. Uses errors.As to handle wrapped errors.
func ErrorCode(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsInvalidSingleEffect reports whether err is the fatal single-effect error.
func IsInvalidSingleEffect(err error) bool {
	return ErrorCode(err) == ErrCodeInvalidSingleEffect
}

// IsJSONFailure reports whether err is a JSON decode or encode failure.
func IsJSONFailure(err error) bool {
	code := ErrorCode(err)
	return code == ErrCodeJSONDecodeFailure || code == ErrCodeJSONEncodeFailure
}
