// Package errs provides structured error types and helpers for simpool.
package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Code identifies a pooling error category.
type Code string

const (
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
	// CodeExhausted indicates the pool has no available instance and has
	// reached its allocation ceiling.
	CodeExhausted Code = "exhausted"
	// CodeClosed indicates the pool or manager is shut down.
	CodeClosed Code = "closed"
	// CodeFactory indicates the caller-supplied factory failed.
	CodeFactory Code = "factory_error"
	// CodeUnknown captures uncategorized failures.
	CodeUnknown Code = "unknown"
)

// E captures structured error information produced across the simpool stack.
type E struct {
	Pool        string
	Code        Code
	Message     string
	Remediation string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the named pool and error code.
func New(pool string, code Code, opts ...Option) *E {
	e := &E{
		Pool:        strings.TrimSpace(pool),
		Code:        code,
		Message:     "",
		Remediation: "",
		cause:       nil,
	}
	if e.Code == "" {
		e.Code = CodeUnknown
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithRemediation attaches remediation guidance to the error.
func WithRemediation(remediation string) Option {
	trimmed := strings.TrimSpace(remediation)
	return func(e *E) {
		e.Remediation = trimmed
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	pool := strings.TrimSpace(e.Pool)
	if pool == "" {
		pool = "unknown"
	}
	parts = append(parts, "pool="+pool)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = string(CodeUnknown)
	}
	parts = append(parts, "code="+code)

	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.Remediation != "" {
		parts = append(parts, "remediation="+strconv.Quote(e.Remediation))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// CodeOf extracts the pooling error code carried by err, or CodeUnknown when
// err does not wrap an envelope.
func CodeOf(err error) Code {
	var envelope *E
	if errors.As(err, &envelope) {
		return envelope.Code
	}
	return CodeUnknown
}

// IsExhausted reports whether err represents pool exhaustion.
func IsExhausted(err error) bool { return CodeOf(err) == CodeExhausted }

// IsInvalid reports whether err represents an invalid request.
func IsInvalid(err error) bool { return CodeOf(err) == CodeInvalid }

// IsClosed reports whether err represents a closed pool or manager.
func IsClosed(err error) bool { return CodeOf(err) == CodeClosed }
