// Package grerror defines the typed error taxonomy that the CLI maps to
// process exit codes (spec.md §7).
package grerror

import (
	"errors"
	"fmt"
)

// Kind is one of the taxonomy entries from spec.md §7.
type Kind string

const (
	Config      Kind = "config"
	Auth        Kind = "auth"
	Network     Kind = "network"
	RateLimited Kind = "rate_limited"
	NotFound    Kind = "not_found"
	Provider    Kind = "provider"
	Parse       Kind = "parse"
	Cache       Kind = "cache"
	Unsupported Kind = "unsupported"
	Cancelled   Kind = "cancelled"
)

// Error is a typed error carrying a Kind for exit-code mapping plus an
// optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error of the given kind wrapping err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Unsupportedf builds an Unsupported error naming the provider and operation,
// per spec.md §4.7: unsupported operations are a typed error, not a runtime
// fault.
func Unsupportedf(provider, op string) *Error {
	return New(Unsupported, fmt.Sprintf("%s does not support %s", provider, op))
}

// KindOf extracts the Kind from err, walking the wrap chain. Returns Provider
// for errors with no recognizable Kind (the catch-all per spec.md §7).
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}

	return Provider
}

// ExitCode maps a Kind to the process exit code from spec.md §6.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch KindOf(err) {
	case Config:
		return 1
	case Provider:
		return 2
	case RateLimited:
		return 3
	case Auth:
		return 4
	case Network:
		return 5
	case Cache:
		return 6
	case Cancelled:
		return 7
	case Unsupported:
		return 8
	case NotFound:
		return 2
	default:
		return 1
	}
}
