// Package apperr implements the error taxonomy shared across Sceneforged's
// components (see spec §7). Every error that should carry a stable kind for
// HTTP translation or retry policy is wrapped in an *Error.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the taxonomy bucket an error belongs to.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindProbe         Kind = "probe"
	KindTool          Kind = "tool"
	KindPipeline      Kind = "pipeline"
	KindIO            Kind = "io"
	KindMigrationDrift Kind = "migration_drift"
)

// Error is the common wrapper. Fields beyond Kind/Message are optional
// metadata used by specific call sites (entity/id for NotFound, field/reason
// for Validation, tool/subkind for Tool, etc).
type Error struct {
	Kind    Kind
	Message string
	Entity  string
	Field   string
	Tool    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is compares Kind equality between two *Error values so
// errors.Is(err, &Error{Kind: KindNotFound}) works; KindOf extracts the
// kind of an arbitrary error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Validation(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: reason}
}

func Conflict(reason string) *Error {
	return &Error{Kind: KindConflict, Message: reason}
}

// Probe sub-kinds: UnsupportedContainer, Truncated, CorruptBox, UnknownCodec, IO.
func Probe(sub, msg string) *Error {
	return &Error{Kind: KindProbe, Field: sub, Message: msg}
}

// Tool sub-kinds: Missing, Timeout, NonZeroExit, Unparseable.
func Tool(tool, sub, msg string) *Error {
	return &Error{Kind: KindTool, Tool: tool, Field: sub, Message: msg}
}

func Pipeline(step, msg string) *Error {
	return &Error{Kind: KindPipeline, Field: step, Message: msg}
}

func IO(op string, err error) *Error {
	return &Error{Kind: KindIO, Field: op, Message: "io error", Err: err}
}

func MigrationDrift(version string) *Error {
	return &Error{Kind: KindMigrationDrift, Message: fmt.Sprintf("migration %s checksum diverged from applied state", version)}
}

// Retryable reports whether an error of this kind should generally be
// retried by the scheduler (§7 propagation policy). Tool errors other than
// Missing, and Pipeline, IO and Probe errors, are retryable; every other
// kind, and any error that is not an *Error, is not.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindTool:
		return e.Field != "Missing"
	case KindPipeline, KindIO, KindProbe:
		return true
	default:
		return false
	}
}

// KindOf extracts the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
