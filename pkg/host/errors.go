package host

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors, one per failure kind. A [*Error] unwraps to exactly one of them.
var (
	// ErrNotFound is returned when the host reports the resource absent.
	ErrNotFound = errors.New("not found on host")

	// ErrCreateConflict is returned when a ref cannot be created because it exists.
	ErrCreateConflict = errors.New("ref already exists")

	// ErrMergeConflict is returned when the host rejects a merge.
	ErrMergeConflict = errors.New("merge rejected by host")

	// ErrConflict is returned when a write lost an optimistic concurrency check.
	ErrConflict = errors.New("write conflict")

	// ErrHost covers transport, authentication, rate-limit and unclassified failures.
	ErrHost = errors.New("host error")

	// ErrInvalidCoordinate is returned when a repository coordinate cannot be parsed.
	ErrInvalidCoordinate = errors.New("invalid repository coordinate, expected owner/repository")
)

// Kind classifies a host failure.
type Kind int

// Failure kinds.
const (
	KindHost Kind = iota
	KindNotFound
	KindCreateConflict
	KindMergeConflict
	KindConflict
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindCreateConflict:
		return "CreateConflict"
	case KindMergeConflict:
		return "MergeConflict"
	case KindConflict:
		return "Conflict"
	default:
		return "HostError"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindCreateConflict:
		return ErrCreateConflict
	case KindMergeConflict:
		return ErrMergeConflict
	case KindConflict:
		return ErrConflict
	default:
		return ErrHost
	}
}

// Op names a Client operation, used to pick the status mapping.
type Op string

// Client operations.
const (
	OpLookupBranch Op = "lookup branch"
	OpCreateRef    Op = "create ref"
	OpMergeBranch  Op = "merge branch"
	OpGetFile      Op = "get file"
	OpUpdateFile   Op = "update file"
	OpCompareDiff  Op = "compare diff"
)

// Error is the failure type returned by every Client implementation.
// It unwraps to both its kind sentinel and the underlying SDK error.
type Error struct {
	Op         Op
	Kind       Kind
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

// Error implements error.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (%s, HTTP %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// NewError builds an Error whose kind is derived from the HTTP status for op.
func NewError(op Op, statusCode int, err error) *Error {
	return &Error{
		Op:         op,
		Kind:       KindFromStatus(op, statusCode),
		StatusCode: statusCode,
		Err:        err,
	}
}

// KindFromStatus maps an HTTP status to a failure kind for the given operation.
// A zero status (no response) is always KindHost: absence cannot be inferred
// from a request that never got an answer.
func KindFromStatus(op Op, statusCode int) Kind {
	switch statusCode {
	case 0:
		return KindHost
	case http.StatusNotFound:
		switch op {
		case OpMergeBranch, OpCreateRef, OpUpdateFile:
			// a 404 on a write means a side vanished or the token lacks scope
			return KindHost
		}
		return KindNotFound
	case http.StatusConflict:
		switch op {
		case OpMergeBranch:
			return KindMergeConflict
		case OpCreateRef:
			return KindCreateConflict
		case OpUpdateFile:
			return KindConflict
		}
	case http.StatusUnprocessableEntity:
		// a 422 on CreateRef is also an unknown SHA or a malformed ref; the
		// adapter decides from the message whether the ref already exists
		switch op {
		case OpMergeBranch:
			return KindMergeConflict
		case OpUpdateFile:
			return KindConflict
		}
	case http.StatusMethodNotAllowed, http.StatusNotAcceptable:
		if op == OpMergeBranch {
			return KindMergeConflict
		}
	}
	return KindHost
}

// KindOf returns the kind of err, or KindHost for errors not produced by a Client.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindHost
}
