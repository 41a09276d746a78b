package reconcile

import (
	"errors"
	"fmt"

	"github.com/sgaunet/repohost/pkg/host"
)

// Status tags which variant an Outcome holds.
type Status int

// Outcome variants.
const (
	StatusFailed Status = iota
	StatusCreated
	StatusMerged
	StatusExists
)

// String returns the variant name.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "Created"
	case StatusMerged:
		return "Merged"
	case StatusExists:
		return "Exists"
	default:
		return "Failed"
	}
}

// Reason classifies a failed outcome.
type Reason int

// Failure reasons.
const (
	ReasonNone Reason = iota
	ReasonInvalidRequest
	ReasonSourceNotFound
	ReasonHostError
	ReasonCreateConflict
	ReasonMergeConflict
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonInvalidRequest:
		return "InvalidRequest"
	case ReasonSourceNotFound:
		return "SourceNotFound"
	case ReasonHostError:
		return "HostError"
	case ReasonCreateConflict:
		return "CreateConflict"
	case ReasonMergeConflict:
		return "MergeConflict"
	default:
		return "None"
	}
}

// Sentinel errors matching each Reason, reachable through Outcome.Err.
var (
	ErrInvalidRequest = errors.New("invalid merge request")
	ErrSourceNotFound = errors.New("source branch not found")
	ErrHost           = errors.New("host error")
	ErrCreateConflict = errors.New("destination ref creation rejected")
	ErrMergeConflict  = errors.New("merge rejected")
)

func (r Reason) sentinel() error {
	switch r {
	case ReasonInvalidRequest:
		return ErrInvalidRequest
	case ReasonSourceNotFound:
		return ErrSourceNotFound
	case ReasonCreateConflict:
		return ErrCreateConflict
	case ReasonMergeConflict:
		return ErrMergeConflict
	default:
		return ErrHost
	}
}

// Outcome is the result of one reconciliation attempt.
// Exactly one of Ref (Created, Exists), Merge (Merged) or Reason (Failed) is meaningful.
type Outcome struct {
	Status Status
	Ref    host.BranchRef
	Merge  host.MergeResult

	Reason Reason
	Detail string // sanitized, safe to print
	Cause  error  // underlying host error, nil for InvalidRequest
}

// Created reports a newly created destination branch.
func Created(ref host.BranchRef) Outcome {
	return Outcome{Status: StatusCreated, Ref: ref}
}

// Merged reports a merge into an existing destination.
func Merged(result host.MergeResult) Outcome {
	return Outcome{Status: StatusMerged, Merge: result}
}

// Exists reports a branch that was already present.
func Exists(ref host.BranchRef) Outcome {
	return Outcome{Status: StatusExists, Ref: ref}
}

// Failed reports a failure.
func Failed(reason Reason, detail string, cause error) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Detail: detail, Cause: cause}
}

// OK reports whether the outcome is not a failure.
func (o Outcome) OK() bool {
	return o.Status != StatusFailed
}

// Err returns nil for successful outcomes and a *FailedError otherwise.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &FailedError{Reason: o.Reason, Detail: o.Detail, Cause: o.Cause}
}

// String renders the outcome on one line.
func (o Outcome) String() string {
	switch o.Status {
	case StatusCreated, StatusExists:
		return fmt.Sprintf("%s %s at %s", o.Status, o.Ref.Name, o.Ref.CommitSHA)
	case StatusMerged:
		if o.Merge.NoOp {
			return "Merged (nothing to merge)"
		}
		return "Merged " + o.Merge.SHA
	default:
		return fmt.Sprintf("Failed %s: %s", o.Reason, o.Detail)
	}
}

// FailedError is the error form of a failed Outcome.
type FailedError struct {
	Reason Reason
	Detail string
	Cause  error
}

// Error implements error.
func (e *FailedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason.sentinel(), e.Detail)
}

// Unwrap exposes the reason sentinel and, when present, the host error.
func (e *FailedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Reason.sentinel()}
	}
	return []error{e.Reason.sentinel(), e.Cause}
}
