// Package reconcile decides whether a destination branch must be created from a
// source branch or have the source merged into it, and performs that one write.
//
// The decision is made from a single, ordered observation: the source is resolved
// first, then the destination. A destination lookup that fails for any reason
// other than a positive "not found" is treated as unknown state and the call fails
// without writing. At most two lookups and one mutating call are issued per
// [Reconciler.Reconcile]; nothing is retried here, retry policy belongs to the
// injected [host.Client].
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/sgaunet/bullets"
	"github.com/sgaunet/repohost/internal/logger"
	"github.com/sgaunet/repohost/internal/security"
	"github.com/sgaunet/repohost/pkg/host"
)

// MergeRequest describes one reconciliation attempt.
type MergeRequest struct {
	Coordinate  host.Coordinate
	Source      string
	Destination string
	Message     string // optional merge commit message
}

// Validate checks the preconditions of a request.
func (r MergeRequest) Validate() error {
	switch {
	case r.Coordinate.IsZero():
		return fmt.Errorf("%w: repository coordinate is required", ErrInvalidRequest)
	case r.Source == "":
		return fmt.Errorf("%w: source branch is required", ErrInvalidRequest)
	case r.Destination == "":
		return fmt.Errorf("%w: destination branch is required", ErrInvalidRequest)
	}
	return nil
}

// Reconciler performs create-or-merge against a host client.
// It holds no per-call state and may be used from several goroutines.
type Reconciler struct {
	client host.Client
	log    *bullets.Logger
}

// New creates a Reconciler over an authenticated client.
func New(client host.Client) *Reconciler {
	return &Reconciler{
		client: client,
		log:    logger.NoLogger(),
	}
}

// SetLogger sets the logger used for debug tracing.
func (r *Reconciler) SetLogger(log *bullets.Logger) {
	r.log = log
}

// Reconcile creates req.Destination from req.Source when the destination does not
// exist, or merges req.Source into it when it does.
func (r *Reconciler) Reconcile(ctx context.Context, req MergeRequest) Outcome {
	if err := req.Validate(); err != nil {
		return Failed(ReasonInvalidRequest, err.Error(), nil)
	}

	source, failed, ok := r.resolveSource(ctx, req.Coordinate, req.Source)
	if !ok {
		return failed
	}

	r.log.Debug(fmt.Sprintf("Looking up destination branch %s in %s", req.Destination, req.Coordinate))
	dest, err := r.client.LookupBranch(ctx, req.Coordinate, req.Destination)
	switch {
	case err == nil:
		return r.merge(ctx, req, dest)
	case errors.Is(err, host.ErrNotFound):
		return r.create(ctx, req.Coordinate, req.Destination, source)
	default:
		return hostFailure("destination lookup", req.Destination, err)
	}
}

// EnsureBranchExists creates branch from source's head when it does not exist.
// An existing branch is left untouched and reported as Exists.
func (r *Reconciler) EnsureBranchExists(ctx context.Context, coord host.Coordinate, source, branch string) Outcome {
	req := MergeRequest{Coordinate: coord, Source: source, Destination: branch}
	if err := req.Validate(); err != nil {
		return Failed(ReasonInvalidRequest, err.Error(), nil)
	}

	src, failed, ok := r.resolveSource(ctx, coord, source)
	if !ok {
		return failed
	}

	existing, err := r.client.LookupBranch(ctx, coord, branch)
	switch {
	case err == nil:
		r.log.Debug(fmt.Sprintf("Branch %s already exists at %s", branch, existing.CommitSHA))
		return Exists(existing)
	case errors.Is(err, host.ErrNotFound):
		return r.create(ctx, coord, branch, src)
	default:
		return hostFailure("branch lookup", branch, err)
	}
}

func (r *Reconciler) resolveSource(ctx context.Context, coord host.Coordinate, source string) (host.BranchRef, Outcome, bool) {
	r.log.Debug(fmt.Sprintf("Resolving source branch %s in %s", source, coord))
	ref, err := r.client.LookupBranch(ctx, coord, source)
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return host.BranchRef{}, Failed(ReasonSourceNotFound,
				fmt.Sprintf("source branch %q not found", source), err), false
		}
		return host.BranchRef{}, hostFailure("source lookup", source, err), false
	}
	if ref.CommitSHA == "" {
		return host.BranchRef{}, Failed(ReasonSourceNotFound,
			fmt.Sprintf("source branch %q resolved without a commit", source), nil), false
	}
	return ref, Outcome{}, true
}

func (r *Reconciler) merge(ctx context.Context, req MergeRequest, dest host.BranchRef) Outcome {
	r.log.Debug(fmt.Sprintf("Destination %s exists at %s, merging %s", req.Destination, dest.CommitSHA, req.Source))
	result, err := r.client.MergeBranch(ctx, req.Coordinate, host.MergeSpec{
		Base:    req.Destination,
		Head:    req.Source,
		Message: req.Message,
	})
	if err != nil {
		if errors.Is(err, host.ErrMergeConflict) {
			return Failed(ReasonMergeConflict,
				fmt.Sprintf("merging %s into %s: %s", req.Source, req.Destination, sanitize(err)), err)
		}
		return hostFailure("merge", req.Destination, err)
	}
	return Merged(result)
}

func (r *Reconciler) create(ctx context.Context, coord host.Coordinate, branch string, source host.BranchRef) Outcome {
	ref := host.BranchRefName(branch)
	r.log.Debug(fmt.Sprintf("Branch %s not found, creating %s at %s", branch, ref, source.CommitSHA))
	created, err := r.client.CreateRef(ctx, coord, ref, source.CommitSHA)
	if err != nil {
		if errors.Is(err, host.ErrCreateConflict) {
			return Failed(ReasonCreateConflict,
				fmt.Sprintf("creating %s: %s", ref, sanitize(err)), err)
		}
		return hostFailure("create", branch, err)
	}
	return Created(created)
}

func hostFailure(step, branch string, err error) Outcome {
	return Failed(ReasonHostError, fmt.Sprintf("%s for %q: %s", step, branch, sanitize(err)), err)
}

func sanitize(err error) string {
	return security.SanitizeString(err.Error())
}
