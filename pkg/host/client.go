package host

import "context"

// Client is the set of hosting operations repohost relies on.
// Implementations must be safe for concurrent use and must return [*Error]
// for every failure so the not-found/host-error distinction is preserved.
type Client interface {
	// LookupBranch resolves a branch to its head commit.
	// Returns ErrNotFound only when the host positively reports the branch absent.
	LookupBranch(ctx context.Context, coord Coordinate, branch string) (BranchRef, error)

	// CreateRef creates ref (e.g. "refs/heads/name") pointing at sha.
	// Returns ErrCreateConflict when the ref already exists.
	CreateRef(ctx context.Context, coord Coordinate, ref, sha string) (BranchRef, error)

	// MergeBranch merges spec.Head into spec.Base.
	// Returns ErrMergeConflict when the host rejects the merge.
	MergeBranch(ctx context.Context, coord Coordinate, spec MergeSpec) (MergeResult, error)

	// GetFile reads a file at ref. An empty ref means the default branch.
	GetFile(ctx context.Context, coord Coordinate, path, ref string) (File, error)

	// UpdateFile creates or updates a file on a branch with a single commit.
	UpdateFile(ctx context.Context, coord Coordinate, update FileUpdate) (FileCommit, error)

	// CompareDiff returns the unified diff from base to head.
	CompareDiff(ctx context.Context, coord Coordinate, base, head string) (Diff, error)

	// PlatformName returns "GitHub" or "GitLab".
	PlatformName() string
}
