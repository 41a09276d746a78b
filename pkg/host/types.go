// Package host defines the capability set repohost needs from a source-control
// hosting service, independent of whether GitHub or GitLab sits behind it.
//
// The [Client] interface is deliberately narrow: branch lookup, ref creation and
// branch merge drive the reconciliation logic in package reconcile, while file
// and diff access are plain pass-through operations for the CLI.
//
// Every failure returned by a Client is a [*Error] carrying a [Kind], so callers
// can tell "the branch does not exist" apart from "the host could not answer":
//
//	ref, err := client.LookupBranch(ctx, coord, "main")
//	switch {
//	case errors.Is(err, host.ErrNotFound):
//		// safe to create
//	case err != nil:
//		// state unknown, do not assume absence
//	}
package host

import (
	"fmt"
	"strings"
)

// HeadsPrefix is the ref namespace for branches.
const HeadsPrefix = "refs/heads/"

// Coordinate identifies a remote repository.
// Owner may contain slashes for GitLab nested groups.
type Coordinate struct {
	Owner      string
	Repository string
}

// String returns the "owner/repository" form.
func (c Coordinate) String() string {
	return c.Owner + "/" + c.Repository
}

// IsZero reports whether either half of the coordinate is missing.
func (c Coordinate) IsZero() bool {
	return c.Owner == "" || c.Repository == ""
}

// ParseCoordinate parses "owner/repository". The last path segment is the
// repository; everything before it is the owner.
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.Trim(strings.TrimSuffix(strings.TrimSpace(s), ".git"), "/")
	idx := strings.LastIndex(s, "/")
	if idx <= 0 || idx == len(s)-1 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	return Coordinate{Owner: s[:idx], Repository: s[idx+1:]}, nil
}

// BranchRef is a named pointer to a commit, snapshotted at lookup time.
type BranchRef struct {
	Name      string
	CommitSHA string
}

// BranchRefName returns the fully-qualified ref for a branch name.
func BranchRefName(branch string) string {
	return HeadsPrefix + branch
}

// MergeSpec describes a branch merge: head is merged into base.
type MergeSpec struct {
	Base    string
	Head    string
	Message string
}

// MergeResult describes what the host did for a merge.
type MergeResult struct {
	SHA    string // merge commit, empty when NoOp
	URL    string // browser URL of the commit or merge request, if any
	NoOp   bool   // base already contained head
	Detail string // host-specific note, e.g. the merge request used
}

// File is the decoded content of a file at a ref.
type File struct {
	Path    string
	Ref     string
	SHA     string // blob SHA on GitHub, blob ID on GitLab
	Content []byte
}

// FileUpdate describes a create-or-update of a single file on a branch.
type FileUpdate struct {
	Path    string
	Branch  string
	Content []byte
	Message string
	// SHA is the blob SHA being replaced. When empty the adapter looks it up,
	// and creates the file if it does not exist.
	SHA string
}

// FileCommit is the result of a file write.
type FileCommit struct {
	Path      string
	Branch    string
	CommitSHA string
	Created   bool
}

// Diff is a unified diff between two refs.
type Diff struct {
	Base string
	Head string
	Raw  string
}
