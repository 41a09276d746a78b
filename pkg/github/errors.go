package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v69/github"
	"github.com/sgaunet/repohost/pkg/host"
)

var (
	errBranchRenamed = errors.New("branch lookup answered for a different branch")
	errNotAFile      = errors.New("path is a directory")
	errEmptyBranch   = errors.New("host returned a branch without a head commit")

	// ErrBranchRenamed is wrapped when GitHub redirects a branch lookup.
	// The branch was renamed, so the requested name neither clearly exists nor is absent.
	ErrBranchRenamed = errBranchRenamed
	// ErrNotAFile is returned by GetFile for directories.
	ErrNotAFile = errNotAFile
)

// statusOf extracts the HTTP status from a go-github result.
// Some calls (GetBranch) report failures through the response only.
func statusOf(resp *github.Response, err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	return 0
}

// wrapError turns a go-github failure into a *host.Error for op.
// GitHub answers 422 both for an existing ref and for an unknown target SHA;
// only the former is a create conflict.
func wrapError(op host.Op, resp *github.Response, err error) error {
	status := statusOf(resp, err)
	if op == host.OpCreateRef && status == http.StatusUnprocessableEntity && err != nil &&
		strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return &host.Error{Op: op, Kind: host.KindCreateConflict, StatusCode: status, Err: err}
	}
	if err == nil {
		err = fmt.Errorf("unexpected status %d", status)
	}
	return host.NewError(op, status, err)
}

// isSuccess reports a 2xx response.
func isSuccess(resp *github.Response) bool {
	return resp != nil && resp.Response != nil &&
		resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}
