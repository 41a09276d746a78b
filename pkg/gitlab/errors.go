package gitlab

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sgaunet/repohost/pkg/host"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

var (
	errTokenRequired = errors.New("GitLab token is required")
	errNotBranchRef  = errors.New("GitLab can only create refs under refs/heads/")
	errEmptyBranch   = errors.New("host returned a branch without a head commit")
	errMRNotFound    = errors.New("merge request exists but could not be listed")
	errStaleBlob     = errors.New("file changed since the given blob")

	// ErrTokenRequired is returned by NewClient without a token.
	ErrTokenRequired = errTokenRequired
	// ErrNotBranchRef is returned by CreateRef for tags and other namespaces.
	ErrNotBranchRef = errNotBranchRef
)

func statusOf(resp *gitlab.Response, err error) int {
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	return 0
}

// wrapError turns a client-go failure into a *host.Error for op.
// GitLab answers 400 for a few conflicts that GitHub reports as 409/422.
func wrapError(op host.Op, resp *gitlab.Response, err error) error {
	status := statusOf(resp, err)
	if status == http.StatusBadRequest {
		msg := strings.ToLower(err.Error())
		switch {
		case op == host.OpCreateRef && strings.Contains(msg, "already exists"):
			return &host.Error{Op: op, Kind: host.KindCreateConflict, StatusCode: status, Err: err}
		case op == host.OpUpdateFile &&
			(strings.Contains(msg, "has changed since") || strings.Contains(msg, "already exists")):
			return &host.Error{Op: op, Kind: host.KindConflict, StatusCode: status, Err: err}
		}
	}
	if err == nil {
		err = fmt.Errorf("unexpected status %d", status)
	}
	return host.NewError(op, status, err)
}
