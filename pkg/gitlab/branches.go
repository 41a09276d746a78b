package gitlab

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgaunet/repohost/pkg/host"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// LookupBranch implements host.Client.
func (c *Client) LookupBranch(ctx context.Context, coord host.Coordinate, branch string) (host.BranchRef, error) {
	c.log.Debug(fmt.Sprintf("Getting GitLab branch %s in %s", branch, coord))

	b, resp, err := c.client.Branches.GetBranch(projectID(coord), branch, gitlab.WithContext(ctx))
	if err != nil {
		return host.BranchRef{}, wrapError(host.OpLookupBranch, resp, err)
	}
	if b.Commit == nil || b.Commit.ID == "" {
		return host.BranchRef{}, host.NewError(host.OpLookupBranch, 0, errEmptyBranch)
	}

	c.log.Debug(fmt.Sprintf("Branch %s is at %s", b.Name, b.Commit.ID))
	return host.BranchRef{Name: b.Name, CommitSHA: b.Commit.ID}, nil
}

// CreateRef implements host.Client. Only branch refs are supported.
func (c *Client) CreateRef(ctx context.Context, coord host.Coordinate, ref, sha string) (host.BranchRef, error) {
	name, ok := strings.CutPrefix(ref, host.HeadsPrefix)
	if !ok || name == "" {
		return host.BranchRef{}, host.NewError(host.OpCreateRef, 0, fmt.Errorf("%w: %s", errNotBranchRef, ref))
	}
	c.log.Debug(fmt.Sprintf("Creating GitLab branch %s at %s in %s", name, sha, coord))

	b, resp, err := c.client.Branches.CreateBranch(projectID(coord), &gitlab.CreateBranchOptions{
		Branch: gitlab.Ptr(name),
		Ref:    gitlab.Ptr(sha),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return host.BranchRef{}, wrapError(host.OpCreateRef, resp, err)
	}

	created := host.BranchRef{Name: b.Name, CommitSHA: sha}
	if b.Commit != nil && b.Commit.ID != "" {
		created.CommitSHA = b.Commit.ID
	}
	c.log.Debug("Branch created: " + b.WebURL)
	return created, nil
}
