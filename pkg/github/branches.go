package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v69/github"
	"github.com/sgaunet/repohost/pkg/host"
)

// LookupBranch implements host.Client.
func (c *Client) LookupBranch(ctx context.Context, coord host.Coordinate, branch string) (host.BranchRef, error) {
	c.log.Debug(fmt.Sprintf("Getting GitHub branch %s in %s", branch, coord))

	b, resp, err := c.client.Repositories.GetBranch(ctx, coord.Owner, coord.Repository, branch, noRedirects)
	if err != nil || !isSuccess(resp) {
		if status := statusOf(resp, err); status == http.StatusMovedPermanently {
			return host.BranchRef{}, host.NewError(host.OpLookupBranch, status, errBranchRenamed)
		}
		return host.BranchRef{}, wrapError(host.OpLookupBranch, resp, err)
	}

	if b.GetName() != "" && b.GetName() != branch {
		return host.BranchRef{}, &host.Error{
			Op:         host.OpLookupBranch,
			Kind:       host.KindHost,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: asked for %s, got %s", errBranchRenamed, branch, b.GetName()),
		}
	}

	sha := b.GetCommit().GetSHA()
	if sha == "" {
		return host.BranchRef{}, host.NewError(host.OpLookupBranch, 0, errEmptyBranch)
	}

	c.log.Debug(fmt.Sprintf("Branch %s is at %s", branch, sha))
	return host.BranchRef{Name: branch, CommitSHA: sha}, nil
}

// CreateRef implements host.Client.
func (c *Client) CreateRef(ctx context.Context, coord host.Coordinate, ref, sha string) (host.BranchRef, error) {
	c.log.Debug(fmt.Sprintf("Creating GitHub ref %s at %s in %s", ref, sha, coord))

	created, resp, err := c.client.Git.CreateRef(ctx, coord.Owner, coord.Repository, &github.Reference{
		Ref:    github.Ptr(ref),
		Object: &github.GitObject{SHA: github.Ptr(sha)},
	})
	if err != nil {
		return host.BranchRef{}, wrapError(host.OpCreateRef, resp, err)
	}

	name := strings.TrimPrefix(created.GetRef(), host.HeadsPrefix)
	if name == "" {
		name = strings.TrimPrefix(ref, host.HeadsPrefix)
	}
	commit := created.GetObject().GetSHA()
	if commit == "" {
		commit = sha
	}

	c.log.Debug(fmt.Sprintf("Ref created: %s", created.GetURL()))
	return host.BranchRef{Name: name, CommitSHA: commit}, nil
}

// MergeBranch implements host.Client.
// GitHub answers 204 when head is already contained in base.
func (c *Client) MergeBranch(ctx context.Context, coord host.Coordinate, spec host.MergeSpec) (host.MergeResult, error) {
	c.log.Debug(fmt.Sprintf("Merging %s into %s in %s", spec.Head, spec.Base, coord))

	req := &github.RepositoryMergeRequest{
		Base: github.Ptr(spec.Base),
		Head: github.Ptr(spec.Head),
	}
	if spec.Message != "" {
		req.CommitMessage = github.Ptr(spec.Message)
	}

	commit, resp, err := c.client.Repositories.Merge(ctx, coord.Owner, coord.Repository, req)
	if err != nil {
		return host.MergeResult{}, wrapError(host.OpMergeBranch, resp, err)
	}

	if resp != nil && resp.Response != nil && resp.StatusCode == http.StatusNoContent {
		c.log.Debug("Nothing to merge")
		return host.MergeResult{NoOp: true, Detail: "already up to date"}, nil
	}

	c.log.Debug(fmt.Sprintf("Merge commit created: %s", commit.GetSHA()))
	return host.MergeResult{
		SHA: commit.GetSHA(),
		URL: commit.GetHTMLURL(),
	}, nil
}
