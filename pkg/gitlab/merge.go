package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sgaunet/repohost/pkg/host"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const (
	mergeRequestOpened = "opened"

	defaultPollInterval = 2 * time.Second
	// maxMergeabilityPolls bounds the wait when the caller's context has no deadline.
	maxMergeabilityPolls = 30
)

// detailed_merge_status values GitLab reports while it is still computing mergeability.
var pendingMergeStatuses = map[string]bool{
	"unchecked":         true,
	"checking":          true,
	"preparing":         true,
	"approvals_syncing": true,
}

// MergeBranch implements host.Client.
// Head already contained in base is reported as a no-op without opening a merge request.
func (c *Client) MergeBranch(ctx context.Context, coord host.Coordinate, spec host.MergeSpec) (host.MergeResult, error) {
	c.log.Debug(fmt.Sprintf("Merging %s into %s in %s", spec.Head, spec.Base, coord))

	cmp, resp, err := c.client.Repositories.Compare(projectID(coord), &gitlab.CompareOptions{
		From: gitlab.Ptr(spec.Base),
		To:   gitlab.Ptr(spec.Head),
	}, gitlab.WithContext(ctx))
	if err != nil {
		// a vanished side is not a conflict
		return host.MergeResult{}, &host.Error{
			Op: host.OpMergeBranch, Kind: host.KindHost, StatusCode: statusOf(resp, err), Err: err,
		}
	}
	if len(cmp.Commits) == 0 {
		c.log.Debug("Nothing to merge")
		return host.MergeResult{NoOp: true, Detail: "already up to date"}, nil
	}

	iid, webURL, err := c.openMergeRequest(ctx, coord, spec)
	if err != nil {
		return host.MergeResult{}, err
	}

	if err := c.waitMergeable(ctx, coord, iid); err != nil {
		c.log.Debug(fmt.Sprintf("Merge request %s left open", webURL))
		return host.MergeResult{}, err
	}

	opts := &gitlab.AcceptMergeRequestOptions{}
	if spec.Message != "" {
		opts.MergeCommitMessage = gitlab.Ptr(spec.Message)
	}
	c.log.Debug(fmt.Sprintf("Accepting merge request !%d", iid))
	merged, resp, err := c.client.MergeRequests.AcceptMergeRequest(projectID(coord), iid, opts, gitlab.WithContext(ctx))
	if err != nil {
		c.log.Debug(fmt.Sprintf("Merge request %s left open", webURL))
		return host.MergeResult{}, wrapError(host.OpMergeBranch, resp, err)
	}

	sha := merged.MergeCommitSHA
	if sha == "" {
		// fast-forward merges have no merge commit
		sha = merged.SHA
	}
	c.log.Debug(fmt.Sprintf("Merge request !%d merged at %s", merged.IID, sha))
	return host.MergeResult{
		SHA:    sha,
		URL:    merged.WebURL,
		Detail: fmt.Sprintf("merge request !%d", merged.IID),
	}, nil
}

// openMergeRequest creates a merge request for the pair, reusing the open one on 409.
// It returns the merge request IID and web URL.
func (c *Client) openMergeRequest(ctx context.Context, coord host.Coordinate, spec host.MergeSpec) (int, string, error) {
	title := spec.Message
	if title == "" {
		title = fmt.Sprintf("Merge %s into %s", spec.Head, spec.Base)
	}

	mr, resp, err := c.client.MergeRequests.CreateMergeRequest(projectID(coord), &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(title),
		SourceBranch: gitlab.Ptr(spec.Head),
		TargetBranch: gitlab.Ptr(spec.Base),
	}, gitlab.WithContext(ctx))
	if err == nil {
		c.log.Debug(fmt.Sprintf("Merge request created - IID: %d, URL: %s", mr.IID, mr.WebURL))
		return mr.IID, mr.WebURL, nil
	}
	if statusOf(resp, err) != http.StatusConflict {
		return 0, "", &host.Error{
			Op: host.OpMergeBranch, Kind: host.KindHost, StatusCode: statusOf(resp, err), Err: err,
		}
	}

	c.log.Debug("Merge request already open, reusing it")
	mrs, resp, err := c.client.MergeRequests.ListProjectMergeRequests(projectID(coord), &gitlab.ListProjectMergeRequestsOptions{
		State:        gitlab.Ptr(mergeRequestOpened),
		SourceBranch: gitlab.Ptr(spec.Head),
		TargetBranch: gitlab.Ptr(spec.Base),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return 0, "", &host.Error{
			Op: host.OpMergeBranch, Kind: host.KindHost, StatusCode: statusOf(resp, err), Err: err,
		}
	}
	if len(mrs) == 0 {
		return 0, "", host.NewError(host.OpMergeBranch, 0, errMRNotFound)
	}
	return mrs[0].IID, mrs[0].WebURL, nil
}

// waitMergeable polls the merge request until GitLab has finished computing
// whether it can be merged. Accepting earlier is rejected with 405/422 even for
// a clean merge. After maxMergeabilityPolls the accept is attempted anyway.
func (c *Client) waitMergeable(ctx context.Context, coord host.Coordinate, iid int) error {
	for attempt := 1; ; attempt++ {
		mr, resp, err := c.client.MergeRequests.GetMergeRequest(projectID(coord), iid, nil, gitlab.WithContext(ctx))
		if err != nil {
			return &host.Error{
				Op: host.OpMergeBranch, Kind: host.KindHost, StatusCode: statusOf(resp, err), Err: err,
			}
		}
		if !pendingMergeStatuses[mr.DetailedMergeStatus] {
			c.log.Debug(fmt.Sprintf("Merge request !%d status: %s", iid, mr.DetailedMergeStatus))
			return nil
		}
		if attempt >= maxMergeabilityPolls {
			c.log.Debug(fmt.Sprintf("Merge request !%d still %s, accepting anyway", iid, mr.DetailedMergeStatus))
			return nil
		}

		c.log.Debug(fmt.Sprintf("Merge request !%d is %s, waiting %s", iid, mr.DetailedMergeStatus, c.pollInterval))
		select {
		case <-ctx.Done():
			return &host.Error{Op: host.OpMergeBranch, Kind: host.KindHost, Err: ctx.Err()}
		case <-time.After(c.pollInterval):
		}
	}
}
