package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v69/github"
	"github.com/sgaunet/repohost/pkg/host"
)

// GetFile implements host.Client.
func (c *Client) GetFile(ctx context.Context, coord host.Coordinate, path, ref string) (host.File, error) {
	c.log.Debug(fmt.Sprintf("Getting GitHub file %s@%s in %s", path, ref, coord))

	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}

	file, dir, resp, err := c.client.Repositories.GetContents(ctx, coord.Owner, coord.Repository, path, opts)
	if err != nil {
		return host.File{}, wrapError(host.OpGetFile, resp, err)
	}
	if file == nil || dir != nil {
		return host.File{}, host.NewError(host.OpGetFile, 0, fmt.Errorf("%w: %s", errNotAFile, path))
	}

	content, err := file.GetContent()
	if err != nil {
		return host.File{}, host.NewError(host.OpGetFile, 0, fmt.Errorf("failed to decode file content: %w", err))
	}

	return host.File{
		Path:    file.GetPath(),
		Ref:     ref,
		SHA:     file.GetSHA(),
		Content: []byte(content),
	}, nil
}

// UpdateFile implements host.Client.
// Without update.SHA the current blob is looked up first, so the call creates
// the file when it is missing and updates it otherwise.
func (c *Client) UpdateFile(ctx context.Context, coord host.Coordinate, update host.FileUpdate) (host.FileCommit, error) {
	sha := update.SHA
	if sha == "" {
		existing, err := c.GetFile(ctx, coord, update.Path, update.Branch)
		switch {
		case err == nil:
			sha = existing.SHA
		case errors.Is(err, host.ErrNotFound):
		default:
			return host.FileCommit{}, &host.Error{
				Op:         host.OpUpdateFile,
				Kind:       host.KindHost,
				StatusCode: statusCodeOf(err),
				Err:        err,
			}
		}
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(update.Message),
		Content: update.Content,
	}
	if update.Branch != "" {
		opts.Branch = github.Ptr(update.Branch)
	}

	var (
		res  *github.RepositoryContentResponse
		resp *github.Response
		err  error
	)
	if sha == "" {
		c.log.Debug(fmt.Sprintf("Creating GitHub file %s on %s", update.Path, update.Branch))
		res, resp, err = c.client.Repositories.CreateFile(ctx, coord.Owner, coord.Repository, update.Path, opts)
	} else {
		c.log.Debug(fmt.Sprintf("Updating GitHub file %s on %s (blob %s)", update.Path, update.Branch, sha))
		opts.SHA = github.Ptr(sha)
		res, resp, err = c.client.Repositories.UpdateFile(ctx, coord.Owner, coord.Repository, update.Path, opts)
	}
	if err != nil {
		return host.FileCommit{}, wrapError(host.OpUpdateFile, resp, err)
	}

	return host.FileCommit{
		Path:      update.Path,
		Branch:    update.Branch,
		CommitSHA: res.Commit.GetSHA(),
		Created:   sha == "",
	}, nil
}

// CompareDiff implements host.Client.
func (c *Client) CompareDiff(ctx context.Context, coord host.Coordinate, base, head string) (host.Diff, error) {
	c.log.Debug(fmt.Sprintf("Comparing %s...%s in %s", base, head, coord))

	raw, resp, err := c.client.Repositories.CompareCommitsRaw(ctx, coord.Owner, coord.Repository, base, head,
		github.RawOptions{Type: github.Diff})
	if err != nil {
		return host.Diff{}, wrapError(host.OpCompareDiff, resp, err)
	}

	return host.Diff{Base: base, Head: head, Raw: raw}, nil
}

func statusCodeOf(err error) int {
	var he *host.Error
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
