package gitlab

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sgaunet/repohost/pkg/host"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const encodingBase64 = "base64"

// GetFile implements host.Client.
func (c *Client) GetFile(ctx context.Context, coord host.Coordinate, path, ref string) (host.File, error) {
	f, err := c.getFile(ctx, coord, path, ref)
	if err != nil {
		return host.File{}, err
	}

	content := []byte(f.Content)
	if f.Encoding == encodingBase64 {
		content, err = base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return host.File{}, host.NewError(host.OpGetFile, 0, fmt.Errorf("failed to decode file content: %w", err))
		}
	}

	return host.File{
		Path:    f.FilePath,
		Ref:     ref,
		SHA:     f.BlobID,
		Content: content,
	}, nil
}

func (c *Client) getFile(ctx context.Context, coord host.Coordinate, path, ref string) (*gitlab.File, error) {
	if ref == "" {
		ref = defaultRef
	}
	c.log.Debug(fmt.Sprintf("Getting GitLab file %s@%s in %s", path, ref, coord))

	f, resp, err := c.client.RepositoryFiles.GetFile(projectID(coord), path, &gitlab.GetFileOptions{
		Ref: gitlab.Ptr(ref),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapError(host.OpGetFile, resp, err)
	}
	return f, nil
}

// UpdateFile implements host.Client.
// The file is created when missing. When update.SHA is set it must match the
// current blob, and the commit is pinned to the last commit that touched the file.
func (c *Client) UpdateFile(ctx context.Context, coord host.Coordinate, update host.FileUpdate) (host.FileCommit, error) {
	action := gitlab.FileCreate
	var lastCommitID *string

	existing, err := c.getFile(ctx, coord, update.Path, update.Branch)
	switch {
	case err == nil:
		if update.SHA != "" && update.SHA != existing.BlobID {
			return host.FileCommit{}, &host.Error{
				Op:   host.OpUpdateFile,
				Kind: host.KindConflict,
				Err:  fmt.Errorf("%w: %s is at %s, not %s", errStaleBlob, update.Path, existing.BlobID, update.SHA),
			}
		}
		action = gitlab.FileUpdate
		lastCommitID = gitlab.Ptr(existing.LastCommitID)
	case errors.Is(err, host.ErrNotFound):
	default:
		var he *host.Error
		status := 0
		if errors.As(err, &he) {
			status = he.StatusCode
		}
		return host.FileCommit{}, &host.Error{Op: host.OpUpdateFile, Kind: host.KindHost, StatusCode: status, Err: err}
	}

	c.log.Debug(fmt.Sprintf("Committing %s of %s on %s", action, update.Path, update.Branch))
	commit, resp, err := c.client.Commits.CreateCommit(projectID(coord), &gitlab.CreateCommitOptions{
		Branch:        gitlab.Ptr(update.Branch),
		CommitMessage: gitlab.Ptr(update.Message),
		Actions: []*gitlab.CommitActionOptions{{
			Action:       gitlab.Ptr(action),
			FilePath:     gitlab.Ptr(update.Path),
			Content:      gitlab.Ptr(base64.StdEncoding.EncodeToString(update.Content)),
			Encoding:     gitlab.Ptr(encodingBase64),
			LastCommitID: lastCommitID,
		}},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return host.FileCommit{}, wrapError(host.OpUpdateFile, resp, err)
	}

	return host.FileCommit{
		Path:      update.Path,
		Branch:    update.Branch,
		CommitSHA: commit.ID,
		Created:   action == gitlab.FileCreate,
	}, nil
}

// CompareDiff implements host.Client.
// GitLab returns per-file hunks; they are reassembled into one unified diff.
func (c *Client) CompareDiff(ctx context.Context, coord host.Coordinate, base, head string) (host.Diff, error) {
	c.log.Debug(fmt.Sprintf("Comparing %s...%s in %s", base, head, coord))

	cmp, resp, err := c.client.Repositories.Compare(projectID(coord), &gitlab.CompareOptions{
		From: gitlab.Ptr(base),
		To:   gitlab.Ptr(head),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return host.Diff{}, wrapError(host.OpCompareDiff, resp, err)
	}

	var sb strings.Builder
	for _, d := range cmp.Diffs {
		writeFileDiff(&sb, d)
	}
	return host.Diff{Base: base, Head: head, Raw: sb.String()}, nil
}

func writeFileDiff(sb *strings.Builder, d *gitlab.Diff) {
	fmt.Fprintf(sb, "diff --git a/%s b/%s\n", d.OldPath, d.NewPath)
	oldName, newName := "a/"+d.OldPath, "b/"+d.NewPath
	switch {
	case d.NewFile:
		fmt.Fprintf(sb, "new file mode %s\n", d.BMode)
		oldName = "/dev/null"
	case d.DeletedFile:
		fmt.Fprintf(sb, "deleted file mode %s\n", d.AMode)
		newName = "/dev/null"
	case d.RenamedFile:
		fmt.Fprintf(sb, "rename from %s\nrename to %s\n", d.OldPath, d.NewPath)
	}
	fmt.Fprintf(sb, "--- %s\n+++ %s\n", oldName, newName)
	sb.WriteString(d.Diff)
	if d.Diff != "" && !strings.HasSuffix(d.Diff, "\n") {
		sb.WriteString("\n")
	}
}
