// Package git reads the local repository to default the CLI's repository,
// platform and branch arguments.
package git

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sgaunet/bullets"
	"github.com/sgaunet/repohost/internal/logger"
	"github.com/sgaunet/repohost/internal/urlutil"
	"github.com/sgaunet/repohost/pkg/config"
	"github.com/sgaunet/repohost/pkg/host"
)

// DefaultRemote is the remote consulted by the detection helpers.
const DefaultRemote = "origin"

var (
	errNoRemoteURL      = errors.New("remote has no URL")
	errUnknownPlatform  = errors.New("repository is not hosted on GitLab or GitHub")
	errDetachedHead     = errors.New("HEAD is not pointing to a branch")
	errNoDefaultBranch  = errors.New("could not determine default branch")
	errNoRepositoryPath = errors.New("remote URL has no repository path")

	// ErrUnknownPlatform is returned by DetectPlatform for other hosts.
	ErrUnknownPlatform = errUnknownPlatform
	// ErrDetachedHead is returned by CurrentBranch when HEAD is detached.
	ErrDetachedHead = errDetachedHead
)

// Repository is a local git checkout.
type Repository struct {
	repo *git.Repository
	log  *bullets.Logger
}

// OpenRepository opens the repository containing path, walking up to its root.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &Repository{repo: repo, log: logger.NoLogger()}, nil
}

// SetLogger sets the logger for the repository.
func (r *Repository) SetLogger(log *bullets.Logger) {
	r.log = log
}

// RemoteURL returns the first URL of the named remote.
func (r *Repository) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", name, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: %s", errNoRemoteURL, name)
	}
	r.log.Debug(fmt.Sprintf("Remote %s URL: %s", name, urls[0]))
	return urls[0], nil
}

// DetectPlatform infers the hosting platform from the origin remote.
// Self-managed instances are recognized when their host name mentions the platform.
func (r *Repository) DetectPlatform() (config.Platform, error) {
	remote, err := r.RemoteURL(DefaultRemote)
	if err != nil {
		return "", err
	}
	return PlatformFromURL(remote)
}

// PlatformFromURL infers the hosting platform from a remote URL.
func PlatformFromURL(remote string) (config.Platform, error) {
	h := strings.ToLower(urlutil.Host(remote))
	switch {
	case strings.Contains(h, "gitlab"):
		return config.PlatformGitLab, nil
	case strings.Contains(h, "github"):
		return config.PlatformGitHub, nil
	}
	return "", fmt.Errorf("%w: %s", errUnknownPlatform, remote)
}

// Coordinate returns the owner/repository of the origin remote.
// GitLab nested groups are kept in Owner.
func (r *Repository) Coordinate() (host.Coordinate, error) {
	remote, err := r.RemoteURL(DefaultRemote)
	if err != nil {
		return host.Coordinate{}, err
	}

	path := urlutil.RepositoryPath(remote)
	if path == "" {
		return host.Coordinate{}, fmt.Errorf("%w: %s", errNoRepositoryPath, remote)
	}
	coord, err := host.ParseCoordinate(path)
	if err != nil {
		return host.Coordinate{}, fmt.Errorf("failed to parse remote %s: %w", remote, err)
	}
	return coord, nil
}

// CurrentBranch returns the checked-out branch.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", errDetachedHead
	}
	return head.Name().Short(), nil
}

// DefaultBranch returns the branch origin/HEAD points to, falling back to a
// local main or master. It does not contact the remote.
func (r *Repository) DefaultBranch() (string, error) {
	originHead := plumbing.NewRemoteHEADReferenceName(DefaultRemote)
	if ref, err := r.repo.Reference(originHead, false); err == nil && ref.Type() == plumbing.SymbolicReference {
		prefix := "refs/remotes/" + DefaultRemote + "/"
		if name, ok := strings.CutPrefix(ref.Target().String(), prefix); ok {
			return name, nil
		}
	}

	for _, candidate := range []string{"main", "master"} {
		if r.branchExists(candidate) {
			return candidate, nil
		}
	}
	return "", errNoDefaultBranch
}

func (r *Repository) branchExists(branchName string) bool {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(branchName), true)
	return err == nil
}
