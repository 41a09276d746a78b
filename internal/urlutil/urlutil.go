// Package urlutil extracts repository paths and hosts from git remote URLs.
//
// Three remote forms are understood:
//   - HTTPS: https://github.com/owner/repo.git
//   - SSH colon: git@github.com:owner/repo.git
//   - SSH protocol: ssh://git@github.com/owner/repo.git
package urlutil

import (
	"net/url"
	"strings"
)

const (
	// minColonParts is git@host:path split on the first colon.
	minColonParts = 2
)

// RepositoryPath returns the full path of the repository without the .git
// suffix, e.g. "group/subgroup/project". It returns "" when no path is present.
func RepositoryPath(remote string) string {
	remote = strings.TrimSuffix(strings.TrimSpace(remote), "/")
	remote = strings.TrimSuffix(remote, ".git")

	if strings.HasPrefix(remote, "git@") && !strings.Contains(remote, "://") {
		parts := strings.SplitN(remote, ":", minColonParts)
		if len(parts) < minColonParts {
			return ""
		}
		return strings.Trim(parts[1], "/")
	}

	u, err := url.Parse(remote)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.Trim(u.Path, "/")
}

// Host returns the host name of a remote, without user or port.
func Host(remote string) string {
	remote = strings.TrimSpace(remote)
	if strings.HasPrefix(remote, "git@") && !strings.Contains(remote, "://") {
		host := strings.TrimPrefix(remote, "git@")
		if i := strings.Index(host, ":"); i >= 0 {
			return host[:i]
		}
		return ""
	}
	u, err := url.Parse(remote)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// BaseURL returns the https base URL of the host serving remote,
// e.g. "https://gitlab.example.com".
func BaseURL(remote string) string {
	host := Host(remote)
	if host == "" {
		return ""
	}
	return "https://" + host
}
