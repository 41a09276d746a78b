package main

import (
	"bytes"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/sgaunet/repohost/internal/logger"
	"github.com/sgaunet/repohost/pkg/config"
	"github.com/sgaunet/repohost/pkg/git"
	"github.com/sgaunet/repohost/pkg/reconcile"
	"github.com/sgaunet/repohost/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfManagedBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		platform config.Platform
		remote   string
		want     string
	}{
		{"public github", config.PlatformGitHub, "git@github.com:owner/repo.git", ""},
		{"public gitlab", config.PlatformGitLab, "https://gitlab.com/group/repo.git", ""},
		{"enterprise github", config.PlatformGitHub, "https://github.example.com/owner/repo.git", "https://github.example.com/api/v3/"},
		{"self-managed gitlab", config.PlatformGitLab, "git@gitlab.example.com:group/sub/repo.git", "https://gitlab.example.com"},
		{"unparsable", config.PlatformGitLab, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selfManagedBaseURL(tt.platform, tt.remote))
		})
	}
}

// openClone creates an empty repository with an origin remote and opens it.
func openClone(t *testing.T, originURL string) *git.Repository {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: git.DefaultRemote, URLs: []string{originURL}})
	require.NoError(t, err)

	r, err := git.OpenRepository(dir)
	require.NoError(t, err)
	return r
}

func TestDetectPlatform_BaseURL(t *testing.T) {
	log = logger.NoLogger()
	enterprise := "https://github.example.com/owner/repo.git"

	t.Run("detected platform derives base url", func(t *testing.T) {
		s := &session{cfg: &config.Config{}, repo: openClone(t, enterprise)}
		require.NoError(t, s.detectPlatform())
		assert.Equal(t, config.PlatformGitHub, s.cfg.Platform)
		assert.Equal(t, "https://github.example.com/api/v3/", s.cfg.BaseURL)
	})

	t.Run("configured platform still derives base url", func(t *testing.T) {
		s := &session{cfg: &config.Config{Platform: config.PlatformGitHub}, repo: openClone(t, enterprise)}
		require.NoError(t, s.detectPlatform())
		assert.Equal(t, "https://github.example.com/api/v3/", s.cfg.BaseURL)
	})

	t.Run("neutral host name uses configured platform", func(t *testing.T) {
		s := &session{
			cfg:  &config.Config{Platform: config.PlatformGitLab},
			repo: openClone(t, "git@git.corp.example:group/repo.git"),
		}
		require.NoError(t, s.detectPlatform())
		assert.Equal(t, "https://git.corp.example", s.cfg.BaseURL)
	})

	t.Run("configured base url is kept", func(t *testing.T) {
		cfg := &config.Config{Platform: config.PlatformGitHub, BaseURL: "https://api.example.com/"}
		s := &session{cfg: cfg, repo: openClone(t, enterprise)}
		require.NoError(t, s.detectPlatform())
		assert.Equal(t, "https://api.example.com/", s.cfg.BaseURL)
	})

	t.Run("origin on the other platform is ignored", func(t *testing.T) {
		s := &session{
			cfg:  &config.Config{Platform: config.PlatformGitHub},
			repo: openClone(t, "https://gitlab.example.com/group/repo.git"),
		}
		require.NoError(t, s.detectPlatform())
		assert.Empty(t, s.cfg.BaseURL)
	})

	t.Run("no clone and no platform", func(t *testing.T) {
		s := &session{cfg: &config.Config{}}
		assert.ErrorIs(t, s.detectPlatform(), errNoPlatform)
	})
}

func TestReport(t *testing.T) {
	log = logger.NoLogger()

	t.Run("merged prints sha and url", func(t *testing.T) {
		var out bytes.Buffer
		err := report(&out, reconcile.Merged(fixtures.SuccessfulMerge()), time.Now())
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Merged "+fixtures.MergeSHA)
		assert.Contains(t, out.String(), fixtures.SuccessfulMerge().URL)
	})

	t.Run("created", func(t *testing.T) {
		var out bytes.Buffer
		err := report(&out, reconcile.Created(fixtures.MainBranch()), time.Now())
		require.NoError(t, err)
		assert.Equal(t, "Created main at "+fixtures.MainSHA+"\n", out.String())
	})

	t.Run("failure carries reason", func(t *testing.T) {
		var out bytes.Buffer
		outcome := reconcile.Failed(reconcile.ReasonMergeConflict, "merging feature into main: conflict", nil)
		err := report(&out, outcome, time.Now())
		require.Error(t, err)
		assert.ErrorIs(t, err, reconcile.ErrMergeConflict)
		assert.Contains(t, err.Error(), "MergeConflict")
		assert.Empty(t, out.String())
	})
}
