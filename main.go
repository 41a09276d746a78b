// Package main provides the entry point for the repohost CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sgaunet/bullets"
	"github.com/sgaunet/repohost/internal/logger"
	"github.com/sgaunet/repohost/internal/security"
	"github.com/sgaunet/repohost/internal/urlutil"
	"github.com/sgaunet/repohost/pkg/config"
	"github.com/sgaunet/repohost/pkg/git"
	"github.com/sgaunet/repohost/pkg/host"
	"github.com/spf13/cobra"
)

const (
	publicGitHubHost = "github.com"
	publicGitLabHost = "gitlab.com"
	gitHubAPIPath    = "/api/v3/"
)

var (
	errNoRepository = errors.New("no repository given, use --repo owner/name or run inside a clone")
	errNoPlatform   = errors.New("no platform given, use --platform or run inside a clone")
)

var (
	logLevel     string
	configPath   string
	platformFlag string
	repoFlag     string
	log          *bullets.Logger
)

var rootCmd = &cobra.Command{
	Use:   "repohost",
	Short: "Branch reconciliation and file access for GitHub and GitLab",
	Long: `repohost talks to GitHub and GitLab through one interface. It creates a
destination branch from a source branch, or merges the source into it when the
destination already exists, and reads or writes single files and diffs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		log = logger.NewLogger(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info",
		"Set log level ("+strings.Join(logger.Levels, ", ")+")")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Configuration file (default ~/.config/repohost/config.yml)")
	rootCmd.PersistentFlags().StringVar(&platformFlag, "platform", "",
		"Hosting platform (github, gitlab), detected from origin when empty")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "",
		"Repository as owner/name, detected from origin when empty")

	rootCmd.AddCommand(reconcileCmd, ensureBranchCmd, fileCmd, diffCmd, loginCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", security.SanitizeError(err))
		os.Exit(1)
	}
}

// session is what every remote command needs: settings, target and local clone.
type session struct {
	cfg   *config.Config
	coord host.Coordinate
	repo  *git.Repository // nil outside a clone
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return path, nil
}

// loadConfig reads the settings and applies --platform on top.
func loadConfig(ctx context.Context) (*config.Config, string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Debug("Configuration loaded from " + path)

	if platformFlag != "" {
		cfg.Platform = config.Platform(strings.ToLower(platformFlag))
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("invalid --platform: %w", err)
		}
	}
	return cfg, path, nil
}

// openSession loads settings and fills platform, base URL and repository
// from the local clone when flags and settings leave them empty.
func openSession(ctx context.Context) (*session, error) {
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, repo: openLocal()}

	if err := s.detectPlatform(); err != nil {
		return nil, err
	}
	if err := s.resolveCoordinate(); err != nil {
		return nil, err
	}
	log.Debug(fmt.Sprintf("Target %s on %s", s.coord, s.cfg.Platform))
	return s, nil
}

// openLocal opens the clone around the working directory, or returns nil.
func openLocal() *git.Repository {
	repo, err := git.OpenRepository(".")
	if err != nil {
		log.Debug(fmt.Sprintf("No local repository: %v", err))
		return nil
	}
	repo.SetLogger(log)
	return repo
}

func (s *session) detectPlatform() error {
	if s.cfg.Platform == "" {
		if s.repo == nil {
			return errNoPlatform
		}
		p, err := s.repo.DetectPlatform()
		if err != nil {
			return fmt.Errorf("failed to detect platform: %w", err)
		}
		s.cfg.Platform = p
		log.Info("Platform detected: " + string(p))
	}
	s.deriveBaseURL()
	return nil
}

// deriveBaseURL points the client at the self-managed host serving origin when
// no base URL is configured. An origin that names the other platform is ignored.
func (s *session) deriveBaseURL() {
	if s.cfg.BaseURL != "" || s.repo == nil {
		return
	}
	remote, err := s.repo.RemoteURL(git.DefaultRemote)
	if err != nil {
		return
	}
	if p, err := git.PlatformFromURL(remote); err == nil && p != s.cfg.Platform {
		return
	}
	s.cfg.BaseURL = selfManagedBaseURL(s.cfg.Platform, remote)
	if s.cfg.BaseURL != "" {
		log.Debug("Using API base URL " + s.cfg.BaseURL)
	}
}

// selfManagedBaseURL returns the API base URL for a remote that is not on
// github.com or gitlab.com, or "" for the public services.
func selfManagedBaseURL(p config.Platform, remote string) string {
	h := strings.ToLower(urlutil.Host(remote))
	if h == "" || h == publicGitHubHost || h == publicGitLabHost {
		return ""
	}
	base := urlutil.BaseURL(remote)
	if p == config.PlatformGitHub {
		return base + gitHubAPIPath
	}
	return base
}

func (s *session) resolveCoordinate() error {
	if repoFlag != "" {
		coord, err := host.ParseCoordinate(repoFlag)
		if err != nil {
			return fmt.Errorf("invalid --repo: %w", err)
		}
		s.coord = coord
		return nil
	}
	if s.repo == nil {
		return errNoRepository
	}
	coord, err := s.repo.Coordinate()
	if err != nil {
		return fmt.Errorf("failed to read repository from origin: %w", err)
	}
	s.coord = coord
	return nil
}

// currentBranch defaults a branch flag to the checked-out branch.
func (s *session) currentBranch(flag, name string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if s.repo == nil {
		return "", fmt.Errorf("--%s is required outside a clone", name)
	}
	branch, err := s.repo.CurrentBranch()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch for --%s: %w", name, err)
	}
	log.Debug(fmt.Sprintf("Using current branch %s for --%s", branch, name))
	return branch, nil
}

// defaultBranch defaults a branch flag to the clone's default branch.
func (s *session) defaultBranch(flag, name string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if s.repo == nil {
		return "", fmt.Errorf("--%s is required outside a clone", name)
	}
	branch, err := s.repo.DefaultBranch()
	if err != nil {
		return "", fmt.Errorf("failed to get default branch for --%s: %w", name, err)
	}
	return branch, nil
}
