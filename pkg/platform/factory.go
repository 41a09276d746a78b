// Package platform builds an authenticated host.Client for the configured
// hosting service, with the shared HTTP transport chain underneath.
package platform

import (
	"errors"
	"fmt"

	"github.com/sgaunet/bullets"
	"github.com/sgaunet/repohost/internal/security"
	"github.com/sgaunet/repohost/pkg/config"
	ghclient "github.com/sgaunet/repohost/pkg/github"
	glclient "github.com/sgaunet/repohost/pkg/gitlab"
	"github.com/sgaunet/repohost/pkg/host"
)

var (
	errUnsupportedPlatform = errors.New("unsupported platform")
	errTokenRequired       = errors.New("no token configured, run `repohost login` or set REPOHOST_TOKEN")

	// ErrUnsupportedPlatform is returned for a platform other than github or gitlab.
	ErrUnsupportedPlatform = errUnsupportedPlatform
	// ErrTokenRequired is returned when the configuration carries no token.
	ErrTokenRequired = errTokenRequired
)

// NewClient creates the host.Client implementation for cfg.Platform.
//
//nolint:ireturn // Factory function must return interface to enable platform abstraction.
func NewClient(cfg *config.Config, log *bullets.Logger) (host.Client, error) {
	if cfg.Token == "" {
		return nil, errTokenRequired
	}

	httpClient, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	switch cfg.Platform {
	case config.PlatformGitHub:
		security.DebugAuth(log, "GitHub", map[string]string{
			"method":   "oauth2 bearer",
			"token":    cfg.Token,
			"base_url": cfg.BaseURL,
			"cache":    fmt.Sprint(cfg.Cache.Enabled),
		})
		client, err := ghclient.NewClient(ghclient.Config{BaseURL: cfg.BaseURL}, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub client: %w", err)
		}
		client.SetLogger(log)
		return client, nil

	case config.PlatformGitLab:
		oauth := cfg.TokenType == config.TokenTypeOAuth
		method := "private token"
		if oauth {
			method = "oauth2 bearer"
		}
		security.DebugAuth(log, "GitLab", map[string]string{
			"method":   method,
			"token":    cfg.Token,
			"base_url": cfg.BaseURL,
			"cache":    fmt.Sprint(cfg.Cache.Enabled),
		})
		client, err := glclient.NewClient(glclient.Config{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			OAuth:   oauth,
		}, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitLab client: %w", err)
		}
		client.SetLogger(log)
		return client, nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedPlatform, cfg.Platform)
	}
}
