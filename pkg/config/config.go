// Package config loads, validates and persists repohost settings.
//
// Settings come from ~/.config/repohost/config.yml and are overlaid by
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/sgaunet/repohost/internal/security"
	"gopkg.in/yaml.v3"
)

// Platform names a hosting service.
type Platform string

// Supported platforms.
const (
	PlatformGitHub Platform = "github"
	PlatformGitLab Platform = "gitlab"
)

// TokenTypeOAuth marks an OAuth access token.
const TokenTypeOAuth = "oauth"

const (
	defaultRetries = 3
	defaultTimeout = "30s"
	dirPerm        = 0o700
	filePerm       = 0o600
)

var (
	errInvalidPlatform = errors.New("platform must be github or gitlab")
	errInvalidRetries  = errors.New("http.retries must not be negative")
	errInvalidTimeout  = errors.New("http.timeout is not a valid duration")
	errInvalidBaseURL  = errors.New("base_url must be an absolute http(s) URL")
	errUnknownKey      = errors.New("unknown configuration key")

	// ErrInvalidPlatform is returned for a platform other than github or gitlab.
	ErrInvalidPlatform = errInvalidPlatform
	// ErrUnknownKey is returned by Set for keys not listed in Keys.
	ErrUnknownKey = errUnknownKey
)

// Config represents the complete configuration for repohost.
type Config struct {
	Platform Platform    `yaml:"platform,omitempty" env:"REPOHOST_PLATFORM, overwrite"`
	BaseURL  string      `yaml:"base_url,omitempty" env:"REPOHOST_BASE_URL, overwrite"`
	Username string      `yaml:"username,omitempty" env:"REPOHOST_USERNAME, overwrite"`
	Token    string      `yaml:"token,omitempty"`
	OAuth    OAuthConfig `yaml:"oauth"`
	Cache    CacheConfig `yaml:"cache"`
	HTTP     HTTPConfig  `yaml:"http"`

	// TokenType is "oauth" for tokens issued by `repohost login`, empty for personal tokens.
	TokenType string `yaml:"token_type,omitempty"`
}

// OAuthConfig contains the OAuth application used by `repohost login`.
type OAuthConfig struct {
	ClientID string `yaml:"client_id,omitempty" env:"REPOHOST_OAUTH_CLIENT_ID, overwrite"`
}

// CacheConfig controls the HTTP response cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" env:"REPOHOST_CACHE, overwrite"`
	Dir     string `yaml:"dir,omitempty" env:"REPOHOST_CACHE_DIR, overwrite"`
}

// HTTPConfig contains transport settings.
type HTTPConfig struct {
	Retries int    `yaml:"retries"`
	Timeout string `yaml:"timeout"`
}

// tokenEnv holds the token variables; REPOHOST_TOKEN wins over the platform one.
type tokenEnv struct {
	Token       string `env:"REPOHOST_TOKEN"`
	GitHubToken string `env:"GITHUB_TOKEN"`
	GitLabToken string `env:"GITLAB_TOKEN"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Retries: defaultRetries,
			Timeout: defaultTimeout,
		},
	}
}

// DefaultPath returns ~/.config/repohost/config.yml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "repohost", "config.yml"), nil
}

// Load reads path and overlays the process environment.
// A missing file yields the defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	return LoadWith(ctx, path, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit environment source.
func LoadWith(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := Default()

	// #nosec G304 - Reading config from user's home directory is intentional
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(ctx, lookuper); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: c, Lookuper: lookuper}); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	var tokens tokenEnv
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &tokens, Lookuper: lookuper}); err != nil {
		return fmt.Errorf("failed to read token environment: %w", err)
	}

	switch {
	case tokens.Token != "":
		c.Token, c.TokenType = tokens.Token, ""
	case c.Platform == PlatformGitHub && tokens.GitHubToken != "":
		c.Token, c.TokenType = tokens.GitHubToken, ""
	case c.Platform == PlatformGitLab && tokens.GitLabToken != "":
		c.Token, c.TokenType = tokens.GitLabToken, ""
	}
	return nil
}

// Validate checks that the configuration values are usable.
// An empty platform is valid; it is detected from the git remote later.
func (c *Config) Validate() error {
	switch c.Platform {
	case "", PlatformGitHub, PlatformGitLab:
	default:
		return fmt.Errorf("%w: %q", errInvalidPlatform, c.Platform)
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", errInvalidBaseURL, c.BaseURL)
		}
	}

	if c.HTTP.Retries < 0 {
		return errInvalidRetries
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Timeout returns the parsed HTTP timeout, zero meaning none.
func (c *Config) Timeout() (time.Duration, error) {
	if c.HTTP.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidTimeout, c.HTTP.Timeout)
	}
	return d, nil
}

// SecureToken returns the token wrapped for safe printing.
func (c *Config) SecureToken() security.SecureToken {
	return security.NewSecureToken(c.Token)
}

// CacheDir returns the configured cache directory, or ~/.cache/repohost.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(dir, "repohost"), nil
}

// Save writes the configuration to path, readable by the owner only.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, filePerm); err != nil {
		return fmt.Errorf("failed to restrict config file permissions: %w", err)
	}
	return nil
}

// Masked returns a copy safe to print, with the token replaced by its masked form.
func (c *Config) Masked() *Config {
	masked := *c
	if c.Token != "" {
		masked.Token = c.SecureToken().String()
	}
	return &masked
}

// Keys lists the keys accepted by Set.
func Keys() []string {
	return []string{
		"platform", "base_url", "username", "token", "oauth.client_id",
		"cache.enabled", "cache.dir", "http.retries", "http.timeout",
	}
}

// Set assigns one key from its string form and validates the result.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "platform":
		next.Platform = Platform(value)
	case "base_url":
		next.BaseURL = value
	case "username":
		next.Username = value
	case "token":
		// a token set by hand is a personal token
		next.Token, next.TokenType = value, ""
	case "oauth.client_id":
		next.OAuth.ClientID = value
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		next.Cache.Enabled = b
	case "cache.dir":
		next.Cache.Dir = value
	case "http.retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		next.HTTP.Retries = n
	case "http.timeout":
		next.HTTP.Timeout = value
	default:
		return fmt.Errorf("%w: %s", errUnknownKey, key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
