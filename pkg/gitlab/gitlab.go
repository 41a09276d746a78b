// Package gitlab implements host.Client on top of the GitLab REST API.
//
// GitLab has no direct "merge branch" endpoint, so MergeBranch opens (or reuses)
// a merge request for the pair, waits for GitLab to finish its mergeability
// check, and accepts it.
package gitlab

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sgaunet/bullets"
	"github.com/sgaunet/repohost/internal/logger"
	"github.com/sgaunet/repohost/pkg/host"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const (
	platformName = "GitLab"
	// defaultRef is used by GetFile when no ref is given.
	defaultRef = "HEAD"
)

// Config holds the adapter settings.
type Config struct {
	// BaseURL is the instance URL, e.g. "https://gitlab.example.com". Empty means gitlab.com.
	BaseURL string
	// Token is a personal access token, or an OAuth access token when OAuth is set.
	Token string
	OAuth bool
	// PollInterval is the wait between merge request status checks. Zero means 2s.
	PollInterval time.Duration
}

// Client is a GitLab implementation of host.Client.
type Client struct {
	client       *gitlab.Client
	log          *bullets.Logger
	pollInterval time.Duration
}

// NewClient creates a GitLab client sending requests through httpClient.
// The SDK's own retries are disabled; retry policy belongs to httpClient's transport.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.Token == "" {
		return nil, errTokenRequired
	}

	opts := []gitlab.ClientOptionFunc{gitlab.WithoutRetries()}
	if httpClient != nil {
		opts = append(opts, gitlab.WithHTTPClient(httpClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(cfg.BaseURL))
	}

	var (
		gl  *gitlab.Client
		err error
	)
	if cfg.OAuth {
		gl, err = gitlab.NewOAuthClient(cfg.Token, opts...)
	} else {
		gl, err = gitlab.NewClient(cfg.Token, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Client{
		client:       gl,
		log:          logger.NoLogger(),
		pollInterval: pollInterval,
	}, nil
}

// SetLogger sets the logger for the GitLab client.
func (c *Client) SetLogger(log *bullets.Logger) {
	c.log = log
}

// PlatformName implements host.Client.
func (c *Client) PlatformName() string {
	return platformName
}

// projectID is the URL-escaped project path client-go accepts in place of a numeric ID.
func projectID(coord host.Coordinate) string {
	return coord.String()
}

// Ensure Client implements host.Client interface at compile time.
var _ host.Client = (*Client)(nil)
