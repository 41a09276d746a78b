// Package github implements host.Client on top of the GitHub REST API.
package github

import (
	"fmt"
	"net/http"

	"github.com/google/go-github/v69/github"
	"github.com/sgaunet/bullets"
	"github.com/sgaunet/repohost/internal/logger"
	"github.com/sgaunet/repohost/pkg/host"
)

const (
	platformName = "GitHub"
	// noRedirects makes GetBranch report a renamed branch instead of following it.
	noRedirects = 0
)

// Config holds the adapter settings.
type Config struct {
	// BaseURL is the API root of a GitHub Enterprise server, e.g.
	// "https://ghe.example.com/api/v3/". Empty means api.github.com.
	BaseURL string
}

// Client is a GitHub implementation of host.Client.
// Authentication is carried by the *http.Client handed to NewClient.
type Client struct {
	client *github.Client
	log    *bullets.Logger
}

// NewClient creates a GitHub client using httpClient for every request.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	gh := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set GitHub base URL: %w", err)
		}
	}

	return &Client{
		client: gh,
		log:    logger.NoLogger(),
	}, nil
}

// SetLogger sets the logger for the GitHub client.
func (c *Client) SetLogger(log *bullets.Logger) {
	c.log = log
}

// PlatformName implements host.Client.
func (c *Client) PlatformName() string {
	return platformName
}

// Ensure Client implements host.Client interface at compile time.
var _ host.Client = (*Client)(nil)
