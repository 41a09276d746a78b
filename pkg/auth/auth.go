// Package auth obtains access tokens with golang.org/x/oauth2.
//
// Issuance happens once, at `repohost login`; afterwards the stored token is
// used directly. GitLab supports the resource-owner password grant, so the
// user's username and password are exchanged for a token. GitHub has no
// password grant and uses the device authorization flow instead.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sgaunet/bullets"
	"github.com/sgaunet/repohost/internal/logger"
	"github.com/sgaunet/repohost/internal/security"
	"github.com/sgaunet/repohost/pkg/config"
	"golang.org/x/oauth2"
)

const (
	defaultGitHubURL = "https://github.com"
	defaultGitLabURL = "https://gitlab.com"
	gitHubAPISuffix  = "/api/v3"
	gitLabAPISuffix  = "/api/v4"

	errorCodeInvalidGrant = "invalid_grant"
	errorCodeAccessDenied = "access_denied"
	errorCodeExpired      = "expired_token"
)

var (
	errEmptyCredentials   = errors.New("username and password are required")
	errClientIDRequired   = errors.New("oauth.client_id is required for GitHub device login")
	errInvalidCredentials = errors.New("invalid username or password")
	errAccessDenied       = errors.New("authorization was denied or expired")
	errUnsupported        = errors.New("unsupported platform for login")

	// ErrEmptyCredentials is returned when a username or password is missing.
	ErrEmptyCredentials = errEmptyCredentials
	// ErrClientIDRequired is returned by NewIssuer for GitHub without a client ID.
	ErrClientIDRequired = errClientIDRequired
	// ErrInvalidCredentials is returned when the host rejects the credentials.
	ErrInvalidCredentials = errInvalidCredentials
	// ErrAccessDenied is returned when the user declines or lets a device code expire.
	ErrAccessDenied = errAccessDenied
)

// Credentials are the user's login details. Device flows ignore them.
type Credentials struct {
	Username string
	Password string
}

// Issuer exchanges credentials for an access token.
type Issuer interface {
	Issue(ctx context.Context, creds Credentials) (*oauth2.Token, error)
}

// DevicePrompt shows the verification URI and user code of a device flow.
type DevicePrompt func(verificationURI, userCode string)

// NewIssuer returns the issuer for cfg.Platform. httpClient should be unauthenticated.
//
//nolint:ireturn // Factory function returns the interface.
func NewIssuer(cfg *config.Config, httpClient *http.Client, prompt DevicePrompt, log *bullets.Logger) (Issuer, error) {
	switch cfg.Platform {
	case config.PlatformGitLab:
		issuer := NewPasswordIssuer(webURL(cfg.BaseURL, gitLabAPISuffix, defaultGitLabURL), cfg.OAuth.ClientID, httpClient)
		issuer.log = log
		return issuer, nil
	case config.PlatformGitHub:
		if cfg.OAuth.ClientID == "" {
			return nil, errClientIDRequired
		}
		issuer := NewDeviceIssuer(webURL(cfg.BaseURL, gitHubAPISuffix, defaultGitHubURL), cfg.OAuth.ClientID, httpClient, prompt)
		issuer.log = log
		return issuer, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupported, cfg.Platform)
	}
}

// webURL derives the web root from a configured API base URL.
func webURL(baseURL, apiSuffix, fallback string) string {
	if baseURL == "" {
		return fallback
	}
	u := strings.TrimSuffix(baseURL, "/")
	return strings.TrimSuffix(u, apiSuffix)
}

// PasswordIssuer implements the OAuth resource-owner password grant (GitLab).
type PasswordIssuer struct {
	cfg        oauth2.Config
	httpClient *http.Client
	log        *bullets.Logger
}

// NewPasswordIssuer creates an issuer posting to <baseURL>/oauth/token.
func NewPasswordIssuer(baseURL, clientID string, httpClient *http.Client) *PasswordIssuer {
	return &PasswordIssuer{
		cfg: oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimSuffix(baseURL, "/") + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"api"},
		},
		httpClient: httpClient,
		log:        logger.NoLogger(),
	}
}

// Issue implements Issuer.
func (p *PasswordIssuer) Issue(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, errEmptyCredentials
	}
	p.log.Debug(fmt.Sprintf("Requesting password grant token for %s from %s", creds.Username, p.cfg.Endpoint.TokenURL))

	tok, err := p.cfg.PasswordCredentialsToken(withClient(ctx, p.httpClient), creds.Username, creds.Password)
	if err != nil {
		return nil, classify(err)
	}
	return tok, nil
}

// DeviceIssuer implements the OAuth device authorization flow (GitHub).
type DeviceIssuer struct {
	cfg        oauth2.Config
	httpClient *http.Client
	prompt     DevicePrompt
	log        *bullets.Logger
}

// NewDeviceIssuer creates an issuer using GitHub's device flow endpoints under baseURL.
func NewDeviceIssuer(baseURL, clientID string, httpClient *http.Client, prompt DevicePrompt) *DeviceIssuer {
	base := strings.TrimSuffix(baseURL, "/")
	return &DeviceIssuer{
		cfg: oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: base + "/login/device/code",
				TokenURL:      base + "/login/oauth/access_token",
				AuthStyle:     oauth2.AuthStyleInParams,
			},
			Scopes: []string{"repo"},
		},
		httpClient: httpClient,
		prompt:     prompt,
		log:        logger.NoLogger(),
	}
}

// Issue implements Issuer. It blocks until the user approves, denies, or ctx ends.
func (d *DeviceIssuer) Issue(ctx context.Context, _ Credentials) (*oauth2.Token, error) {
	ctx = withClient(ctx, d.httpClient)

	da, err := d.cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start device authorization: %w", classify(err))
	}
	d.log.Debug(fmt.Sprintf("Device code issued, polling every %ds", da.Interval))
	if d.prompt != nil {
		d.prompt(da.VerificationURI, da.UserCode)
	}

	tok, err := d.cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, classify(err)
	}
	return tok, nil
}

func withClient(ctx context.Context, hc *http.Client) context.Context {
	if hc == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, hc)
}

// classify maps OAuth error codes to sentinels and strips credentials from the message.
func classify(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case errorCodeInvalidGrant:
			return fmt.Errorf("%w: %s", errInvalidCredentials, security.SanitizeString(re.ErrorDescription))
		case errorCodeAccessDenied, errorCodeExpired:
			return fmt.Errorf("%w: %s", errAccessDenied, re.ErrorCode)
		}
		if re.Response != nil && re.Response.StatusCode == http.StatusUnauthorized {
			return errInvalidCredentials
		}
		// the body may echo form fields
		return fmt.Errorf("token request failed: %s", security.SanitizeString(re.Error()))
	}
	return fmt.Errorf("token request failed: %w", err)
}

var (
	_ Issuer = (*PasswordIssuer)(nil)
	_ Issuer = (*DeviceIssuer)(nil)
)
