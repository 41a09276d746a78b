package platform

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/peterbourgon/diskv"
	"github.com/sgaunet/bullets"
	"github.com/sgaunet/repohost/internal/security"
	"github.com/sgaunet/repohost/pkg/config"
	"golang.org/x/oauth2"
)

const (
	retryWaitMin  = 500 * time.Millisecond
	retryWaitMax  = 5 * time.Second
	cacheSizeMax  = 16 << 20 // bytes kept in memory by the disk cache
	cacheDirPerm  = 0o700
	cacheFilePerm = 0o600
)

// NewTransport builds the unauthenticated transport chain:
// response cache (when enabled), then a router that retries GET and HEAD only.
// A request that may have changed remote state is never replayed.
func NewTransport(cfg *config.Config, log *bullets.Logger) (http.RoundTripper, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: base}
	rc.RetryMax = cfg.HTTP.Retries
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.Logger = leveledLogger{log: log}
	// hand the last response back so its status can be classified
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	var next http.RoundTripper = &methodRouter{
		idempotent: &retryablehttp.RoundTripper{Client: rc},
		mutating:   base,
	}

	if cfg.Cache.Enabled {
		cache, err := newCache(cfg)
		if err != nil {
			return nil, err
		}
		t := httpcache.NewTransport(cache)
		t.Transport = next
		next = t
	}
	return next, nil
}

// NewHTTPClient returns the client every adapter sends requests through.
// GitHub tokens are attached by an oauth2 transport; GitLab tokens are set by
// its SDK, which distinguishes personal from OAuth tokens.
func NewHTTPClient(cfg *config.Config, log *bullets.Logger) (*http.Client, error) {
	transport, err := NewTransport(cfg, log)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, fmt.Errorf("failed to read HTTP timeout: %w", err)
	}

	if cfg.Platform == config.PlatformGitHub && cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
			Base:   transport,
		}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

func newCache(cfg *config.Config) (httpcache.Cache, error) {
	if cfg.Cache.Dir == "" {
		return httpcache.NewMemoryCache(), nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return diskcache.NewWithDiskv(diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: cacheSizeMax,
		PathPerm:     cacheDirPerm,
		FilePerm:     cacheFilePerm,
	})), nil
}

// methodRouter sends idempotent reads through the retrying transport.
type methodRouter struct {
	idempotent http.RoundTripper
	mutating   http.RoundTripper
}

func (m *methodRouter) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return m.idempotent.RoundTrip(req)
	default:
		return m.mutating.RoundTrip(req)
	}
}

// leveledLogger adapts bullets to retryablehttp.LeveledLogger.
// Retry chatter goes to debug; only exhausted retries surface as warnings.
type leveledLogger struct {
	log *bullets.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.log.Warn(format(msg, keysAndValues))
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(format(msg, keysAndValues))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.log.Debug(format(msg, keysAndValues))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.log.Debug(format(msg, keysAndValues))
}

func format(msg string, keysAndValues []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	return security.SanitizeString(sb.String())
}

var _ retryablehttp.LeveledLogger = leveledLogger{}
