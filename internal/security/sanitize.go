package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	gitlabTokenRegex *regexp.Regexp
	githubTokenRegex *regexp.Regexp
	authHeaderRegex  *regexp.Regexp
	queryTokenRegex  *regexp.Regexp
	bearerTokenRegex *regexp.Regexp
	regexOnce        sync.Once

	errSanitized = errors.New("sanitized error")
)

func compileRegexPatterns() {
	regexOnce.Do(func() {
		// glpat-, gloas- (OAuth app secrets) and friends
		gitlabTokenRegex = regexp.MustCompile(`gl(?:pat|oas|dt|rt)-[a-zA-Z0-9_-]{6,}`)
		// ghp_, gho_, ghs_, ghu_, ghr_ and fine-grained github_pat_
		githubTokenRegex = regexp.MustCompile(`(?:gh[opsur]_[a-zA-Z0-9]{20,}|github_pat_[a-zA-Z0-9_]{20,})`)
		authHeaderRegex = regexp.MustCompile(
			`(?i)(authorization:\s*(?:bearer|basic|token)\s+|private-token:\s*)[a-zA-Z0-9+/=_.-]{6,}`)
		queryTokenRegex = regexp.MustCompile(`(?i)((?:access_token|refresh_token|password|client_secret)=)[^&\s"]+`)
		// Opaque bearer strings; '/' is excluded so URL paths survive.
		bearerTokenRegex = regexp.MustCompile(`\b[A-Za-z0-9+=]{40,200}\b`)
	})
}

// SanitizeString redacts GitLab and GitHub tokens, authorization headers,
// credential query/form parameters and long opaque bearer strings.
// Safe for concurrent use.
func SanitizeString(s string) string {
	compileRegexPatterns()

	s = gitlabTokenRegex.ReplaceAllString(s, "[gitlab-token-redacted]")
	s = githubTokenRegex.ReplaceAllString(s, "[github-token-redacted]")
	s = authHeaderRegex.ReplaceAllString(s, "${1}[redacted]")
	s = queryTokenRegex.ReplaceAllString(s, "${1}[redacted]")

	// Commit SHAs are 40 hex chars and must stay readable.
	return bearerTokenRegex.ReplaceAllStringFunc(s, func(m string) string {
		if isHex(m) {
			return m
		}
		return "[token-redacted]"
	})
}

// SanitizeError returns an error whose message has been through [SanitizeString].
// The original chain is not preserved.
func SanitizeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", errSanitized, SanitizeString(err.Error()))
}

// SanitizeMap redacts values whose keys look sensitive and sanitizes the rest.
func SanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	sensitiveKeys := []string{
		"token", "password", "secret", "api_key", "apikey",
		"auth", "credential", "authorization",
	}

	result := make(map[string]any, len(m))
	for k, v := range m {
		lowerKey := strings.ToLower(k)
		sensitive := false
		for _, key := range sensitiveKeys {
			if strings.Contains(lowerKey, key) {
				sensitive = true
				break
			}
		}

		switch {
		case sensitive:
			result[k] = maskRedacted
		default:
			if str, ok := v.(string); ok {
				result[k] = SanitizeString(str)
			} else {
				result[k] = v
			}
		}
	}
	return result
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
