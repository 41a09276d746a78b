package security

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sgaunet/bullets"
)

// DebugAuth logs how a client authenticates, with every detail sanitized.
//
//	DebugAuth(log, "GitHub", map[string]string{"method": "oauth2", "token": tok})
//	// Using GitHub authentication: method=oauth2 token=[redacted]
func DebugAuth(log *bullets.Logger, platform string, details map[string]string) {
	if log == nil {
		return
	}

	in := make(map[string]any, len(details))
	for k, v := range details {
		in[k] = v
	}
	sanitized := SanitizeMap(in)

	keys := make([]string, 0, len(sanitized))
	for k := range sanitized {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, sanitized[k]))
	}
	log.Debug(fmt.Sprintf("Using %s authentication: %s", platform, strings.Join(parts, " ")))
}
