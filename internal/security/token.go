// Package security keeps credentials out of logs, errors and terminal output.
package security

import "fmt"

const (
	// minTokenLengthForPartialMask is the shortest token that keeps a visible suffix.
	minTokenLengthForPartialMask = 8
	// maskShowChars is the number of trailing characters left visible.
	maskShowChars = 4
	maskEmpty     = "[empty]"
	maskRedacted  = "[redacted]"
)

// SecureToken wraps an access token so that formatting it never prints the secret.
//
//	token := NewSecureToken("ghp_secret123456")
//	fmt.Printf("%v", token) // [token:****3456]
type SecureToken struct {
	value string
}

// NewSecureToken wraps token.
func NewSecureToken(token string) SecureToken {
	return SecureToken{value: token}
}

// String returns a masked representation.
func (t SecureToken) String() string {
	if t.value == "" {
		return maskEmpty
	}
	if len(t.value) < minTokenLengthForPartialMask {
		return maskRedacted
	}
	return fmt.Sprintf("[token:****%s]", t.value[len(t.value)-maskShowChars:])
}

// GoString masks %#v as well.
func (t SecureToken) GoString() string {
	return t.String()
}

// MarshalText keeps the token masked when encoded, e.g. by `config show`.
func (t SecureToken) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Value returns the raw token. Only hand it to an authenticating transport.
func (t SecureToken) Value() string {
	return t.value
}

// IsEmpty reports whether no token is set.
func (t SecureToken) IsEmpty() bool {
	return t.value == ""
}
