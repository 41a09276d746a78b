package security_test

import (
	"fmt"
	"testing"

	"github.com/sgaunet/repohost/internal/security"
	"github.com/stretchr/testify/assert"
)

func TestSecureToken_String(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "empty", token: "", want: "[empty]"},
		{name: "short", token: "abc", want: "[redacted]"},
		{name: "long", token: "ghp_secret123456", want: "[token:****3456]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := security.NewSecureToken(tt.token)
			assert.Equal(t, tt.want, tok.String())
			assert.Equal(t, tt.want, fmt.Sprintf("%v", tok))
			assert.Equal(t, tt.want, fmt.Sprintf("%#v", tok))
			assert.Equal(t, tt.token, tok.Value())
		})
	}
}

func TestSecureToken_MarshalText(t *testing.T) {
	tok := security.NewSecureToken("glpat-abcdefghij")
	b, err := tok.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "[token:****ghij]", string(b))
	assert.NotContains(t, string(b), "abcdef")
}

func TestSecureToken_IsEmpty(t *testing.T) {
	assert.True(t, security.NewSecureToken("").IsEmpty())
	assert.False(t, security.NewSecureToken("x").IsEmpty())
}
