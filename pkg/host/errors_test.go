package host_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sgaunet/repohost/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		name   string
		op     host.Op
		status int
		want   host.Kind
	}{
		{"no response is never not-found", host.OpLookupBranch, 0, host.KindHost},
		{"lookup 404", host.OpLookupBranch, http.StatusNotFound, host.KindNotFound},
		{"lookup 401", host.OpLookupBranch, http.StatusUnauthorized, host.KindHost},
		{"lookup 403", host.OpLookupBranch, http.StatusForbidden, host.KindHost},
		{"lookup 500", host.OpLookupBranch, http.StatusInternalServerError, host.KindHost},
		{"lookup 301", host.OpLookupBranch, http.StatusMovedPermanently, host.KindHost},
		{"create 422", host.OpCreateRef, http.StatusUnprocessableEntity, host.KindHost},
		{"create 409", host.OpCreateRef, http.StatusConflict, host.KindCreateConflict},
		{"create 404", host.OpCreateRef, http.StatusNotFound, host.KindHost},
		{"merge 409", host.OpMergeBranch, http.StatusConflict, host.KindMergeConflict},
		{"merge 405", host.OpMergeBranch, http.StatusMethodNotAllowed, host.KindMergeConflict},
		{"merge 406", host.OpMergeBranch, http.StatusNotAcceptable, host.KindMergeConflict},
		{"merge 404", host.OpMergeBranch, http.StatusNotFound, host.KindHost},
		{"update 409", host.OpUpdateFile, http.StatusConflict, host.KindConflict},
		{"get file 404", host.OpGetFile, http.StatusNotFound, host.KindNotFound},
		{"get file 409", host.OpGetFile, http.StatusConflict, host.KindHost},
		{"compare 404", host.OpCompareDiff, http.StatusNotFound, host.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, host.KindFromStatus(tt.op, tt.status))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("404 Not Found")
	err := host.NewError(host.OpLookupBranch, http.StatusNotFound, cause)

	require.Error(t, err)
	assert.ErrorIs(t, err, host.ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, host.ErrHost)
	assert.Contains(t, err.Error(), "lookup branch")
	assert.Contains(t, err.Error(), "HTTP 404")

	wrapped := fmt.Errorf("failed to resolve: %w", err)
	assert.ErrorIs(t, wrapped, host.ErrNotFound)
	assert.Equal(t, host.KindNotFound, host.KindOf(wrapped))
}

func TestError_NoCause(t *testing.T) {
	err := &host.Error{Op: host.OpCreateRef, Kind: host.KindCreateConflict}

	assert.ErrorIs(t, err, host.ErrCreateConflict)
	assert.NotContains(t, err.Error(), "HTTP")
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, host.KindHost, host.KindOf(errors.New("boom")))
	assert.Equal(t, host.KindHost, host.KindOf(nil))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "NotFound", host.KindNotFound.String())
	assert.Equal(t, "CreateConflict", host.KindCreateConflict.String())
	assert.Equal(t, "MergeConflict", host.KindMergeConflict.String())
	assert.Equal(t, "Conflict", host.KindConflict.String())
	assert.Equal(t, "HostError", host.KindHost.String())
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in      string
		want    host.Coordinate
		wantErr bool
	}{
		{in: "owner/repo", want: host.Coordinate{Owner: "owner", Repository: "repo"}},
		{in: "owner/repo.git", want: host.Coordinate{Owner: "owner", Repository: "repo"}},
		{in: " group/sub/project ", want: host.Coordinate{Owner: "group/sub", Repository: "project"}},
		{in: "/owner/repo/", want: host.Coordinate{Owner: "owner", Repository: "repo"}},
		{in: "repo", wantErr: true},
		{in: "", wantErr: true},
		{in: "owner/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := host.ParseCoordinate(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, host.ErrInvalidCoordinate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.False(t, got.IsZero())
		})
	}
}

func TestCoordinate_String(t *testing.T) {
	c := host.Coordinate{Owner: "group/sub", Repository: "project"}
	assert.Equal(t, "group/sub/project", c.String())
	assert.True(t, host.Coordinate{Owner: "x"}.IsZero())
}

func TestBranchRefName(t *testing.T) {
	assert.Equal(t, "refs/heads/new-branch", host.BranchRefName("new-branch"))
}
