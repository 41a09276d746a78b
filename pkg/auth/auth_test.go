package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sgaunet/repohost/internal/logger"
	"github.com/sgaunet/repohost/pkg/auth"
	"github.com/sgaunet/repohost/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestPasswordIssuer(t *testing.T) {
	tests := []struct {
		name     string
		creds    auth.Credentials
		status   int
		body     map[string]any
		wantTok  string
		wantErr  error
		wantHits int32
	}{
		{
			name:     "valid credentials",
			creds:    auth.Credentials{Username: "jdoe", Password: "s3cret"},
			status:   http.StatusOK,
			body:     map[string]any{"access_token": "oauth-access", "token_type": "Bearer", "refresh_token": "r"},
			wantTok:  "oauth-access",
			wantHits: 1,
		},
		{
			name:     "rejected credentials",
			creds:    auth.Credentials{Username: "jdoe", Password: "wrong"},
			status:   http.StatusBadRequest,
			body:     map[string]any{"error": "invalid_grant", "error_description": "The provided authorization grant is invalid"},
			wantErr:  auth.ErrInvalidCredentials,
			wantHits: 1,
		},
		{
			name:     "unauthorized client",
			creds:    auth.Credentials{Username: "jdoe", Password: "x"},
			status:   http.StatusUnauthorized,
			body:     map[string]any{},
			wantErr:  auth.ErrInvalidCredentials,
			wantHits: 1,
		},
		{
			name:    "missing password never calls the host",
			creds:   auth.Credentials{Username: "jdoe"},
			wantErr: auth.ErrEmptyCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				assert.Equal(t, "/oauth/token", r.URL.Path)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "password", r.PostForm.Get("grant_type"))
				assert.Equal(t, tt.creds.Username, r.PostForm.Get("username"))
				assert.Equal(t, tt.creds.Password, r.PostForm.Get("password"))
				assert.Equal(t, "app-id", r.PostForm.Get("client_id"))
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			issuer := auth.NewPasswordIssuer(srv.URL, "app-id", srv.Client())
			tok, err := issuer.Issue(context.Background(), tt.creds)

			assert.Equal(t, tt.wantHits, hits.Load())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTok, tok.AccessToken)
		})
	}
}

func deviceServer(t *testing.T, pending int32, final map[string]any) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/device/code", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "gh-client", r.PostForm.Get("client_id"))
		writeJSON(w, http.StatusOK, map[string]any{
			"device_code":      "dev-123",
			"user_code":        "ABCD-1234",
			"verification_uri": "https://github.com/login/device",
			"expires_in":       900,
			"interval":         1,
		})
	})
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "dev-123", r.PostForm.Get("device_code"))
		if polls.Add(1) <= pending {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "authorization_pending"})
			return
		}
		if _, ok := final["error"]; ok {
			writeJSON(w, http.StatusBadRequest, final)
			return
		}
		writeJSON(w, http.StatusOK, final)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestDeviceIssuer(t *testing.T) {
	t.Run("approved after pending", func(t *testing.T) {
		srv, polls := deviceServer(t, 1, map[string]any{"access_token": "gho_devicetoken", "token_type": "bearer"})

		var shownURI, shownCode string
		issuer := auth.NewDeviceIssuer(srv.URL, "gh-client", srv.Client(), func(uri, code string) {
			shownURI, shownCode = uri, code
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		tok, err := issuer.Issue(ctx, auth.Credentials{})
		require.NoError(t, err)

		assert.Equal(t, "gho_devicetoken", tok.AccessToken)
		assert.Equal(t, "https://github.com/login/device", shownURI)
		assert.Equal(t, "ABCD-1234", shownCode)
		assert.Equal(t, int32(2), polls.Load())
	})

	t.Run("denied", func(t *testing.T) {
		srv, _ := deviceServer(t, 0, map[string]any{"error": "access_denied"})
		issuer := auth.NewDeviceIssuer(srv.URL, "gh-client", srv.Client(), nil)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := issuer.Issue(ctx, auth.Credentials{})
		assert.ErrorIs(t, err, auth.ErrAccessDenied)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		srv, _ := deviceServer(t, 1000, nil)
		issuer := auth.NewDeviceIssuer(srv.URL, "gh-client", srv.Client(), nil)

		ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
		defer cancel()
		_, err := issuer.Issue(ctx, auth.Credentials{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNewIssuer(t *testing.T) {
	t.Run("gitlab uses password grant", func(t *testing.T) {
		cfg := config.Default()
		cfg.Platform = config.PlatformGitLab
		issuer, err := auth.NewIssuer(cfg, http.DefaultClient, nil, logger.NoLogger())
		require.NoError(t, err)
		assert.IsType(t, &auth.PasswordIssuer{}, issuer)
	})

	t.Run("github needs a client id", func(t *testing.T) {
		cfg := config.Default()
		cfg.Platform = config.PlatformGitHub
		_, err := auth.NewIssuer(cfg, http.DefaultClient, nil, logger.NoLogger())
		assert.ErrorIs(t, err, auth.ErrClientIDRequired)

		cfg.OAuth.ClientID = "gh-client"
		issuer, err := auth.NewIssuer(cfg, http.DefaultClient, nil, logger.NoLogger())
		require.NoError(t, err)
		assert.IsType(t, &auth.DeviceIssuer{}, issuer)
	})

	t.Run("unknown platform", func(t *testing.T) {
		_, err := auth.NewIssuer(config.Default(), http.DefaultClient, nil, logger.NoLogger())
		assert.Error(t, err)
	})
}

func TestNewIssuer_DerivesWebURLFromAPIBase(t *testing.T) {
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "t", "token_type": "Bearer"})
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Platform = config.PlatformGitLab
	cfg.BaseURL = srv.URL + "/api/v4/"
	issuer, err := auth.NewIssuer(cfg, srv.Client(), nil, logger.NoLogger())
	require.NoError(t, err)

	_, err = issuer.Issue(context.Background(), auth.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "/oauth/token", path.Load())
}
