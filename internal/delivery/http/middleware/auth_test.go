package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/delivery/http/helpers"
	"groupsched/internal/domain"
)

// fakeTokenVerifier implements domain.TokenVerifier for tests.
type fakeTokenVerifier struct {
	actors map[string]*domain.Actor
}

func (f *fakeTokenVerifier) Verify(token string) (*domain.Actor, error) {
	if actor, ok := f.actors[token]; ok {
		return actor, nil
	}
	return nil, errors.New("token is malformed")
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	verifier := &fakeTokenVerifier{actors: map[string]*domain.Actor{
		"host-token":  {UID: "host-1", Roles: []string{domain.RoleMember}},
		"admin-token": {UID: "admin-1", Roles: []string{domain.RoleAdmin, domain.RoleMember}},
	}}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantUID    string
		wantAdmin  bool
	}{
		{
			name:       "member token reaches the handler",
			authHeader: "Bearer host-token",
			wantStatus: http.StatusOK,
			wantUID:    "host-1",
		},
		{
			name:       "admin roles survive the context round-trip",
			authHeader: "Bearer admin-token",
			wantStatus: http.StatusOK,
			wantUID:    "admin-1",
			wantAdmin:  true,
		},
		{
			name:       "no header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "basic auth is not accepted",
			authHeader: "Basic aG9zdDpodW50ZXIy",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "lowercase bearer is not accepted",
			authHeader: "bearer host-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bearer with no token",
			authHeader: "Bearer ",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown token",
			authHeader: "Bearer forged-token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domain.Actor
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				actor, ok := ActorFromContext(r.Context())
				require.True(t, ok, "handler ran without an actor in context")
				seen = actor
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireAuth(verifier, logger)(next)

			req := httptest.NewRequest(http.MethodGet, "http://test/campaigns/camp-1/summary", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			handler(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				require.Nil(t, seen, "handler must not run on rejected requests")
				var envelope helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.NotNil(t, envelope.Error)
				assert.Equal(t, helpers.ErrCodeUnauthorized, envelope.Error.Code)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tt.wantUID, seen.UID)
			assert.Equal(t, tt.wantAdmin, seen.IsAdmin())
		})
	}
}
