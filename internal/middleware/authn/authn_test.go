package authn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/cookies"
	"github.com/IT21309038/Mini-Job-Board/internal/models"

	"github.com/stretchr/testify/assert"
)

// tokenDenylistDown is accepted by stubAuth only to fail with an
// infrastructure error.
const tokenDenylistDown = "denylist-down"

type stubAuth map[string]models.Caller

func (s stubAuth) Authenticate(_ context.Context, token string) (models.Caller, error) {
	if token == tokenDenylistDown {
		return models.Caller{}, errors.New("redis: connection refused")
	}

	c, ok := s[token]
	if !ok {
		return models.Caller{}, auth.ErrInvalidAccessToken
	}
	return c, nil
}

func TestToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "cookie fallback", cookie: "from-cookie", want: "from-cookie"},
		{name: "header wins", header: "Bearer abc", cookie: "from-cookie", want: "abc"},
		{name: "basic ignored", header: "Basic dXNlcg==", want: ""},
		{name: "none", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, Token(r))
		})
	}
}

func TestRequiredAndOptional(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	authenticator := stubAuth{"good": {UserID: 7, Role: models.RoleEmployer}}

	var seen *models.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = nil
		if c, ok := CallerFrom(r.Context()); ok {
			seen = &c
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		mw         func(http.Handler) http.Handler
		token      string
		wantStatus int
		wantCaller bool
	}{
		{name: "required ok", mw: Required(log, authenticator), token: "good", wantStatus: http.StatusNoContent, wantCaller: true},
		{name: "required missing", mw: Required(log, authenticator), wantStatus: http.StatusUnauthorized},
		{name: "required invalid", mw: Required(log, authenticator), token: "bad", wantStatus: http.StatusUnauthorized},
		{name: "optional ok", mw: Optional(log, authenticator), token: "good", wantStatus: http.StatusNoContent, wantCaller: true},
		{name: "optional invalid", mw: Optional(log, authenticator), token: "bad", wantStatus: http.StatusNoContent},
		{name: "required denylist down", mw: Required(log, authenticator), token: tokenDenylistDown, wantStatus: http.StatusInternalServerError},
		{name: "optional denylist down", mw: Optional(log, authenticator), token: tokenDenylistDown, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			tt.mw(next).ServeHTTP(rec, r)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCaller {
				if assert.NotNil(t, seen) {
					assert.Equal(t, int64(7), seen.UserID)
				}
			} else {
				assert.Nil(t, seen)
			}
			switch tt.wantStatus {
			case http.StatusUnauthorized:
				assert.JSONEq(t, `{"status":"error","message":"Unauthenticated."}`, rec.Body.String())
			case http.StatusInternalServerError:
				assert.JSONEq(t, `{"status":"error","message":"Server error."}`, rec.Body.String())
			}
		})
	}
}
