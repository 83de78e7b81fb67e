// Package authn resolves the caller from the access token and keeps it in
// the request context.
package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/cookies"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
)

type ctxKey struct{}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Caller, error)
}

func WithCaller(ctx context.Context, c models.Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// CallerFrom returns the caller stored by Optional or Required.
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(models.Caller)
	return c, ok
}

// Token extracts the access token from the Authorization header, falling
// back to the access_token cookie.
func Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	return cookies.Value(r, cookies.AccessToken)
}

// Optional stores the caller when a valid token is present and passes the
// request on either way. A failed token check answers 500.
func Optional(log *slog.Logger, a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok, err := authenticate(log, a, r)
			if err != nil {
				resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
				return
			}

			if ok {
				r = r.WithContext(WithCaller(r.Context(), caller))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Required rejects requests without a valid access token with 401.
func Required(log *slog.Logger, a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok, err := authenticate(log, a, r)
			if err != nil {
				resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
				return
			}

			if !ok {
				resp.Send(w, r, http.StatusUnauthorized, resp.Error("Unauthenticated."))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// authenticate reports ok=false for a missing or rejected token. Any other
// failure, such as an unreachable denylist, is returned as err.
func authenticate(log *slog.Logger, a Authenticator, r *http.Request) (models.Caller, bool, error) {
	const op = "middleware.authn.authenticate"

	token := Token(r)
	if token == "" {
		return models.Caller{}, false, nil
	}

	caller, err := a.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAccessToken) {
			log.Debug("access token rejected", sl.Err(err))
			return models.Caller{}, false, nil
		}

		log.Error("failed to authenticate access token", slog.String("op", op), sl.Err(err))
		return models.Caller{}, false, err
	}

	return caller, true, nil
}
