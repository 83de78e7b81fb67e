package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/cookies"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/session"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/authn"
	"github.com/IT21309038/Mini-Job-Board/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const HeaderRefreshToken = "X-Refresh-Token"

type Request struct {
	RefreshToken string `json:"refresh_token"`
}

type Refresher interface {
	Refresh(ctx context.Context, rawRefresh string, client models.ClientInfo, current *models.Caller) (auth.Session, error)
}

func New(log *slog.Logger, refresher Refresher, jar *cookies.Jar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		raw, err := Token(r)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Send(w, r, http.StatusBadRequest, resp.Error("Failed to decode request."))
			return
		}

		var current *models.Caller
		if c, ok := authn.CallerFrom(r.Context()); ok {
			current = &c
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		s, err := refresher.Refresh(ctx, raw, session.Client(r), current)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidOrExpiredToken) {
				resp.Send(w, r, http.StatusUnauthorized, resp.Error("Invalid or expired refresh token."))
				return
			}

			log.Error("failed to refresh tokens", sl.Err(err))
			resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			return
		}

		jar.SetSession(w, s.AccessToken, s.RefreshToken)
		resp.Send(w, r, http.StatusOK, resp.Success("Token refreshed.", session.From(s)))
	}
}

// Token returns the refresh token from the cookie, the X-Refresh-Token
// header or the JSON body, in that order. An empty body is not an error.
func Token(r *http.Request) (string, error) {
	if v := cookies.Value(r, cookies.RefreshToken); v != "" {
		return v, nil
	}

	if v := r.Header.Get(HeaderRefreshToken); v != "" {
		return v, nil
	}

	if r.Body == nil {
		return "", nil
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}

	return req.RefreshToken, nil
}
