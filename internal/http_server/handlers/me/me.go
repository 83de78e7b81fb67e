package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/session"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/authn"
	"github.com/IT21309038/Mini-Job-Board/internal/models"

	"github.com/go-chi/chi/middleware"
)

type UserProvider interface {
	Me(ctx context.Context, caller models.Caller) (models.User, error)
}

func New(log *slog.Logger, users UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		caller, ok := authn.CallerFrom(r.Context())
		if !ok {
			resp.Send(w, r, http.StatusUnauthorized, resp.Error("Unauthenticated."))
			return
		}

		user, err := users.Me(r.Context(), caller)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				resp.Send(w, r, http.StatusUnauthorized, resp.Error("Unauthenticated."))
				return
			}

			log.Error("failed to load user",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
			resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			return
		}

		resp.Send(w, r, http.StatusOK, resp.OK(map[string]session.User{"user": session.NewUser(user)}))
	}
}
