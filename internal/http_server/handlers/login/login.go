package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/cookies"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/session"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Authenticator interface {
	Login(ctx context.Context, email, password string, client models.ClientInfo) (auth.Session, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator Authenticator,
	jar *cookies.Jar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Send(w, r, http.StatusBadRequest, resp.Error("Failed to decode request."))
			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if !errors.As(err, &validateErr) {
				resp.Send(w, r, http.StatusBadRequest, resp.Error("Invalid request."))
				return
			}

			resp.Send(w, r, http.StatusUnprocessableEntity, resp.ValidationError(validateErr))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		s, err := authenticator.Login(ctx, req.Email, req.Password, session.Client(r))
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				resp.Send(w, r, http.StatusUnauthorized, resp.Error("Invalid credentials."))
				return
			}

			log.Error("failed to login user", sl.Err(err))
			resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			return
		}

		jar.SetSession(w, s.AccessToken, s.RefreshToken)
		resp.Send(w, r, http.StatusOK, resp.Success("Logged in successfully.", session.From(s)))
	}
}
