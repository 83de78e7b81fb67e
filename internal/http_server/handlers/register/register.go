package register

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
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=employer candidate"`
}

type UserRegisterer interface {
	RegisterNewUser(
		ctx context.Context,
		name, email, pass string,
		role models.Role,
		client models.ClientInfo,
	) (auth.Session, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	registerer UserRegisterer,
	jar *cookies.Jar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

			log.Info("invalid request", sl.Err(err))
			resp.Send(w, r, http.StatusUnprocessableEntity, resp.ValidationError(validateErr))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		s, err := registerer.RegisterNewUser(ctx, req.Name, req.Email, req.Password, models.Role(req.Role), session.Client(r))
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", map[string]string{
					"email": "has already been taken",
				}))
				return
			}

			log.Error("failed to register user", sl.Err(err))
			resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			return
		}

		log.Info("user registered", slog.Int64("uid", s.User.ID))

		jar.SetSession(w, s.AccessToken, s.RefreshToken)
		resp.Send(w, r, http.StatusCreated, resp.Success("Registered successfully.", session.From(s)))
	}
}
