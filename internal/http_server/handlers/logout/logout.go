package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/http_server/cookies"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/refresh"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/authn"
	"github.com/IT21309038/Mini-Job-Board/internal/models"

	"github.com/go-chi/chi/middleware"
)

type SessionCloser interface {
	Logout(ctx context.Context, caller *models.Caller, rawRefresh string) error
}

func New(log *slog.Logger, closer SessionCloser, jar *cookies.Jar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		// A malformed body only means there is no refresh token to revoke.
		raw, err := refresh.Token(r)
		if err != nil {
			log.Debug("ignoring undecodable logout body", sl.Err(err))
		}

		var caller *models.Caller
		if c, ok := authn.CallerFrom(r.Context()); ok {
			caller = &c
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := closer.Logout(ctx, caller, raw); err != nil {
			log.Error("failed to logout user", sl.Err(err))
			resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			return
		}

		jar.Clear(w)
		resp.Send(w, r, http.StatusOK, resp.OKMessage("Logged out."))
	}
}
