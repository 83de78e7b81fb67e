// Package resume issues and serves signed résumé downloads.
package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/applications"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/api/request"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/authn"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/policy"

	"github.com/go-chi/chi/middleware"
)

type LinkIssuer interface {
	ResumeLink(ctx context.Context, caller models.Caller, appID int64, ttl time.Duration) (string, time.Time, error)
}

type Opener interface {
	OpenResume(ctx context.Context, link *url.URL, appID int64, caller *models.Caller) (io.ReadCloser, string, error)
}

type LinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func Link(log *slog.Logger, issuer LinkIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resume.Link"

		caller, _ := authn.CallerFrom(r.Context())

		id, ok := request.ID(r, "id")
		if !ok {
			resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
			return
		}

		ttl := time.Duration(request.QueryInt(r, "ttl", 0)) * time.Second

		link, expiresAt, err := issuer.ResumeLink(r.Context(), caller, id, ttl)
		if err != nil {
			switch {
			case errors.Is(err, policy.ErrForbidden):
				resp.Send(w, r, http.StatusForbidden, resp.Error("Forbidden."))
			case errors.Is(err, applications.ErrApplicationNotFound):
				resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
			default:
				log.Error("failed to issue resume link",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)
				resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			}
			return
		}

		resp.Send(w, r, http.StatusOK, resp.OK(LinkResponse{URL: link, ExpiresAt: expiresAt}))
	}
}

// Download streams the résumé behind a signed link. Link failures are all
// reported as 404.
func Download(log *slog.Logger, opener Opener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resume.Download"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := request.ID(r, "id")
		if !ok {
			resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
			return
		}

		var caller *models.Caller
		if c, ok := authn.CallerFrom(r.Context()); ok {
			caller = &c
		}

		rc, name, err := opener.OpenResume(r.Context(), r.URL, id, caller)
		if err != nil {
			switch {
			case errors.Is(err, applications.ErrLinkInvalid):
				resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
			case errors.Is(err, applications.ErrResumeMissing):
				resp.Send(w, r, http.StatusNotFound, resp.Error("Resume not found."))
			default:
				log.Error("failed to open resume", sl.Err(err))
				resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			}
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		w.Header().Set("Cache-Control", "private, no-store")
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, rc); err != nil {
			log.Warn("resume download interrupted", sl.Err(fmt.Errorf("%s: %w", op, err)))
		}
	}
}
