// Package candidate serves the application routes of candidates.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/IT21309038/Mini-Job-Board/internal/applications"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/api/request"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/authn"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/policy"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

// Multipart overhead allowed on top of the résumé itself.
const formOverhead = 1 << 20

type Applier interface {
	Apply(ctx context.Context, caller models.Caller, in applications.ApplyInput) (int64, error)
}

type ApplicationLister interface {
	ListForCandidate(ctx context.Context, caller models.Caller, page int) ([]applications.View, models.Page, error)
}

type ApplyRequest struct {
	JobID       int64  `json:"job_id" validate:"required"`
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
}

type ApplyResponse struct {
	ApplicationID int64 `json:"application_id"`
}

type ListResponse struct {
	Applications []applications.View `json:"applications"`
	Meta         models.Page         `json:"meta"`
}

func Apply(log *slog.Logger, validate *validator.Validate, applier Applier, maxResumeSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.candidate.Apply"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller, _ := authn.CallerFrom(r.Context())

		if err := policy.Apply(caller); err != nil {
			resp.Send(w, r, http.StatusForbidden, resp.Error("Only candidates can apply for jobs."))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxResumeSize+formOverhead)

		if err := r.ParseMultipartForm(maxResumeSize + formOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", map[string]string{
					"resume": tooLargeMessage(maxResumeSize),
				}))
				return
			}

			log.Info("failed to parse multipart form", sl.Err(err))
			resp.Send(w, r, http.StatusBadRequest, resp.Error("Failed to decode request."))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		req := ApplyRequest{CoverLetter: r.FormValue("cover_letter")}
		fields := map[string]string{}

		if v := strings.TrimSpace(r.FormValue("job_id")); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				fields["job_id"] = "must be an integer"
			}
			req.JobID = id
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				for k, v := range resp.ValidationError(validateErr).Errors {
					if _, seen := fields[k]; !seen {
						fields[k] = v
					}
				}
			}
		}

		file, header, err := r.FormFile("resume")
		if err != nil {
			fields["resume"] = "is required"
		} else {
			defer file.Close()
		}

		if len(fields) > 0 {
			resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", fields))
			return
		}

		id, err := applier.Apply(r.Context(), caller, applications.ApplyInput{
			JobID:       req.JobID,
			CoverLetter: req.CoverLetter,
			Resume:      file,
			Filename:    header.Filename,
		})
		if err != nil {
			switch {
			case errors.Is(err, policy.ErrForbidden):
				resp.Send(w, r, http.StatusForbidden, resp.Error("Only candidates can apply for jobs."))
			case errors.Is(err, applications.ErrAlreadyApplied):
				resp.Send(w, r, http.StatusConflict, resp.Error("You have already applied to this job."))
			case errors.Is(err, applications.ErrJobNotFound):
				resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", map[string]string{
					"job_id": "is invalid",
				}))
			case errors.Is(err, applications.ErrInvalidResume):
				resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", map[string]string{
					"resume": "must be a file of type: pdf",
				}))
			case errors.Is(err, applications.ErrResumeTooLarge):
				resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", map[string]string{
					"resume": tooLargeMessage(maxResumeSize),
				}))
			default:
				log.Error("failed to submit application", sl.Err(err))
				resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			}
			return
		}

		resp.Send(w, r, http.StatusCreated, resp.Success("Application submitted successfully.", ApplyResponse{
			ApplicationID: id,
		}))
	}
}

func Applications(log *slog.Logger, lister ApplicationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.candidate.Applications"

		caller, _ := authn.CallerFrom(r.Context())

		views, page, err := lister.ListForCandidate(r.Context(), caller, request.QueryInt(r, "page", 1))
		if err != nil {
			if errors.Is(err, policy.ErrForbidden) {
				resp.Send(w, r, http.StatusForbidden, resp.Error("Forbidden."))
				return
			}

			log.Error("failed to list applications",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
			resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			return
		}

		resp.Send(w, r, http.StatusOK, resp.Success("Your applications.", ListResponse{
			Applications: views,
			Meta:         page,
		}))
	}
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("may not be greater than %d kilobytes", limit/1024)
}
