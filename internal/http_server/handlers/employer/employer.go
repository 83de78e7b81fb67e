// Package employer serves the job management routes of employers.
package employer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/IT21309038/Mini-Job-Board/internal/applications"
	"github.com/IT21309038/Mini-Job-Board/internal/jobs"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/api/request"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/authn"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/policy"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type JobManager interface {
	ListOwn(ctx context.Context, caller models.Caller, page, perPage int) ([]models.JobPost, models.Page, error)
	Create(ctx context.Context, caller models.Caller, in jobs.Input) (models.JobPost, error)
	Update(ctx context.Context, caller models.Caller, id int64, patch models.JobPatch) (models.JobPost, error)
	Delete(ctx context.Context, caller models.Caller, id int64) error
}

type ApplicantLister interface {
	ListApplicants(ctx context.Context, caller models.Caller, jobID int64, page int) ([]applications.View, models.Page, error)
}

type CreateRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location" validate:"required,max=255"`
	JobType     string `json:"job_type" validate:"required"`
}

type UpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	Location    *string `json:"location" validate:"omitempty,min=1,max=255"`
	JobType     *string `json:"job_type"`
}

type JobsResponse struct {
	Jobs []models.JobPost `json:"jobs"`
	Meta models.Page      `json:"meta"`
}

type ApplicationsResponse struct {
	Applications []applications.View `json:"applications"`
	Meta         models.Page         `json:"meta"`
}

var errJobType = map[string]string{"job_type": "must be one of: full_time, part_time, contract, internship"}

func Jobs(log *slog.Logger, manager JobManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employer.Jobs"

		caller, _ := authn.CallerFrom(r.Context())

		list, page, err := manager.ListOwn(r.Context(), caller,
			request.QueryInt(r, "page", 1),
			request.QueryInt(r, "per_page", jobs.DefaultPerPage),
		)
		if err != nil {
			fail(w, r, logger(log, r, op), err, "You are not authorized to manage job posts.")
			return
		}

		resp.Send(w, r, http.StatusOK, resp.Success("Employer job posts retrieved successfully.", JobsResponse{
			Jobs: list,
			Meta: page,
		}))
	}
}

func CreateJob(log *slog.Logger, validate *validator.Validate, manager JobManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employer.CreateJob"

		log := logger(log, r, op)
		caller, _ := authn.CallerFrom(r.Context())

		if err := policy.ManageJobs(caller); err != nil {
			fail(w, r, log, err, "You are not authorized to create job posts.")
			return
		}

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Send(w, r, http.StatusBadRequest, resp.Error("Failed to decode request."))
			return
		}

		if !validRequest(w, r, validate, req) {
			return
		}

		jobType, ok := models.ParseJobType(req.JobType)
		if !ok {
			resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", errJobType))
			return
		}

		job, err := manager.Create(r.Context(), caller, jobs.Input{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			JobType:     jobType,
		})
		if err != nil {
			fail(w, r, log, err, "You are not authorized to create job posts.")
			return
		}

		resp.Send(w, r, http.StatusCreated, resp.Success("Job post created successfully.", job))
	}
}

func UpdateJob(log *slog.Logger, validate *validator.Validate, manager JobManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employer.UpdateJob"

		log := logger(log, r, op)
		caller, _ := authn.CallerFrom(r.Context())

		id, ok := request.ID(r, "id")
		if !ok {
			resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			resp.Send(w, r, http.StatusBadRequest, resp.Error("Failed to decode request."))
			return
		}

		if !validRequest(w, r, validate, req) {
			return
		}

		patch := models.JobPatch{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
		}

		if req.JobType != nil {
			jobType, ok := models.ParseJobType(*req.JobType)
			if !ok {
				resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", errJobType))
				return
			}
			patch.JobType = &jobType
		}

		job, err := manager.Update(r.Context(), caller, id, patch)
		if err != nil {
			fail(w, r, log, err, "You are not authorized to update this job post.")
			return
		}

		resp.Send(w, r, http.StatusOK, resp.Success("Job post updated successfully.", job))
	}
}

func DeleteJob(log *slog.Logger, manager JobManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employer.DeleteJob"

		caller, _ := authn.CallerFrom(r.Context())

		id, ok := request.ID(r, "id")
		if !ok {
			resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
			return
		}

		if err := manager.Delete(r.Context(), caller, id); err != nil {
			fail(w, r, logger(log, r, op), err, "You are not authorized to delete this job post.")
			return
		}

		resp.Send(w, r, http.StatusOK, resp.OKMessage("Job post deleted successfully."))
	}
}

func Applicants(log *slog.Logger, lister ApplicantLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employer.Applicants"

		caller, _ := authn.CallerFrom(r.Context())

		id, ok := request.ID(r, "id")
		if !ok {
			resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
			return
		}

		views, page, err := lister.ListApplicants(r.Context(), caller, id, request.QueryInt(r, "page", 1))
		if err != nil {
			fail(w, r, logger(log, r, op), err, "You are not authorized to view applicants of this job post.")
			return
		}

		resp.Send(w, r, http.StatusOK, resp.Success("Applications for this job.", ApplicationsResponse{
			Applications: views,
			Meta:         page,
		}))
	}
}

func logger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func validRequest(w http.ResponseWriter, r *http.Request, validate *validator.Validate, req any) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var validateErr validator.ValidationErrors
	if !errors.As(err, &validateErr) {
		resp.Send(w, r, http.StatusBadRequest, resp.Error("Invalid request."))
		return false
	}

	resp.Send(w, r, http.StatusUnprocessableEntity, resp.ValidationError(validateErr))
	return false
}

func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, forbidden string) {
	switch {
	case errors.Is(err, policy.ErrForbidden):
		resp.Send(w, r, http.StatusForbidden, resp.Error(forbidden))
	case errors.Is(err, jobs.ErrJobNotFound), errors.Is(err, applications.ErrJobNotFound):
		resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
	default:
		log.Error("request failed", sl.Err(err))
		resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
	}
}
