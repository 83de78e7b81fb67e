// Package jobposts serves the public job listing.
package jobposts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/IT21309038/Mini-Job-Board/internal/jobs"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/api/request"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/models"

	"github.com/go-chi/chi/middleware"
)

type JobLister interface {
	List(ctx context.Context, f models.JobFilter) ([]models.JobPost, models.Page, error)
}

type JobGetter interface {
	Get(ctx context.Context, id int64) (models.JobPost, error)
}

type ListResponse struct {
	Jobs []models.JobPost `json:"jobs"`
	Meta models.Page      `json:"meta"`
}

func List(log *slog.Logger, lister JobLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.jobposts.List"

		q := r.URL.Query()

		f, err := jobs.Query{
			Keyword:  q.Get("keyword"),
			Location: q.Get("location"),
			JobType:  q.Get("job_type"),
			Sort:     q.Get("sort"),
			Page:     request.QueryInt(r, "page", 1),
			PerPage:  request.QueryInt(r, "per_page", jobs.DefaultPerPage),
		}.Filter()
		if err != nil {
			switch {
			case errors.Is(err, jobs.ErrInvalidJobType):
				resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", map[string]string{
					"job_type": "must be one of: full_time, part_time, contract, internship",
				}))
			case errors.Is(err, jobs.ErrInvalidSort):
				resp.Send(w, r, http.StatusUnprocessableEntity, resp.FieldErrors("Validation failed.", map[string]string{
					"sort": "must be one of: created_at, title, location",
				}))
			default:
				resp.Send(w, r, http.StatusBadRequest, resp.Error("Invalid request."))
			}
			return
		}

		list, page, err := lister.List(r.Context(), f)
		if err != nil {
			log.Error("failed to list jobs",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
			resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			return
		}

		resp.Send(w, r, http.StatusOK, resp.Success("Job posts retrieved successfully.", ListResponse{
			Jobs: list,
			Meta: page,
		}))
	}
}

func Get(log *slog.Logger, getter JobGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.jobposts.Get"

		id, ok := request.ID(r, "id")
		if !ok {
			resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
			return
		}

		job, err := getter.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
				return
			}

			log.Error("failed to get job",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
			resp.Send(w, r, http.StatusInternalServerError, resp.Error("Server error."))
			return
		}

		resp.Send(w, r, http.StatusOK, resp.Success("Job post retrieved successfully.", job))
	}
}
