package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/policy"
	"github.com/IT21309038/Mini-Job-Board/internal/storage"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 50
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrInvalidSort    = errors.New("invalid sort")
	ErrInvalidJobType = errors.New("invalid job type")
)

type Storage interface {
	SaveJob(ctx context.Context, job models.JobPost) (int64, error)
	Job(ctx context.Context, id int64) (models.JobPost, error)
	Jobs(ctx context.Context, f models.JobFilter) ([]models.JobPost, int, error)
	UpdateJob(ctx context.Context, id int64, patch models.JobPatch, now time.Time) error
	DeleteJob(ctx context.Context, id int64) error
}

type Service struct {
	log   *slog.Logger
	store Storage
	now   func() time.Time
}

func New(log *slog.Logger, store Storage) *Service {
	return &Service{
		log:   log,
		store: store,
		now:   time.Now,
	}
}

// Query is the raw listing input as it arrives from the client.
type Query struct {
	Keyword  string
	Location string
	JobType  string
	Sort     string
	Page     int
	PerPage  int
}

type Input struct {
	Title       string
	Description string
	Location    string
	JobType     models.JobType
}

// Filter normalizes q: per_page is capped at MaxPerPage, page defaults
// to 1 and sort defaults to newest first.
func (q Query) Filter() (models.JobFilter, error) {
	f := models.JobFilter{
		Keyword:  strings.TrimSpace(q.Keyword),
		Location: strings.TrimSpace(q.Location),
		Sort:     models.SortCreatedAt,
		Desc:     true,
		Page:     q.Page,
		PerPage:  ClampPerPage(q.PerPage),
	}

	if f.Page < 1 {
		f.Page = 1
	}

	if q.JobType != "" {
		t, ok := models.ParseJobType(q.JobType)
		if !ok {
			return models.JobFilter{}, fmt.Errorf("job_type %q: %w", q.JobType, ErrInvalidJobType)
		}
		f.JobType = t
	}

	if s := strings.TrimSpace(q.Sort); s != "" {
		f.Desc = strings.HasPrefix(s, "-")
		f.Sort = models.JobSort(strings.TrimPrefix(s, "-"))

		switch f.Sort {
		case models.SortCreatedAt, models.SortTitle, models.SortLocation:
		default:
			return models.JobFilter{}, fmt.Errorf("sort %q: %w", q.Sort, ErrInvalidSort)
		}
	}

	return f, nil
}

func ClampPerPage(n int) int {
	switch {
	case n <= 0:
		return DefaultPerPage
	case n > MaxPerPage:
		return MaxPerPage
	}

	return n
}

func (s *Service) List(ctx context.Context, f models.JobFilter) ([]models.JobPost, models.Page, error) {
	const op = "jobs.List"

	jobs, total, err := s.store.Jobs(ctx, f)
	if err != nil {
		s.log.Error("failed to list jobs", slog.String("op", op), sl.Err(err))
		return nil, models.Page{}, fmt.Errorf("%s: %w", op, err)
	}

	return jobs, models.NewPage(f.Page, f.PerPage, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.JobPost, error) {
	const op = "jobs.Get"

	job, err := s.store.Job(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return models.JobPost{}, ErrJobNotFound
		}
		return models.JobPost{}, fmt.Errorf("%s: %w", op, err)
	}

	return job, nil
}

// ListOwn lists the caller's own job posts, newest first.
func (s *Service) ListOwn(ctx context.Context, caller models.Caller, page, perPage int) ([]models.JobPost, models.Page, error) {
	if err := policy.ManageJobs(caller); err != nil {
		return nil, models.Page{}, err
	}

	if page < 1 {
		page = 1
	}

	return s.List(ctx, models.JobFilter{
		EmployerID: caller.UserID,
		Sort:       models.SortCreatedAt,
		Desc:       true,
		Page:       page,
		PerPage:    ClampPerPage(perPage),
	})
}

func (s *Service) Create(ctx context.Context, caller models.Caller, in Input) (models.JobPost, error) {
	const op = "jobs.Create"

	log := s.log.With(slog.String("op", op), slog.Int64("uid", caller.UserID))

	if err := policy.ManageJobs(caller); err != nil {
		return models.JobPost{}, err
	}

	id, err := s.store.SaveJob(ctx, models.JobPost{
		EmployerID:  caller.UserID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		JobType:     in.JobType,
		CreatedAt:   s.now(),
	})
	if err != nil {
		log.Error("failed to save job", sl.Err(err))
		return models.JobPost{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("job created", slog.Int64("job_id", id))

	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, caller models.Caller, id int64, patch models.JobPatch) (models.JobPost, error) {
	const op = "jobs.Update"

	job, err := s.Get(ctx, id)
	if err != nil {
		return models.JobPost{}, err
	}

	if err := policy.UpdateJob(caller, job); err != nil {
		return models.JobPost{}, err
	}

	if err := s.store.UpdateJob(ctx, id, patch, s.now()); err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return models.JobPost{}, ErrJobNotFound
		}
		s.log.Error("failed to update job", slog.String("op", op), sl.Err(err))
		return models.JobPost{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, caller models.Caller, id int64) error {
	const op = "jobs.Delete"

	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := policy.DeleteJob(caller, job); err != nil {
		return err
	}

	if err := s.store.DeleteJob(ctx, id); err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return ErrJobNotFound
		}
		s.log.Error("failed to delete job", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("job deleted", slog.String("op", op), slog.Int64("job_id", id))

	return nil
}
