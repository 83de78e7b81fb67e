package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/storage"
)

const selectJob = `
	SELECT j.id, j.employer_id, j.title, j.description, j.location, j.job_type,
	       j.created_at, j.updated_at, u.name
	FROM job_posts j
	JOIN users u ON u.id = j.employer_id
`

var sortColumns = map[models.JobSort]string{
	models.SortCreatedAt: "j.created_at",
	models.SortTitle:     "j.title",
	models.SortLocation:  "j.location",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Storage) SaveJob(ctx context.Context, job models.JobPost) (int64, error) {
	const op = "storage.postgres.SaveJob"

	const query = `
		INSERT INTO job_posts (employer_id, title, description, location, job_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`

	var id int64

	err := s.db.QueryRowContext(ctx, query,
		job.EmployerID,
		job.Title,
		job.Description,
		job.Location,
		string(job.JobType),
		job.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) Job(ctx context.Context, id int64) (models.JobPost, error) {
	const op = "storage.postgres.Job"

	job, err := scanJob(s.db.QueryRowContext(ctx, selectJob+` WHERE j.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.JobPost{}, storage.ErrJobNotFound
		}

		return models.JobPost{}, fmt.Errorf("%s: %w", op, err)
	}

	return job, nil
}

// Jobs returns one page of job posts matching f and the total match count.
func (s *Storage) Jobs(ctx context.Context, f models.JobFilter) ([]models.JobPost, int, error) {
	const op = "storage.postgres.Jobs"

	where, args := jobConditions(f)

	var total int

	countQuery := `SELECT COUNT(*) FROM job_posts j` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	if total == 0 {
		return []models.JobPost{}, 0, nil
	}

	column, ok := sortColumns[f.Sort]
	if !ok {
		column = sortColumns[models.SortCreatedAt]
	}

	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}

	args = append(args, f.PerPage, models.Offset(f.Page, f.PerPage))
	query := fmt.Sprintf("%s%s ORDER BY %s %s, j.id %s LIMIT $%d OFFSET $%d",
		selectJob, where, column, direction, direction, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	jobs := make([]models.JobPost, 0, f.PerPage)

	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return jobs, total, nil
}

func (s *Storage) UpdateJob(ctx context.Context, id int64, patch models.JobPatch, now time.Time) error {
	const op = "storage.postgres.UpdateJob"

	const query = `
		UPDATE job_posts
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    location = COALESCE($4, location),
		    job_type = COALESCE($5, job_type),
		    updated_at = $6
		WHERE id = $1
	`

	var jobType *string
	if patch.JobType != nil {
		t := string(*patch.JobType)
		jobType = &t
	}

	res, err := s.db.ExecContext(ctx, query, id, patch.Title, patch.Description, patch.Location, jobType, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectAffected(res, storage.ErrJobNotFound)
}

func (s *Storage) DeleteJob(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteJob"

	res, err := s.db.ExecContext(ctx, `DELETE FROM job_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectAffected(res, storage.ErrJobNotFound)
}

func jobConditions(f models.JobFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.EmployerID != 0 {
		args = append(args, f.EmployerID)
		conds = append(conds, fmt.Sprintf("j.employer_id = $%d", len(args)))
	}

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		args = append(args, likePattern(kw))
		conds = append(conds, fmt.Sprintf("(j.title ILIKE $%[1]d OR j.description ILIKE $%[1]d)", len(args)))
	}

	if loc := strings.TrimSpace(f.Location); loc != "" {
		args = append(args, likePattern(loc))
		conds = append(conds, fmt.Sprintf("j.location ILIKE $%d", len(args)))
	}

	if f.JobType != "" {
		args = append(args, string(f.JobType))
		conds = append(conds, fmt.Sprintf("j.job_type = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanJob(row rowScanner) (models.JobPost, error) {
	var (
		job     models.JobPost
		jobType string
	)

	err := row.Scan(
		&job.ID,
		&job.EmployerID,
		&job.Title,
		&job.Description,
		&job.Location,
		&jobType,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.Employer.Name,
	)
	if err != nil {
		return models.JobPost{}, err
	}

	job.JobType = models.JobType(jobType)
	job.Employer.ID = job.EmployerID

	return job, nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return notFound
	}

	return nil
}
