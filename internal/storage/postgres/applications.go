package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/storage"
)

const selectApplication = `
	SELECT a.id, a.candidate_id, a.job_id, a.cover_letter, a.resume_path, a.resume_original_name, a.created_at,
	       j.id, j.employer_id, j.title, j.description, j.location, j.job_type, j.created_at, j.updated_at,
	       e.name, c.name, c.email
	FROM applications a
	JOIN job_posts j ON j.id = a.job_id
	JOIN users e ON e.id = j.employer_id
	JOIN users c ON c.id = a.candidate_id
`

func (s *Storage) HasApplied(ctx context.Context, candidateID, jobID int64) (bool, error) {
	const op = "storage.postgres.HasApplied"

	const query = `SELECT EXISTS (SELECT 1 FROM applications WHERE candidate_id = $1 AND job_id = $2)`

	var exists bool

	if err := s.db.QueryRowContext(ctx, query, candidateID, jobID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) SaveApplication(ctx context.Context, app models.Application) (int64, error) {
	const op = "storage.postgres.SaveApplication"

	const query = `
		INSERT INTO applications (candidate_id, job_id, cover_letter, resume_path, resume_original_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64

	err := s.db.QueryRowContext(ctx, query,
		app.CandidateID,
		app.JobID,
		app.CoverLetter,
		app.ResumePath,
		truncate(app.ResumeOriginalName, 255),
		app.CreatedAt,
	).Scan(&id)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return 0, storage.ErrApplicationExists
		case codeForeignKeyViolation:
			return 0, storage.ErrJobNotFound
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) Application(ctx context.Context, id int64) (models.ApplicationDetails, error) {
	const op = "storage.postgres.Application"

	app, err := scanApplication(s.db.QueryRowContext(ctx, selectApplication+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ApplicationDetails{}, storage.ErrApplicationNotFound
		}

		return models.ApplicationDetails{}, fmt.Errorf("%s: %w", op, err)
	}

	return app, nil
}

func (s *Storage) ApplicationsByCandidate(
	ctx context.Context,
	candidateID int64,
	page, perPage int,
) ([]models.ApplicationDetails, int, error) {
	return s.applications(ctx, "storage.postgres.ApplicationsByCandidate", "a.candidate_id", candidateID, page, perPage)
}

func (s *Storage) ApplicationsByJob(
	ctx context.Context,
	jobID int64,
	page, perPage int,
) ([]models.ApplicationDetails, int, error) {
	return s.applications(ctx, "storage.postgres.ApplicationsByJob", "a.job_id", jobID, page, perPage)
}

func (s *Storage) applications(
	ctx context.Context,
	op, column string,
	id int64,
	page, perPage int,
) ([]models.ApplicationDetails, int, error) {
	var total int

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM applications a WHERE %s = $1`, column)
	if err := s.db.QueryRowContext(ctx, countQuery, id).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	if total == 0 {
		return []models.ApplicationDetails{}, 0, nil
	}

	query := fmt.Sprintf(`%s WHERE %s = $1 ORDER BY a.created_at DESC, a.id DESC LIMIT $2 OFFSET $3`, selectApplication, column)

	rows, err := s.db.QueryContext(ctx, query, id, perPage, models.Offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	apps := make([]models.ApplicationDetails, 0, perPage)

	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return apps, total, nil
}

func scanApplication(row rowScanner) (models.ApplicationDetails, error) {
	var (
		app     models.ApplicationDetails
		cover   sql.NullString
		jobType string
	)

	err := row.Scan(
		&app.ID,
		&app.CandidateID,
		&app.JobID,
		&cover,
		&app.ResumePath,
		&app.ResumeOriginalName,
		&app.CreatedAt,
		&app.Job.ID,
		&app.Job.EmployerID,
		&app.Job.Title,
		&app.Job.Description,
		&app.Job.Location,
		&jobType,
		&app.Job.CreatedAt,
		&app.Job.UpdatedAt,
		&app.Job.Employer.Name,
		&app.Candidate.Name,
		&app.Candidate.Email,
	)
	if err != nil {
		return models.ApplicationDetails{}, err
	}

	app.CoverLetter = cover.String
	app.Job.JobType = models.JobType(jobType)
	app.Job.Employer.ID = app.Job.EmployerID
	app.Candidate.ID = app.CandidateID

	return app, nil
}
