// Package memory is an in-process implementation of the relational store and
// the access-token denylist. It backs service and router tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/storage"
)

type Storage struct {
	mu sync.Mutex

	nextID  int64
	users   map[int64]models.User
	tokens  []models.RefreshToken
	jobs    map[int64]models.JobPost
	apps    map[int64]models.Application
	revoked map[string]time.Time

	now func() time.Time
}

func New() *Storage {
	return &Storage{
		users:   make(map[int64]models.User),
		jobs:    make(map[int64]models.JobPost),
		apps:    make(map[int64]models.Application),
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for created_at stamps and denylist
// expiry.
func (s *Storage) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Storage) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Storage) Ping(context.Context) error { return nil }

// === users ===

func (s *Storage) SaveUser(_ context.Context, u models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return 0, storage.ErrUserExists
		}
	}

	u.ID = s.id()
	u.CreatedAt = s.now()
	s.users[u.ID] = u

	return u.ID, nil
}

func (s *Storage) User(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}

	return models.User{}, storage.ErrUserNotFound
}

func (s *Storage) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

// === refresh tokens ===

func (s *Storage) SaveRefreshToken(_ context.Context, rt models.RefreshToken) (models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveToken(rt), nil
}

func (s *Storage) RotateRefreshToken(
	_ context.Context,
	oldHash string,
	now time.Time,
	next models.RefreshToken,
) (models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tokens {
		t := &s.tokens[i]
		if t.TokenHash != oldHash || !t.Valid(now) {
			continue
		}

		revokedAt := now
		t.RevokedAt = &revokedAt
		next.UserID = t.UserID

		return s.saveToken(next), nil
	}

	return models.RefreshToken{}, storage.ErrRefreshTokenNotFound
}

func (s *Storage) RevokeRefreshToken(_ context.Context, tokenHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tokens {
		if s.tokens[i].TokenHash == tokenHash && s.tokens[i].RevokedAt == nil {
			revokedAt := now
			s.tokens[i].RevokedAt = &revokedAt
		}
	}

	return nil
}

// RefreshTokens returns a copy of every stored token row.
func (s *Storage) RefreshTokens() []models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.RefreshToken(nil), s.tokens...)
}

func (s *Storage) saveToken(rt models.RefreshToken) models.RefreshToken {
	rt.ID = s.id()
	rt.CreatedAt = s.now()
	s.tokens = append(s.tokens, rt)

	return rt
}

// === access-token denylist ===

func (s *Storage) RevokeAccessToken(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl > 0 {
		s.revoked[tokenID] = s.now().Add(ttl)
	}

	return nil
}

func (s *Storage) IsAccessTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]

	return ok && s.now().Before(until), nil
}

// === jobs ===

func (s *Storage) SaveJob(_ context.Context, job models.JobPost) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[job.EmployerID]; !ok {
		return 0, storage.ErrUserNotFound
	}

	job.ID = s.id()
	job.UpdatedAt = job.CreatedAt
	s.jobs[job.ID] = job

	return job.ID, nil
}

func (s *Storage) Job(_ context.Context, id int64) (models.JobPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.JobPost{}, storage.ErrJobNotFound
	}

	return s.withEmployer(job), nil
}

func (s *Storage) Jobs(_ context.Context, f models.JobFilter) ([]models.JobPost, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.JobPost

	kw := strings.ToLower(strings.TrimSpace(f.Keyword))
	loc := strings.ToLower(strings.TrimSpace(f.Location))

	for _, job := range s.jobs {
		if f.EmployerID != 0 && job.EmployerID != f.EmployerID {
			continue
		}
		if kw != "" &&
			!strings.Contains(strings.ToLower(job.Title), kw) &&
			!strings.Contains(strings.ToLower(job.Description), kw) {
			continue
		}
		if loc != "" && !strings.Contains(strings.ToLower(job.Location), loc) {
			continue
		}
		if f.JobType != "" && job.JobType != f.JobType {
			continue
		}
		matched = append(matched, s.withEmployer(job))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if f.Desc {
			a, b = b, a
		}

		switch f.Sort {
		case models.SortTitle:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case models.SortLocation:
			if a.Location != b.Location {
				return a.Location < b.Location
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}

		return a.ID < b.ID
	})

	return paginate(matched, f.Page, f.PerPage), len(matched), nil
}

func (s *Storage) UpdateJob(_ context.Context, id int64, patch models.JobPatch, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return storage.ErrJobNotFound
	}

	if patch.Title != nil {
		job.Title = *patch.Title
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Location != nil {
		job.Location = *patch.Location
	}
	if patch.JobType != nil {
		job.JobType = *patch.JobType
	}
	job.UpdatedAt = now

	s.jobs[id] = job

	return nil
}

func (s *Storage) DeleteJob(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return storage.ErrJobNotFound
	}

	delete(s.jobs, id)

	for appID, app := range s.apps {
		if app.JobID == id {
			delete(s.apps, appID)
		}
	}

	return nil
}

func (s *Storage) withEmployer(job models.JobPost) models.JobPost {
	job.Employer = models.UserSummary{ID: job.EmployerID, Name: s.users[job.EmployerID].Name}
	return job
}

// === applications ===

func (s *Storage) HasApplied(_ context.Context, candidateID, jobID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hasApplied(candidateID, jobID), nil
}

func (s *Storage) SaveApplication(_ context.Context, app models.Application) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[app.JobID]; !ok {
		return 0, storage.ErrJobNotFound
	}

	if s.hasApplied(app.CandidateID, app.JobID) {
		return 0, storage.ErrApplicationExists
	}

	app.ID = s.id()
	s.apps[app.ID] = app

	return app.ID, nil
}

func (s *Storage) Application(_ context.Context, id int64) (models.ApplicationDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return models.ApplicationDetails{}, storage.ErrApplicationNotFound
	}

	return s.details(app), nil
}

func (s *Storage) ApplicationsByCandidate(
	_ context.Context,
	candidateID int64,
	page, perPage int,
) ([]models.ApplicationDetails, int, error) {
	return s.applications(func(a models.Application) bool { return a.CandidateID == candidateID }, page, perPage)
}

func (s *Storage) ApplicationsByJob(
	_ context.Context,
	jobID int64,
	page, perPage int,
) ([]models.ApplicationDetails, int, error) {
	return s.applications(func(a models.Application) bool { return a.JobID == jobID }, page, perPage)
}

func (s *Storage) applications(
	match func(models.Application) bool,
	page, perPage int,
) ([]models.ApplicationDetails, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.ApplicationDetails

	for _, app := range s.apps {
		if match(app) {
			matched = append(matched, s.details(app))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	return paginate(matched, page, perPage), len(matched), nil
}

func (s *Storage) hasApplied(candidateID, jobID int64) bool {
	for _, app := range s.apps {
		if app.CandidateID == candidateID && app.JobID == jobID {
			return true
		}
	}

	return false
}

func (s *Storage) details(app models.Application) models.ApplicationDetails {
	c := s.users[app.CandidateID]

	return models.ApplicationDetails{
		Application: app,
		Job:         s.withEmployer(s.jobs[app.JobID]),
		Candidate:   models.UserSummary{ID: c.ID, Name: c.Name, Email: c.Email},
	}
}

func paginate[T any](items []T, page, perPage int) []T {
	start := models.Offset(page, perPage)
	if perPage <= 0 || start >= len(items) {
		return []T{}
	}

	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}
