package applications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/signedlink"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/policy"
	"github.com/IT21309038/Mini-Job-Board/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	PerPage       = 10
	pdfMIME       = "application/pdf"
	defaultResume = "resume.pdf"
	viewerParam   = "viewer"
	// maxResumeName matches the resume_original_name column.
	maxResumeName = 255
)

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrAlreadyApplied      = errors.New("already applied to this job")
	ErrInvalidResume       = errors.New("resume must be a PDF file")
	ErrResumeTooLarge      = errors.New("resume is too large")
	ErrResumeMissing       = errors.New("resume file is missing")
	// ErrLinkInvalid covers bad signatures, expiry and failed ownership
	// re-checks alike.
	ErrLinkInvalid = errors.New("invalid resume link")
)

type Storage interface {
	Job(ctx context.Context, id int64) (models.JobPost, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	HasApplied(ctx context.Context, candidateID, jobID int64) (bool, error)
	SaveApplication(ctx context.Context, app models.Application) (int64, error)
	Application(ctx context.Context, id int64) (models.ApplicationDetails, error)
	ApplicationsByCandidate(ctx context.Context, candidateID int64, page, perPage int) ([]models.ApplicationDetails, int, error)
	ApplicationsByJob(ctx context.Context, jobID int64, page, perPage int) ([]models.ApplicationDetails, int, error)
}

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Config struct {
	PublicURL     string
	LinkTTL       time.Duration
	MaxResumeSize int64
}

type Service struct {
	log       *slog.Logger
	store     Storage
	blobs     BlobStore
	publisher Publisher
	links     *signedlink.Signer
	cfg       Config
	now       func() time.Time
}

func New(
	log *slog.Logger,
	store Storage,
	blobs BlobStore,
	publisher Publisher,
	links *signedlink.Signer,
	cfg Config,
) *Service {
	return &Service{
		log:       log,
		store:     store,
		blobs:     blobs,
		publisher: publisher,
		links:     links,
		cfg:       cfg,
		now:       time.Now,
	}
}

type ApplyInput struct {
	JobID       int64
	CoverLetter string
	Resume      io.Reader
	Filename    string
}

// View is an application as listed to a candidate or employer.
type View struct {
	ID          int64               `json:"id"`
	JobID       int64               `json:"job_id"`
	CoverLetter string              `json:"cover_letter,omitempty"`
	ResumeName  string              `json:"resume_original_name"`
	CreatedAt   time.Time           `json:"created_at"`
	Job         *JobSummary         `json:"job,omitempty"`
	Candidate   *models.UserSummary `json:"candidate,omitempty"`
	DownloadURL string              `json:"download_url"`
}

type JobSummary struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	Location string         `json:"location"`
	JobType  models.JobType `json:"job_type"`
}

// Apply stores the résumé, records the application and notifies the
// employer. A failed notification does not fail the application.
func (s *Service) Apply(ctx context.Context, caller models.Caller, in ApplyInput) (int64, error) {
	const op = "applications.Apply"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("uid", caller.UserID),
		slog.Int64("job_id", in.JobID),
	)

	if err := policy.Apply(caller); err != nil {
		return 0, err
	}

	job, err := s.store.Job(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return 0, ErrJobNotFound
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	applied, err := s.store.HasApplied(ctx, caller.UserID, job.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if applied {
		return 0, ErrAlreadyApplied
	}

	body, err := s.readResume(in)
	if err != nil {
		return 0, err
	}

	key := fmt.Sprintf("resumes/%d/%s.pdf", caller.UserID, uuid.NewString())

	if err := s.blobs.Put(ctx, key, bytes.NewReader(body), int64(len(body)), pdfMIME); err != nil {
		log.Error("failed to store resume", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.store.SaveApplication(ctx, models.Application{
		CandidateID:        caller.UserID,
		JobID:              job.ID,
		CoverLetter:        in.CoverLetter,
		ResumePath:         key,
		ResumeOriginalName: resumeName(in.Filename),
		CreatedAt:          s.now(),
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			log.Warn("failed to remove orphaned resume", slog.String("key", key), sl.Err(delErr))
		}

		switch {
		case errors.Is(err, storage.ErrApplicationExists):
			return 0, ErrAlreadyApplied
		case errors.Is(err, storage.ErrJobNotFound):
			return 0, ErrJobNotFound
		}

		log.Error("failed to save application", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("application submitted", slog.Int64("application_id", id))

	s.notifyEmployer(ctx, log, job, caller, id, in.CoverLetter)

	return id, nil
}

func (s *Service) ListForCandidate(ctx context.Context, caller models.Caller, page int) ([]View, models.Page, error) {
	const op = "applications.ListForCandidate"

	if err := policy.Apply(caller); err != nil {
		return nil, models.Page{}, err
	}

	page = max(page, 1)

	apps, total, err := s.store.ApplicationsByCandidate(ctx, caller.UserID, page, PerPage)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("%s: %w", op, err)
	}

	views := make([]View, 0, len(apps))
	for _, app := range apps {
		v := s.view(app, caller.UserID)
		v.Job = &JobSummary{
			ID:       app.Job.ID,
			Title:    app.Job.Title,
			Location: app.Job.Location,
			JobType:  app.Job.JobType,
		}
		views = append(views, v)
	}

	return views, models.NewPage(page, PerPage, total), nil
}

func (s *Service) ListApplicants(ctx context.Context, caller models.Caller, jobID int64, page int) ([]View, models.Page, error) {
	const op = "applications.ListApplicants"

	job, err := s.store.Job(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return nil, models.Page{}, ErrJobNotFound
		}
		return nil, models.Page{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := policy.ViewApplicants(caller, job); err != nil {
		return nil, models.Page{}, err
	}

	page = max(page, 1)

	apps, total, err := s.store.ApplicationsByJob(ctx, job.ID, page, PerPage)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("%s: %w", op, err)
	}

	views := make([]View, 0, len(apps))
	for _, app := range apps {
		v := s.view(app, caller.UserID)
		candidate := app.Candidate
		v.Candidate = &candidate
		views = append(views, v)
	}

	return views, models.NewPage(page, PerPage, total), nil
}

// ResumeLink issues a signed download link for the caller. ttl is clamped to
// one second..the configured link lifetime; zero means the maximum.
func (s *Service) ResumeLink(
	ctx context.Context,
	caller models.Caller,
	appID int64,
	ttl time.Duration,
) (string, time.Time, error) {
	const op = "applications.ResumeLink"

	app, err := s.store.Application(ctx, appID)
	if err != nil {
		if errors.Is(err, storage.ErrApplicationNotFound) {
			return "", time.Time{}, ErrApplicationNotFound
		}
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := policy.DownloadResume(caller, app); err != nil {
		return "", time.Time{}, err
	}

	switch {
	case ttl <= 0 || ttl > s.cfg.LinkTTL:
		ttl = s.cfg.LinkTTL
	case ttl < time.Second:
		ttl = time.Second
	}

	link, expiresAt := s.sign(app.ID, caller.UserID, ttl)

	return link, expiresAt, nil
}

// OpenResume serves a signed download. The link must verify, the viewer it
// names must still pass the download policy and, when the request is also
// authenticated, the caller must be that viewer. Every failure before the
// blob lookup is reported as ErrLinkInvalid.
func (s *Service) OpenResume(
	ctx context.Context,
	link *url.URL,
	appID int64,
	caller *models.Caller,
) (io.ReadCloser, string, error) {
	const op = "applications.OpenResume"

	log := s.log.With(slog.String("op", op), slog.Int64("application_id", appID))

	if err := s.links.Verify(link); err != nil {
		log.Info("rejected resume link", sl.Err(err))
		return nil, "", ErrLinkInvalid
	}

	viewerID, err := strconv.ParseInt(link.Query().Get(viewerParam), 10, 64)
	if err != nil {
		return nil, "", ErrLinkInvalid
	}

	if caller != nil && caller.UserID != viewerID {
		log.Warn("resume link used by a different user", slog.Int64("uid", caller.UserID))
		return nil, "", ErrLinkInvalid
	}

	app, err := s.store.Application(ctx, appID)
	if err != nil {
		if errors.Is(err, storage.ErrApplicationNotFound) {
			return nil, "", ErrLinkInvalid
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	viewer, err := s.store.UserByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, "", ErrLinkInvalid
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := policy.DownloadResume(models.Caller{UserID: viewer.ID, Role: viewer.Role}, app); err != nil {
		log.Warn("resume viewer no longer authorized", slog.Int64("viewer", viewerID))
		return nil, "", ErrLinkInvalid
	}

	if app.ResumePath == "" {
		return nil, "", ErrResumeMissing
	}

	rc, err := s.blobs.Open(ctx, app.ResumePath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, "", ErrResumeMissing
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	name := app.ResumeOriginalName
	if name == "" {
		name = defaultResume
	}

	return rc, name, nil
}

// ResumePath is the route the signed links point at.
func ResumePath(appID int64) string {
	return fmt.Sprintf("/api/v1/applications/%d/resume", appID)
}

func (s *Service) sign(appID, viewerID int64, ttl time.Duration) (string, time.Time) {
	path, expiresAt := s.links.Sign(
		ResumePath(appID),
		url.Values{viewerParam: {strconv.FormatInt(viewerID, 10)}},
		ttl,
	)

	return strings.TrimSuffix(s.cfg.PublicURL, "/") + path, expiresAt
}

func (s *Service) view(app models.ApplicationDetails, viewerID int64) View {
	link, _ := s.sign(app.ID, viewerID, s.cfg.LinkTTL)

	return View{
		ID:          app.ID,
		JobID:       app.JobID,
		CoverLetter: app.CoverLetter,
		ResumeName:  app.ResumeOriginalName,
		CreatedAt:   app.CreatedAt,
		DownloadURL: link,
	}
}

// resumeName is the client file name without directories, shortened to
// maxResumeName runes with its extension kept.
func resumeName(filename string) string {
	name := []rune(filepath.Base(filename))
	if len(name) <= maxResumeName {
		return string(name)
	}

	ext := []rune(filepath.Ext(string(name)))
	if len(ext) >= maxResumeName {
		ext = nil
	}

	return string(name[:maxResumeName-len(ext)]) + string(ext)
}

// readResume buffers the upload, enforcing the size limit, the .pdf
// extension and PDF content.
func (s *Service) readResume(in ApplyInput) ([]byte, error) {
	if in.Resume == nil {
		return nil, ErrInvalidResume
	}

	if !strings.EqualFold(filepath.Ext(in.Filename), ".pdf") {
		return nil, ErrInvalidResume
	}

	body, err := io.ReadAll(io.LimitReader(in.Resume, s.cfg.MaxResumeSize+1))
	if err != nil {
		return nil, fmt.Errorf("applications.readResume: %w", err)
	}

	if int64(len(body)) > s.cfg.MaxResumeSize {
		return nil, ErrResumeTooLarge
	}

	if len(body) == 0 || !mimetype.Detect(body).Is(pdfMIME) {
		return nil, ErrInvalidResume
	}

	return body, nil
}

func (s *Service) notifyEmployer(
	ctx context.Context,
	log *slog.Logger,
	job models.JobPost,
	caller models.Caller,
	appID int64,
	coverLetter string,
) {
	employer, err := s.store.UserByID(ctx, job.EmployerID)
	if err != nil {
		log.Warn("failed to load employer for notification", sl.Err(err))
		return
	}

	candidate, err := s.store.UserByID(ctx, caller.UserID)
	if err != nil {
		log.Warn("failed to load candidate for notification", sl.Err(err))
		return
	}

	link, _ := s.sign(appID, employer.ID, s.cfg.LinkTTL)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", employer.Name)
	fmt.Fprintf(&b, "%s (%s) has applied to your job post %q.\n\n", candidate.Name, candidate.Email, job.Title)
	if coverLetter != "" {
		fmt.Fprintf(&b, "Cover letter:\n%s\n\n", coverLetter)
	}
	fmt.Fprintf(&b, "Download the resume (link valid for %s):\n%s\n", s.cfg.LinkTTL, link)

	msg := models.Message{
		To:      employer.Email,
		Subject: "New Application – " + job.Title,
		Body:    b.String(),
	}

	if err := s.publisher.SendMessage(ctx, msg); err != nil {
		log.Warn("failed to publish application notification", sl.Err(err))
	}
}
