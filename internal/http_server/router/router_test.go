package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/applications"
	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/config"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/cookies"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/health"
	"github.com/IT21309038/Mini-Job-Board/internal/jobs"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/jwt"
	"github.com/IT21309038/Mini-Job-Board/internal/lib/signedlink"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/storage/files"
	"github.com/IT21309038/Mini-Job-Board/internal/storage/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n")

// =============================================================================
// Test Helpers
// =============================================================================

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type outbox struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (o *outbox) SendMessage(_ context.Context, msg models.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

// switchableDenylist wraps the memory denylist and fails every call while
// down is set.
type switchableDenylist struct {
	*memory.Storage

	mu   sync.Mutex
	down bool
}

var errDenylistDown = errors.New("redis: connection refused")

func (d *switchableDenylist) SetDown(down bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.down = down
}

func (d *switchableDenylist) isDown() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.down
}

func (d *switchableDenylist) RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if d.isDown() {
		return errDenylistDown
	}
	return d.Storage.RevokeAccessToken(ctx, tokenID, ttl)
}

func (d *switchableDenylist) IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if d.isDown() {
		return false, errDenylistDown
	}
	return d.Storage.IsAccessTokenRevoked(ctx, tokenID)
}

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type sessionData struct {
	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	Token     string `json:"token"`
	Refresh   string `json:"refresh"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type testServer struct {
	t        *testing.T
	h        http.Handler
	clock    *clock
	outbox   *outbox
	denylist *switchableDenylist
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := &clock{t: time.Now().Truncate(time.Second)}

	store := memory.New()
	store.SetClock(clk.Now)

	blobs, err := files.NewLocal(t.TempDir())
	require.NoError(t, err)

	box := &outbox{}
	denylist := &switchableDenylist{Storage: store}

	authSvc := auth.New(log, store, store, store, denylist,
		jwt.NewIssuer("router-test-secret-with-enough-bytes", "jobboard", time.Hour),
		336*time.Hour,
		auth.WithClock(clk.Now),
		auth.WithHashCost(bcrypt.MinCost),
	)

	appSvc := applications.New(log, store, blobs, box,
		signedlink.New("router-link-secret").WithClock(clk.Now),
		applications.Config{
			PublicURL:     "http://example.test",
			LinkTTL:       168 * time.Hour,
			MaxResumeSize: 5 << 20,
		},
	)

	h := New(log, Deps{
		Auth:          authSvc,
		Jobs:          jobs.New(log, store),
		Applications:  appSvc,
		Cookies:       cookies.New(config.Cookies{SameSite: "lax"}, time.Hour, 336*time.Hour),
		Health:        map[string]health.Pinger{"postgres": store, "redis": store},
		Registry:      prometheus.NewRegistry(),
		MaxResumeSize: 5 << 20,
	})

	return &testServer{t: t, h: h, clock: clk, outbox: box, denylist: denylist}
}

func (s *testServer) do(r *http.Request) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, r)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}

	return rec, env
}

func (s *testServer) json(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	return s.do(r)
}

func (s *testServer) register(email, role string) sessionData {
	s.t.Helper()

	rec, env := s.json(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "User " + role,
		"email":    email,
		"password": "Secret123!",
		"role":     role,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var sd sessionData
	require.NoError(s.t, json.Unmarshal(env.Data, &sd))
	return sd
}

func (s *testServer) createJob(token, title string) int64 {
	s.t.Helper()

	rec, env := s.json(http.MethodPost, "/api/v1/employer/jobs", token, map[string]string{
		"title":       title,
		"description": "Build APIs",
		"location":    "Remote",
		"job_type":    "Full-Time",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var job models.JobPost
	require.NoError(s.t, json.Unmarshal(env.Data, &job))
	return job.ID
}

func (s *testServer) apply(token string, jobID int64, filename string, resume []byte) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(s.t, mw.WriteField("job_id", fmt.Sprint(jobID)))
	require.NoError(s.t, mw.WriteField("cover_letter", "I like Go."))
	if resume != nil {
		fw, err := mw.CreateFormFile("resume", filename)
		require.NoError(s.t, err)
		_, err = fw.Write(resume)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/candidate/applications", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("Authorization", "Bearer "+token)

	return s.do(r)
}

func pathOf(t *testing.T, raw string) string {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.RequestURI()
}

// =============================================================================
// Auth
// =============================================================================

func TestRegisterThenMe(t *testing.T) {
	s := newTestServer(t)

	sd := s.register("a@x.com", "candidate")
	assert.Equal(t, "bearer", sd.TokenType)
	assert.Equal(t, int64(3600), sd.ExpiresIn)
	assert.NotEmpty(t, sd.Refresh)

	rec, env := s.json(http.MethodGet, "/api/v1/auth/me", sd.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "a@x.com", me.User.Email)
	assert.Equal(t, "candidate", me.User.Role)
}

func TestRegister_SetsCookiesAndValidates(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.json(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "A", "email": "a@x.com", "password": "Secret123!", "role": "employer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	names := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = c.HttpOnly
	}
	assert.Equal(t, map[string]bool{cookies.AccessToken: true, cookies.RefreshToken: true}, names)

	rec, env := s.json(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "B", "email": "a@x.com", "password": "Secret123!", "role": "employer",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "has already been taken", env.Errors["email"])

	rec, env = s.json(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "", "email": "not-an-email", "password": "short", "role": "admin",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Validation failed.", env.Message)
	assert.Contains(t, env.Errors, "name")
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
	assert.Contains(t, env.Errors, "role")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "candidate")

	rec, env := s.json(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials.", env.Message)

	rec, env = s.json(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "Secret123!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sd sessionData
	require.NoError(t, json.Unmarshal(env.Data, &sd))
	assert.Equal(t, "a@x.com", sd.User.Email)
}

func TestRefresh_Sources(t *testing.T) {
	s := newTestServer(t)
	sd := s.register("a@x.com", "candidate")

	// Cookie.
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: cookies.RefreshToken, Value: sd.Refresh})
	rec, env := s.do(r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var next sessionData
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.NotEqual(t, sd.Refresh, next.Refresh)

	// Header.
	r = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	r.Header.Set("X-Refresh-Token", next.Refresh)
	rec, env = s.do(r)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &next))

	// Body.
	rec, _ = s.json(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": next.Refresh})
	require.Equal(t, http.StatusOK, rec.Code)

	// The first secret has been rotated away.
	rec, env = s.json(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": sd.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired refresh token.", env.Message)

	rec, _ = s.json(http.MethodPost, "/api/v1/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	sd := s.register("a@x.com", "employer")

	rec, _ := s.json(http.MethodPost, "/api/v1/auth/logout", sd.Token, map[string]string{"refresh_token": sd.Refresh})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value)
	}

	rec, env := s.json(http.MethodGet, "/api/v1/auth/me", sd.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated.", env.Message)

	rec, _ = s.json(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": sd.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logging out with nothing is still fine.
	rec, _ = s.json(http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_DenylistDown(t *testing.T) {
	s := newTestServer(t)
	sd := s.register("a@x.com", "employer")

	s.denylist.SetDown(true)

	rec, env := s.json(http.MethodGet, "/api/v1/auth/me", sd.Token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error.", env.Message)

	rec, env = s.json(http.MethodPost, "/api/v1/auth/logout", sd.Token, map[string]string{"refresh_token": sd.Refresh})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error.", env.Message)
	assert.Empty(t, rec.Result().Cookies())

	s.denylist.SetDown(false)

	// The failed logout left the session intact, so a retry can finish it.
	rec, _ = s.json(http.MethodGet, "/api/v1/auth/me", sd.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.json(http.MethodPost, "/api/v1/auth/logout", sd.Token, map[string]string{"refresh_token": sd.Refresh})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.json(http.MethodGet, "/api/v1/auth/me", sd.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// Jobs
// =============================================================================

func TestJobs(t *testing.T) {
	s := newTestServer(t)
	emp := s.register("hr@acme.io", "employer")
	other := s.register("hr@globex.io", "employer")
	cand := s.register("c@x.com", "candidate")

	rec, _ := s.json(http.MethodPost, "/api/v1/employer/jobs", cand.Token, map[string]string{
		"title": "x", "description": "x", "location": "x", "job_type": "contract",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.json(http.MethodPost, "/api/v1/employer/jobs", emp.Token, map[string]string{
		"title": "Go", "description": "x", "location": "x", "job_type": "freelance",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Errors, "job_type")

	id := s.createJob(emp.Token, "Go Developer")
	s.createJob(emp.Token, "Rust Developer")

	rec, env = s.json(http.MethodGet, "/api/v1/jobs?keyword=go&per_page=500", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Jobs []models.JobPost `json:"jobs"`
		Meta models.Page      `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "Go Developer", list.Jobs[0].Title)
	assert.Equal(t, models.JobFullTime, list.Jobs[0].JobType)
	assert.Equal(t, "User employer", list.Jobs[0].Employer.Name)
	assert.Equal(t, 50, list.Meta.PerPage)

	rec, _ = s.json(http.MethodGet, "/api/v1/jobs?sort=salary", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.json(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%d", id), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env = s.json(http.MethodGet, "/api/v1/jobs/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found.", env.Message)

	path := fmt.Sprintf("/api/v1/employer/jobs/%d", id)

	rec, _ = s.json(http.MethodPut, path, other.Token, map[string]string{"title": "Hijack"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.json(http.MethodPut, path, emp.Token, map[string]string{"title": "Senior Go Developer", "job_type": "part-time"})
	require.Equal(t, http.StatusOK, rec.Code)
	var job models.JobPost
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, "Senior Go Developer", job.Title)
	assert.Equal(t, models.JobPartTime, job.JobType)
	assert.Equal(t, "Build APIs", job.Description)

	rec, env = s.json(http.MethodGet, "/api/v1/employer/jobs", emp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Jobs, 2)

	rec, _ = s.json(http.MethodDelete, path, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.json(http.MethodDelete, path, emp.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.json(http.MethodDelete, path, emp.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.json(http.MethodGet, "/api/v1/employer/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// Applications and résumé links
// =============================================================================

func TestApplyTwiceConflicts(t *testing.T) {
	s := newTestServer(t)
	emp := s.register("hr@acme.io", "employer")
	cand := s.register("c@x.com", "candidate")
	jobID := s.createJob(emp.Token, "Go Developer")

	rec, env := s.apply(cand.Token, jobID, "cv.pdf", samplePDF)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ApplicationID int64 `json:"application_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotZero(t, created.ApplicationID)

	rec, env = s.apply(cand.Token, jobID, "cv.pdf", samplePDF)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "You have already applied to this job.", env.Message)

	require.Len(t, s.outbox.msgs, 1)
	assert.Equal(t, "hr@acme.io", s.outbox.msgs[0].To)
	assert.Equal(t, "New Application – Go Developer", s.outbox.msgs[0].Subject)
}

func TestApply_Validation(t *testing.T) {
	s := newTestServer(t)
	emp := s.register("hr@acme.io", "employer")
	cand := s.register("c@x.com", "candidate")
	jobID := s.createJob(emp.Token, "Go Developer")

	rec, _ := s.apply(emp.Token, jobID, "cv.pdf", samplePDF)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.apply(cand.Token, jobID, "cv.pdf", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "is required", env.Errors["resume"])

	rec, env = s.apply(cand.Token, jobID, "cv.txt", []byte("hello"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Errors, "resume")

	rec, env = s.apply(cand.Token, 9999, "cv.pdf", samplePDF)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Errors, "job_id")
}

func TestResumeLinkLifecycle(t *testing.T) {
	s := newTestServer(t)
	emp := s.register("hr@acme.io", "employer")
	other := s.register("hr@globex.io", "employer")
	cand := s.register("c@x.com", "candidate")
	jobID := s.createJob(emp.Token, "Go Developer")

	rec, env := s.apply(cand.Token, jobID, "Ann CV.pdf", samplePDF)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ApplicationID int64 `json:"application_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	linkPath := fmt.Sprintf("/api/v1/applications/%d/resume-link?ttl=60", created.ApplicationID)

	rec, _ = s.json(http.MethodGet, linkPath, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.json(http.MethodGet, linkPath, emp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var link struct {
		URL       string    `json:"url"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &link))
	assert.True(t, strings.HasPrefix(link.URL, "http://example.test/api/v1/applications/"))
	assert.True(t, link.ExpiresAt.Equal(s.clock.Now().Add(time.Minute)))

	download := pathOf(t, link.URL)

	rec, _ = s.do(httptest.NewRequest(http.MethodGet, download, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Ann CV.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, samplePDF, rec.Body.Bytes())

	// A different signed-in user cannot reuse the employer's link.
	r := httptest.NewRequest(http.MethodGet, download, nil)
	r.Header.Set("Authorization", "Bearer "+other.Token)
	rec, _ = s.do(r)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Tampering with the application id breaks the signature.
	tampered := strings.Replace(download, fmt.Sprintf("/%d/", created.ApplicationID), "/9999/", 1)
	rec, _ = s.do(httptest.NewRequest(http.MethodGet, tampered, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Past expiry the link is dead.
	s.clock.Advance(61 * time.Second)
	rec, env = s.do(httptest.NewRequest(http.MethodGet, download, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found.", env.Message)
}

func TestListings(t *testing.T) {
	s := newTestServer(t)
	emp := s.register("hr@acme.io", "employer")
	other := s.register("hr@globex.io", "employer")
	cand := s.register("c@x.com", "candidate")
	jobID := s.createJob(emp.Token, "Go Developer")

	rec, _ := s.apply(cand.Token, jobID, "cv.pdf", samplePDF)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.json(http.MethodGet, "/api/v1/candidate/applications", cand.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var mine struct {
		Applications []applications.View `json:"applications"`
		Meta         models.Page         `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine.Applications, 1)
	assert.Equal(t, 10, mine.Meta.PerPage)

	// The candidate's own link downloads.
	rec, _ = s.do(httptest.NewRequest(http.MethodGet, pathOf(t, mine.Applications[0].DownloadURL), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	applicants := fmt.Sprintf("/api/v1/employer/jobs/%d/applications", jobID)

	rec, env = s.json(http.MethodGet, applicants, emp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var theirs struct {
		Applications []applications.View `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &theirs))
	require.Len(t, theirs.Applications, 1)
	require.NotNil(t, theirs.Applications[0].Candidate)
	assert.Equal(t, "c@x.com", theirs.Applications[0].Candidate.Email)

	rec, _ = s.json(http.MethodGet, applicants, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.json(http.MethodGet, "/api/v1/employer/jobs/9999/applications", emp.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Operational
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.json(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)

	rec, _ = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobboard_http_requests_total")

	rec, env = s.json(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found.", env.Message)
}
