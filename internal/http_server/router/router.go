package router

import (
	"log/slog"
	"net/http"

	"github.com/IT21309038/Mini-Job-Board/internal/applications"
	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/cookies"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/candidate"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/employer"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/health"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/jobposts"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/login"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/logout"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/me"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/refresh"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/register"
	"github.com/IT21309038/Mini-Job-Board/internal/http_server/handlers/resume"
	"github.com/IT21309038/Mini-Job-Board/internal/jobs"
	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/authn"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/csrf"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/metrics"
	"github.com/IT21309038/Mini-Job-Board/internal/middleware/ratelimit"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Auth           *auth.Auth
	Jobs           *jobs.Service
	Applications   *applications.Service
	Cookies        *cookies.Jar
	Health         map[string]health.Pinger
	Registry       *prometheus.Registry
	AllowedOrigins []string
	MaxResumeSize  int64
	// RateLimits disables the per-IP limiters when false.
	RateLimits bool
}

func New(log *slog.Logger, d Deps) http.Handler {
	validate := resp.NewValidator()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if d.Registry != nil {
		r.Use(metrics.New(d.Registry).Middleware)
	}
	r.Use(csrf.New(log, d.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp.Send(w, r, http.StatusNotFound, resp.Error("Not found."))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		resp.Send(w, r, http.StatusMethodNotAllowed, resp.Error("Method not allowed."))
	})

	limit := func(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
		if !d.RateLimits {
			return func(next http.Handler) http.Handler { return next }
		}
		return mw
	}

	optional := authn.Optional(log, d.Auth)
	required := authn.Required(log, d.Auth)

	r.Get("/health", health.New(log, d.Health))
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limit(ratelimit.Register())).Post("/register", register.New(log, validate, d.Auth, d.Cookies))
			r.With(limit(ratelimit.Login())).Post("/login", login.New(log, validate, d.Auth, d.Cookies))
			r.With(limit(ratelimit.Refresh()), optional).Post("/refresh", refresh.New(log, d.Auth, d.Cookies))
			r.With(optional).Post("/logout", logout.New(log, d.Auth, d.Cookies))
			r.With(required).Get("/me", me.New(log, d.Auth))
		})

		r.Get("/jobs", jobposts.List(log, d.Jobs))
		r.Get("/jobs/{id}", jobposts.Get(log, d.Jobs))

		r.Group(func(r chi.Router) {
			r.Use(required)

			r.Get("/employer/jobs", employer.Jobs(log, d.Jobs))
			r.Post("/employer/jobs", employer.CreateJob(log, validate, d.Jobs))
			r.Put("/employer/jobs/{id}", employer.UpdateJob(log, validate, d.Jobs))
			r.Delete("/employer/jobs/{id}", employer.DeleteJob(log, d.Jobs))
			r.Get("/employer/jobs/{id}/applications", employer.Applicants(log, d.Applications))

			r.With(limit(ratelimit.Apply())).Post("/candidate/applications",
				candidate.Apply(log, validate, d.Applications, d.MaxResumeSize))
			r.Get("/candidate/applications", candidate.Applications(log, d.Applications))

			r.Get("/applications/{id}/resume-link", resume.Link(log, d.Applications))
		})

		// The signature is the gate; a session, when present, must match the
		// viewer the link was issued to.
		r.With(optional).Get("/applications/{id}/resume", resume.Download(log, d.Applications))
	})

	return r
}
