package ratelimit

import (
	"net/http"
	"time"

	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"

	httprate "github.com/go-chi/httprate"
)

func Login() func(http.Handler) http.Handler {
	return limitByIP(20, time.Minute)
}

func Register() func(http.Handler) http.Handler {
	return limitByIP(10, time.Minute)
}

func Refresh() func(http.Handler) http.Handler {
	return limitByIP(30, time.Minute)
}

func Apply() func(http.Handler) http.Handler {
	return limitByIP(10, time.Minute)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	resp.Send(w, r, http.StatusTooManyRequests, resp.Error("Too many requests."))
}
