package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// New reports 503 when any named dependency fails its ping.
func New(log *slog.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		down := map[string]string{}

		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				log.Warn("health check failed", slog.String("dependency", name), sl.Err(err))
				down[name] = "unavailable"
			}
		}

		if len(down) > 0 {
			resp.Send(w, r, http.StatusServiceUnavailable, resp.FieldErrors("Service unavailable.", down))
			return
		}

		resp.Send(w, r, http.StatusOK, resp.OKMessage("ok"))
	}
}
