// Package csrf rejects state-changing requests from origins that are not
// explicitly allowed. Cookie-authenticated browsers are the concern; requests
// without an Origin header pass.
package csrf

import (
	"log/slog"
	"net/http"
	"strings"

	resp "github.com/IT21309038/Mini-Job-Board/internal/lib/api/response"
)

func New(log *slog.Logger, allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(set) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := set[strings.ToLower(origin)]; !ok {
				log.Warn("cross-origin request rejected",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
				)
				resp.Send(w, r, http.StatusForbidden, resp.Error("Forbidden."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
