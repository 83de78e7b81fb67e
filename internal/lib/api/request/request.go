package request

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
)

// QueryInt reads an integer query parameter, returning def when it is absent
// or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

// ID reads a positive integer route parameter.
func ID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
