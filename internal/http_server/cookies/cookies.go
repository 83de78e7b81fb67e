package cookies

import (
	"net/http"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/config"
)

const (
	AccessToken  = "access_token"
	RefreshToken = "refresh_token"
)

type Jar struct {
	domain     string
	secure     bool
	sameSite   http.SameSite
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg config.Cookies, accessTTL, refreshTTL time.Duration) *Jar {
	return &Jar{
		domain:     cfg.Domain,
		secure:     cfg.Secure,
		sameSite:   cfg.SameSiteMode(),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SetSession writes both token cookies.
func (j *Jar) SetSession(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, j.cookie(AccessToken, access, j.accessTTL))
	http.SetCookie(w, j.cookie(RefreshToken, refresh, j.refreshTTL))
}

// Clear expires both token cookies.
func (j *Jar) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessToken, RefreshToken} {
		c := j.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

// Value returns the named cookie's value or "" when absent.
func Value(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}

func (j *Jar) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   j.domain,
		MaxAge:   int(ttl.Seconds()),
		Secure:   j.secure,
		HttpOnly: true,
		SameSite: j.sameSite,
	}
}
