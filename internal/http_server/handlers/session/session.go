// Package session holds the response shape shared by register, login and
// refresh.
package session

import (
	"net"
	"net/http"

	"github.com/IT21309038/Mini-Job-Board/internal/auth"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
)

const TokenType = "bearer"

type User struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type Response struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	Refresh   string `json:"refresh"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func NewUser(u models.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func From(s auth.Session) Response {
	return Response{
		User:      NewUser(s.User),
		Token:     s.AccessToken,
		Refresh:   s.RefreshToken,
		TokenType: TokenType,
		ExpiresIn: int64(s.ExpiresIn.Seconds()),
	}
}

// Client describes the requesting client for refresh-token bookkeeping.
// RemoteAddr is expected to be rewritten by chi's RealIP first.
func Client(r *http.Request) models.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	return models.ClientInfo{
		UserAgent: r.UserAgent(),
		IP:        ip,
	}
}
