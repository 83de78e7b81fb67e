package jwt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// refreshTokenBytes gives the opaque refresh secret 256 bits of entropy.
const refreshTokenBytes = 32

type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints and parses HS256 access tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewIssuer(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) NewToken(user models.User, now time.Time) (string, error) {
	const op = "jwt.NewToken"

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Parse checks the signature, expiry and issuer of tokenStr and returns the
// caller it identifies.
func (i *Issuer) Parse(tokenStr string, now time.Time) (models.Caller, error) {
	const op = "jwt.Parse"

	var claims Claims

	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return models.Caller{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return models.Caller{}, fmt.Errorf("%s: %w: bad subject", op, ErrInvalidToken)
	}

	if !claims.Role.Valid() {
		return models.Caller{}, fmt.Errorf("%s: %w: bad role", op, ErrInvalidToken)
	}

	if claims.ID == "" {
		return models.Caller{}, fmt.Errorf("%s: %w: missing jti", op, ErrInvalidToken)
	}

	return models.Caller{
		UserID:    uid,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// NewRefreshToken returns a random opaque refresh secret.
func NewRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("jwt.NewRefreshToken: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashRefreshToken is the one-way digest persisted in place of the secret.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}
