package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/lib/jwt"
	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired refresh token")
	ErrInvalidAccessToken    = errors.New("invalid access token")
	ErrUserExists            = errors.New("user already exists")
	ErrUserNotFound          = errors.New("user not found")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	tokens      RefreshTokenStore
	denylist    AccessTokenDenylist
	issuer      *jwt.Issuer
	refreshTTL  time.Duration
	hashCost    int
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

type UserSaver interface {
	SaveUser(ctx context.Context, u models.User) (int64, error)
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
}

type RefreshTokenStore interface {
	SaveRefreshToken(ctx context.Context, rt models.RefreshToken) (models.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldHash string, now time.Time, next models.RefreshToken) (models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string, now time.Time) error
}

type AccessTokenDenylist interface {
	RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session is what register, login and refresh hand back to the client. The
// raw refresh secret appears here once and is never retrievable again.
type Session struct {
	User         models.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type Option func(*Auth)

func WithClock(now func() time.Time) Option {
	return func(a *Auth) { a.now = now }
}

// WithHashCost sets the bcrypt cost used for new password hashes.
func WithHashCost(cost int) Option {
	return func(a *Auth) { a.hashCost = cost }
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	tokens RefreshTokenStore,
	denylist AccessTokenDenylist,
	issuer *jwt.Issuer,
	refreshTTL time.Duration,
	opts ...Option,
) *Auth {
	a := &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		tokens:      tokens,
		denylist:    denylist,
		issuer:      issuer,
		refreshTTL:  refreshTTL,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *Auth) RegisterNewUser(
	ctx context.Context,
	name, email, pass string,
	role models.Role,
	client models.ClientInfo,
) (Session, error) {
	const op = "auth.RegisterNewUser"

	log := a.log.With(slog.String("op", op))

	log.Info("registering new user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(pass), a.hashCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		PassHash: passHash,
		Role:     role,
	}

	user.ID, err = a.usrSaver.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return Session{}, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		log.Error("failed to save user", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	return a.newSession(ctx, user, client)
}

// Login verifies the credentials and opens a new rotation chain.
func (a *Auth) Login(ctx context.Context, email, password string, client models.ClientInfo) (Session, error) {
	const op = "auth.Login"

	user, token, err := a.IssueAccess(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	raw, _, err := a.IssueRefresh(ctx, user, client)
	if err != nil {
		a.log.Error("failed to issue refresh token", slog.String("op", op), sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("user logged in successfully", slog.String("op", op), slog.Int64("uid", user.ID))

	return Session{
		User:         user,
		AccessToken:  token,
		RefreshToken: raw,
		ExpiresIn:    a.issuer.TTL(),
	}, nil
}

// IssueAccess checks email and password and mints an access token. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials after a bcrypt
// comparison, so the two cases take about the same time.
func (a *Auth) IssueAccess(ctx context.Context, email, password string) (models.User, string, error) {
	const op = "auth.IssueAccess"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(a.dummy(), []byte(password))
			log.Info("invalid credentials")
			return models.User{}, "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials")
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := a.issuer.NewToken(user, a.now())
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user, token, nil
}

// IssueRefresh starts a rotation chain for user and returns the raw secret.
func (a *Auth) IssueRefresh(ctx context.Context, user models.User, client models.ClientInfo) (string, models.RefreshToken, error) {
	const op = "auth.IssueRefresh"

	raw, rt, err := a.nextRefresh(client)
	if err != nil {
		return "", models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	rt.UserID = user.ID

	saved, err := a.tokens.SaveRefreshToken(ctx, rt)
	if err != nil {
		return "", models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return raw, saved, nil
}

// Rotate exchanges a valid refresh secret for its successor. The old row is
// revoked and the new one inserted atomically by the store.
func (a *Auth) Rotate(ctx context.Context, rawRefresh string, client models.ClientInfo) (string, models.RefreshToken, error) {
	const op = "auth.Rotate"

	if rawRefresh == "" {
		return "", models.RefreshToken{}, ErrInvalidOrExpiredToken
	}

	raw, next, err := a.nextRefresh(client)
	if err != nil {
		return "", models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := a.tokens.RotateRefreshToken(ctx, jwt.HashRefreshToken(rawRefresh), a.now(), next)
	if err != nil {
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return "", models.RefreshToken{}, ErrInvalidOrExpiredToken
		}

		return "", models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return raw, saved, nil
}

// Refresh rotates the refresh token and mints a new access token. When the
// request also carried an access token, that token is denylisted.
func (a *Auth) Refresh(
	ctx context.Context,
	rawRefresh string,
	client models.ClientInfo,
	current *models.Caller,
) (Session, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	raw, rt, err := a.Rotate(ctx, rawRefresh, client)
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			log.Info("refresh token rejected")
			return Session{}, err
		}

		log.Error("failed to rotate refresh token", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrProvider.UserByID(ctx, rt.UserID)
	if err != nil {
		log.Error("failed to load user", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.issuer.NewToken(user, a.now())
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if current != nil && current.UserID == user.ID {
		if err := a.revokeAccess(ctx, *current); err != nil {
			log.Warn("failed to denylist previous access token", sl.Err(err))
		}
	}

	log.Info("refresh successful", slog.Int64("uid", user.ID))

	return Session{
		User:         user,
		AccessToken:  token,
		RefreshToken: raw,
		ExpiresIn:    a.issuer.TTL(),
	}, nil
}

// Revoke ends the rotation chain of rawRefresh. Unknown and already revoked
// secrets are ignored.
func (a *Auth) Revoke(ctx context.Context, rawRefresh string) error {
	const op = "auth.Revoke"

	if rawRefresh == "" {
		return nil
	}

	if err := a.tokens.RevokeRefreshToken(ctx, jwt.HashRefreshToken(rawRefresh), a.now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Logout denylists the caller's access token and revokes the refresh token.
// Either input may be absent.
func (a *Auth) Logout(ctx context.Context, caller *models.Caller, rawRefresh string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if caller != nil {
		if err := a.revokeAccess(ctx, *caller); err != nil {
			log.Error("failed to denylist access token", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := a.Revoke(ctx, rawRefresh); err != nil {
		log.Error("failed to revoke refresh token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("logout successful")

	return nil
}

// Authenticate verifies an access token and checks the denylist.
func (a *Auth) Authenticate(ctx context.Context, token string) (models.Caller, error) {
	const op = "auth.Authenticate"

	caller, err := a.issuer.Parse(token, a.now())
	if err != nil {
		return models.Caller{}, ErrInvalidAccessToken
	}

	revoked, err := a.denylist.IsAccessTokenRevoked(ctx, caller.TokenID)
	if err != nil {
		return models.Caller{}, fmt.Errorf("%s: %w", op, err)
	}

	if revoked {
		return models.Caller{}, ErrInvalidAccessToken
	}

	return caller, nil
}

func (a *Auth) Me(ctx context.Context, caller models.Caller) (models.User, error) {
	const op = "auth.Me"

	user, err := a.usrProvider.UserByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (a *Auth) newSession(ctx context.Context, user models.User, client models.ClientInfo) (Session, error) {
	const op = "auth.newSession"

	log := a.log.With(slog.String("op", op), slog.Int64("uid", user.ID))

	token, err := a.issuer.NewToken(user, a.now())
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	raw, _, err := a.IssueRefresh(ctx, user, client)
	if err != nil {
		log.Error("failed to issue refresh token", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return Session{
		User:         user,
		AccessToken:  token,
		RefreshToken: raw,
		ExpiresIn:    a.issuer.TTL(),
	}, nil
}

func (a *Auth) nextRefresh(client models.ClientInfo) (string, models.RefreshToken, error) {
	raw, err := jwt.NewRefreshToken()
	if err != nil {
		return "", models.RefreshToken{}, err
	}

	return raw, models.RefreshToken{
		TokenHash: jwt.HashRefreshToken(raw),
		UserAgent: client.UserAgent,
		IP:        client.IP,
		ExpiresAt: a.now().Add(a.refreshTTL),
	}, nil
}

func (a *Auth) revokeAccess(ctx context.Context, c models.Caller) error {
	return a.denylist.RevokeAccessToken(ctx, c.TokenID, c.ExpiresAt.Sub(a.now()))
}

// dummy returns a bcrypt hash compared against when the email is unknown.
func (a *Auth) dummy() []byte {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("jobboard-dummy-password"), a.hashCost)
	})

	return a.dummyHash
}
