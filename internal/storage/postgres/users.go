package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/storage"
)

func (s *Storage) SaveUser(ctx context.Context, u models.User) (int64, error) {
	const op = "storage.postgres.SaveUser"

	const query = `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64

	err := s.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PassHash, string(u.Role)).Scan(&id)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return 0, storage.ErrUserExists
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) User(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE email = $1
	`

	return s.scanUser(ctx, "storage.postgres.User", query, email)
}

func (s *Storage) UserByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`

	return s.scanUser(ctx, "storage.postgres.UserByID", query, id)
}

func (s *Storage) scanUser(ctx context.Context, op, query string, arg any) (models.User, error) {
	var (
		u    models.User
		role string
	)

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PassHash,
		&role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u.Role = models.Role(role)

	return u, nil
}
