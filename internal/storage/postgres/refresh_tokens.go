package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/storage"
)

const insertRefreshToken = `
	INSERT INTO refresh_tokens (user_id, token_hash, user_agent, ip_address, expires_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at
`

func (s *Storage) SaveRefreshToken(ctx context.Context, rt models.RefreshToken) (models.RefreshToken, error) {
	const op = "storage.postgres.SaveRefreshToken"

	saved, err := saveRefreshToken(ctx, s.db, rt)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

// RotateRefreshToken revokes the valid token with oldHash and inserts next
// for the same user in one transaction. The revoke is a conditional update,
// so of two concurrent rotations of one token only the first succeeds; the
// other gets storage.ErrRefreshTokenNotFound.
func (s *Storage) RotateRefreshToken(
	ctx context.Context,
	oldHash string,
	now time.Time,
	next models.RefreshToken,
) (models.RefreshToken, error) {
	const op = "storage.postgres.RotateRefreshToken"

	const revoke = `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
		RETURNING user_id
	`

	var saved models.RefreshToken

	err := s.withTx(ctx, func(tx querier) error {
		var userID int64

		if err := tx.QueryRowContext(ctx, revoke, oldHash, now).Scan(&userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrRefreshTokenNotFound
			}
			return err
		}

		next.UserID = userID

		var err error
		saved, err = saveRefreshToken(ctx, tx, next)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return models.RefreshToken{}, err
		}

		return models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

// RevokeRefreshToken marks an unrevoked token as revoked. Unknown or already
// revoked hashes are not an error.
func (s *Storage) RevokeRefreshToken(ctx context.Context, tokenHash string, now time.Time) error {
	const op = "storage.postgres.RevokeRefreshToken"

	const query = `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL
	`

	if _, err := s.db.ExecContext(ctx, query, tokenHash, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func saveRefreshToken(ctx context.Context, q querier, rt models.RefreshToken) (models.RefreshToken, error) {
	err := q.QueryRowContext(ctx, insertRefreshToken,
		rt.UserID,
		rt.TokenHash,
		truncate(rt.UserAgent, 255),
		truncate(rt.IP, 45),
		rt.ExpiresAt,
	).Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		return models.RefreshToken{}, err
	}

	return rt, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
