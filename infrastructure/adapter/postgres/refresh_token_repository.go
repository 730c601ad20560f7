package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/domain/entity"
)

// RefreshTokenRepositoryAdapter stores refresh credentials hashed at
// rest; the plaintext credential never enters the database.
type RefreshTokenRepositoryAdapter struct {
	db   *sql.DB
	salt string
}

func NewRefreshTokenRepositoryAdapter(db *sql.DB, salt string) outbound.RefreshTokenRepository {
	return &RefreshTokenRepositoryAdapter{
		db:   db,
		salt: salt,
	}
}

func (r *RefreshTokenRepositoryAdapter) Create(ctx context.Context, token *entity.RefreshToken) error {
	if token == nil {
		return fmt.Errorf("refresh token cannot be nil")
	}
	if token.ID == "" || token.UserID == "" || token.Token == "" {
		return fmt.Errorf("refresh token ID, user ID, and token are required")
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, device_fingerprint, expires_at, created_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		r.hashToken(token.Token),
		token.DeviceFingerprint,
		token.ExpiresAt,
		token.CreatedAt,
		token.RevokedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepositoryAdapter) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	query := `
		SELECT id, user_id, device_fingerprint, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
		LIMIT 1
	`

	var refreshToken entity.RefreshToken
	var fingerprint sql.NullString
	var revokedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, r.hashToken(token)).Scan(
		&refreshToken.ID,
		&refreshToken.UserID,
		&fingerprint,
		&refreshToken.ExpiresAt,
		&refreshToken.CreatedAt,
		&revokedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	// The plaintext credential stays out of the entity to avoid leakage.
	refreshToken.Token = ""

	if fingerprint.Valid {
		refreshToken.DeviceFingerprint = fingerprint.String
	}
	if revokedAt.Valid {
		refreshToken.RevokedAt = &revokedAt.Time
	}

	return &refreshToken, nil
}

func (r *RefreshTokenRepositoryAdapter) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE token_hash = $2 AND revoked_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), r.hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return outbound.ErrRefreshTokenNotFound
	}

	return nil
}

func (r *RefreshTokenRepositoryAdapter) RevokeByUserID(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE user_id = $2 AND revoked_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by user ID: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepositoryAdapter) hashToken(raw string) []byte {
	sum := sha256.Sum256([]byte(raw + r.salt))
	return sum[:]
}
