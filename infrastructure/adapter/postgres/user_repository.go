package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/domain/entity"
)

type UserRepositoryAdapter struct {
	db *sql.DB
}

func NewUserRepositoryAdapter(db *sql.DB) outbound.UserRepository {
	return &UserRepositoryAdapter{
		db: db,
	}
}

func (r *UserRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	query := `
		SELECT id, email, password, tenant_id, roles, created_at, updated_at
		FROM users
		WHERE email = $1
		LIMIT 1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepositoryAdapter) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	query := `
		SELECT id, email, password, tenant_id, roles, created_at, updated_at
		FROM users
		WHERE id = $1
		LIMIT 1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepositoryAdapter) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	if id == "" || hashedPassword == "" {
		return fmt.Errorf("user ID and password hash are required")
	}

	query := `
		UPDATE users
		SET password = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, hashedPassword, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return outbound.ErrUserNotFound
	}

	return nil
}

func (r *UserRepositoryAdapter) MarkEmailVerified(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	query := `
		UPDATE users
		SET email_verified_at = COALESCE(email_verified_at, $1), updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return outbound.ErrUserNotFound
	}

	return nil
}

func (r *UserRepositoryAdapter) scanUser(row *sql.Row) (*entity.User, error) {
	var user entity.User
	var tenantID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&tenantID,
		pq.Array(&user.Roles),
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if tenantID.Valid {
		user.TenantID = tenantID.String
	}

	return &user, nil
}
