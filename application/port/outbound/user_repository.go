package outbound

import (
	"context"
	"errors"

	"github.com/vantra/vantra/domain/entity"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
	MarkEmailVerified(ctx context.Context, id string) error
}
