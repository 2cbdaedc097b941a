package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/chtmcooks/auth-service/domain/entity"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrEmailAlreadyVerified is returned by MarkEmailVerified when another request got there first;
	// a user that no longer exists yields ErrUserNotFound instead.
	ErrEmailAlreadyVerified = errors.New("email already verified")
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// FindByEmail compares case-insensitively.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	SetEmailVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	FindByEmailVerificationToken(ctx context.Context, token string) (*entity.User, error)
	MarkEmailVerified(ctx context.Context, userID string) error

	// List returns every account, oldest first.
	List(ctx context.Context) ([]*entity.User, error)
}
