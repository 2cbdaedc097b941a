package outbound

import (
	"context"
	"errors"

	"github.com/chtmcooks/auth-service/domain/entity"
)

var (
	ErrResetTokenNotFound = errors.New("password reset token not found")
	// ErrResetTokenAlreadyUsed is returned by MarkUsed when the conditional update lost the race.
	ErrResetTokenAlreadyUsed = errors.New("password reset token already used")
)

type PasswordResetRepository interface {
	// SupersedeAndCreate marks every unused token of the owner as used and stores the new one
	// as a single step, so a subject never holds two redeemable tokens. It returns the number
	// of superseded tokens, or ErrUserNotFound when the owner is gone.
	SupersedeAndCreate(ctx context.Context, token *entity.PasswordResetToken) (int64, error)
	FindByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string) error
}
