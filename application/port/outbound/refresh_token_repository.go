package outbound

import (
	"context"
	"errors"

	"github.com/chtmcooks/auth-service/domain/entity"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	// Revoke matches already-revoked records too; ErrRefreshTokenNotFound only when nothing matched.
	Revoke(ctx context.Context, token string) error
	RevokeByUserID(ctx context.Context, userID string) error
	DeleteByID(ctx context.Context, id string) error
}
