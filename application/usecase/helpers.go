package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/domain/entity"
	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
)

func generateID() string {
	return uuid.New().String()
}

// storeFailure logs the raw store error and returns the caller-facing error.
func storeFailure(ctx context.Context, log logger.Logger, op string, err error, fields map[string]interface{}) error {
	log.Error(ctx, "Store operation failed", err, mergeFields(fields, map[string]interface{}{"operation": op}))
	return apperror.ErrServiceUnavailable(op, err)
}

func mergeFields(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func toUserResponse(u *entity.User) inbound.UserResponse {
	return inbound.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          string(u.Role),
		YearLevel:     u.YearLevel,
		Block:         u.Block,
		EmailVerified: u.EmailVerified,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
