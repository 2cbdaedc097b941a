package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtmcooks/auth-service/application/port/outbound"
	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/domain/valueobject"
	"github.com/chtmcooks/auth-service/infrastructure/adapter/memory"
)

func TestResendThenVerifyEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.registerStudent(t)

	require.NoError(t, h.verify.ResendVerification(ctx, reg.User.ID))
	token := h.mailer.last(t, "verify")

	resp, err := h.verify.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, resp.AlreadyVerified)

	me, err := h.auth.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.True(t, me.EmailVerified)

	// the token is cleared once used
	_, err = h.verify.VerifyEmail(ctx, token)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidToken))

	err = h.verify.ResendVerification(ctx, reg.User.ID)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeAlreadyVerified))
}

func TestVerifyEmail_Expired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.registerStudent(t)
	require.NoError(t, h.verify.ResendVerification(ctx, reg.User.ID))
	token := h.mailer.last(t, "verify")

	h.clock.Advance(valueobject.EmailVerificationTTL + time.Minute)

	_, err := h.verify.VerifyEmail(ctx, token)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeTokenExpired))
}

// vanishingUserRepository simulates the account being deleted between lookup and update.
type vanishingUserRepository struct {
	*memory.UserRepository
}

func (r vanishingUserRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	return outbound.ErrUserNotFound
}

func TestVerifyEmail_DeletedAccountIsNotReportedVerified(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.registerStudent(t)
	require.NoError(t, h.verify.ResendVerification(ctx, reg.User.ID))
	token := h.mailer.last(t, "verify")

	uc := NewEmailVerificationUseCase(vanishingUserRepository{h.users}, h.tokens, h.mailer, h.log, h.clock)
	resp, err := uc.VerifyEmail(ctx, token)
	assert.Nil(t, resp)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidToken))
}

func TestVerifyEmail_ResendReplacesToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.registerStudent(t)
	require.NoError(t, h.verify.ResendVerification(ctx, reg.User.ID))
	old := h.mailer.last(t, "verify")
	require.NoError(t, h.verify.ResendVerification(ctx, reg.User.ID))

	_, err := h.verify.VerifyEmail(ctx, old)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidToken))
	_, err = h.verify.VerifyEmail(ctx, h.mailer.last(t, "verify"))
	assert.NoError(t, err)
}

func TestVerifyEmail_ConcurrentCallersSeeOneVerification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.registerStudent(t)
	require.NoError(t, h.verify.ResendVerification(ctx, reg.User.ID))
	token := h.mailer.last(t, "verify")

	const callers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := h.verify.VerifyEmail(ctx, token)
			if err != nil {
				assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidToken), "got %v", err)
				return
			}
			if !resp.AlreadyVerified {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fresh)
}

func TestResendVerification_DeliveryFailureIsSurfaced(t *testing.T) {
	h := newHarness(t)
	reg := h.registerStudent(t)
	h.mailer.err = errors.New("smtp down")

	err := h.verify.ResendVerification(context.Background(), reg.User.ID)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeDeliveryFailed))
}

func TestResendVerification_RequiresIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.True(t, apperror.HasCode(h.verify.ResendVerification(ctx, ""), apperror.ErrCodeAuthenticationRequired))
	assert.True(t, apperror.HasCode(h.verify.ResendVerification(ctx, "missing"), apperror.ErrCodeAccountNotFound))

	_, err := h.verify.VerifyEmail(ctx, "")
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidRequest))
}
