// Package memory holds process-local repositories with the same guarded-update
// semantics as the Postgres adapters. Tokens are keyed by their plaintext value.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/domain/entity"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User)}
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	if u.EmailVerificationToken != nil {
		t := *u.EmailVerificationToken
		c.EmailVerificationToken = &t
	}
	return &c
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, outbound.ErrUserNotFound
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, outbound.ErrUserNotFound
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.ID == user.ID {
			return outbound.ErrUserAlreadyExists
		}
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == outbound.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return outbound.ErrUserNotFound
	}
	u.Password = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepository) SetEmailVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return outbound.ErrUserNotFound
	}
	u.EmailVerificationToken = &entity.EmailVerificationToken{Token: token, ExpiresAt: expiresAt}
	return nil
}

func (r *UserRepository) FindByEmailVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.EmailVerificationToken != nil && u.EmailVerificationToken.Token == token {
			return copyUser(u), nil
		}
	}
	return nil, outbound.ErrUserNotFound
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return outbound.ErrUserNotFound
	}
	if u.EmailVerified {
		return outbound.ErrEmailAlreadyVerified
	}
	u.EmailVerified = true
	u.EmailVerificationToken = nil
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

type RefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*entity.RefreshToken
}

func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{tokens: make(map[string]*entity.RefreshToken)}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *token
	r.tokens[token.Token] = &c
	return nil
}

func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok {
		c := *t
		return &c, nil
	}
	return nil, outbound.ErrRefreshTokenNotFound
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return outbound.ErrRefreshTokenNotFound
	}
	t.Revoked = true
	return nil
}

func (r *RefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.ID == id {
			delete(r.tokens, k)
		}
	}
	return nil
}

type PasswordResetRepository struct {
	mu     sync.Mutex
	tokens map[string]*entity.PasswordResetToken
}

func NewPasswordResetRepository() *PasswordResetRepository {
	return &PasswordResetRepository{tokens: make(map[string]*entity.PasswordResetToken)}
}

func (r *PasswordResetRepository) SupersedeAndCreate(ctx context.Context, token *entity.PasswordResetToken) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tokens {
		if t.UserID == token.UserID && !t.Used {
			t.Used = true
			n++
		}
	}
	c := *token
	r.tokens[token.Token] = &c
	return n, nil
}

func (r *PasswordResetRepository) FindByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok {
		c := *t
		return &c, nil
	}
	return nil, outbound.ErrResetTokenNotFound
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.ID != id {
			continue
		}
		if t.Used {
			return outbound.ErrResetTokenAlreadyUsed
		}
		t.Used = true
		return nil
	}
	return outbound.ErrResetTokenAlreadyUsed
}
