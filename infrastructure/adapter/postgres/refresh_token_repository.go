package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/domain/entity"
)

type RefreshTokenRepositoryAdapter struct {
	repoBase
}

func NewRefreshTokenRepositoryAdapter(db *sql.DB, hasher TokenHasher, timeout time.Duration) *RefreshTokenRepositoryAdapter {
	return &RefreshTokenRepositoryAdapter{repoBase{db: db, hasher: hasher, timeout: timeout}}
}

func (r *RefreshTokenRepositoryAdapter) Create(ctx context.Context, token *entity.RefreshToken) error {
	if token == nil {
		return fmt.Errorf("refresh token cannot be nil")
	}
	if token.ID == "" || token.UserID == "" || token.Token == "" {
		return fmt.Errorf("refresh token ID, user ID, and token are required")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		r.hasher.Hash(token.Token),
		token.ExpiresAt,
		token.CreatedAt,
		token.Revoked,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// FindByToken never returns the plaintext; Token is left empty on the result.
func (r *RefreshTokenRepositoryAdapter) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	if token == "" {
		return nil, outbound.ErrRefreshTokenNotFound
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, expires_at, created_at, revoked
		FROM refresh_tokens
		WHERE token_hash = $1
		LIMIT 1
	`
	var rt entity.RefreshToken
	err := r.db.QueryRowContext(ctx, query, r.hasher.Hash(token)).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.ExpiresAt,
		&rt.CreatedAt,
		&rt.Revoked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return &rt, nil
}

func (r *RefreshTokenRepositoryAdapter) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return outbound.ErrRefreshTokenNotFound
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// already revoked rows still match so a repeated logout is accepted
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = COALESCE(revoked_at, NOW())
		WHERE token_hash = $1
	`
	result, err := r.db.ExecContext(ctx, query, r.hasher.Hash(token))
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

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = NOW()
		WHERE user_id = $1 AND revoked = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by user ID: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepositoryAdapter) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
