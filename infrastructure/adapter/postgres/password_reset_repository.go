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

type PasswordResetRepositoryAdapter struct {
	repoBase
}

func NewPasswordResetRepositoryAdapter(db *sql.DB, hasher TokenHasher, timeout time.Duration) *PasswordResetRepositoryAdapter {
	return &PasswordResetRepositoryAdapter{repoBase{db: db, hasher: hasher, timeout: timeout}}
}

// SupersedeAndCreate locks the owner's row so concurrent requests for one user serialize,
// then retires the unused tokens and inserts the new one in the same transaction.
func (r *PasswordResetRepositoryAdapter) SupersedeAndCreate(ctx context.Context, token *entity.PasswordResetToken) (int64, error) {
	if token == nil || token.ID == "" || token.UserID == "" || token.Token == "" {
		return 0, fmt.Errorf("reset token ID, user ID, and token are required")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, token.UserID).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, outbound.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to lock user: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE password_reset_tokens
		SET used = TRUE, used_at = NOW()
		WHERE user_id = $1 AND used = FALSE
	`, token.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to supersede password reset tokens: %w", err)
	}
	superseded, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at, used)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		token.ID,
		token.UserID,
		r.hasher.Hash(token.Token),
		token.ExpiresAt,
		token.CreatedAt,
		token.Used,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create password reset token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit password reset token: %w", err)
	}
	return superseded, nil
}

func (r *PasswordResetRepositoryAdapter) FindByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error) {
	if token == "" {
		return nil, outbound.ErrResetTokenNotFound
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, expires_at, created_at, used
		FROM password_reset_tokens
		WHERE token_hash = $1
		LIMIT 1
	`
	var prt entity.PasswordResetToken
	err := r.db.QueryRowContext(ctx, query, r.hasher.Hash(token)).Scan(
		&prt.ID,
		&prt.UserID,
		&prt.ExpiresAt,
		&prt.CreatedAt,
		&prt.Used,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to find password reset token: %w", err)
	}
	return &prt, nil
}

// MarkUsed claims the token. Exactly one concurrent caller sees a changed row.
func (r *PasswordResetRepositoryAdapter) MarkUsed(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE password_reset_tokens
		SET used = TRUE, used_at = NOW()
		WHERE id = $1 AND used = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark password reset token used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return outbound.ErrResetTokenAlreadyUsed
	}
	return nil
}
