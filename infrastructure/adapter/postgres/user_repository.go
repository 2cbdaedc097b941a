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

type UserRepositoryAdapter struct {
	repoBase
}

func NewUserRepositoryAdapter(db *sql.DB, hasher TokenHasher, timeout time.Duration) *UserRepositoryAdapter {
	return &UserRepositoryAdapter{repoBase{db: db, hasher: hasher, timeout: timeout}}
}

const userColumns = `id, email, password, first_name, last_name, role, year_level, block, agreement,
		email_verified, verification_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		user      entity.User
		role      string
		yearLevel sql.NullInt64
		block     sql.NullString
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.FirstName,
		&user.LastName,
		&role,
		&yearLevel,
		&block,
		&user.Agreement,
		&user.EmailVerified,
		&expiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = entity.Role(role)
	user.YearLevel = int(yearLevel.Int64)
	user.Block = block.String
	if expiresAt.Valid {
		// only the hash is stored, so the plaintext is never reloaded
		user.EmailVerificationToken = &entity.EmailVerificationToken{ExpiresAt: expiresAt.Time}
	}
	return &user, nil
}

func (r *UserRepositoryAdapter) findOne(ctx context.Context, op, where string, arg interface{}) (*entity.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", op, err)
	}
	return user, nil
}

func (r *UserRepositoryAdapter) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, outbound.ErrUserNotFound
	}
	return r.findOne(ctx, "ID", "id = $1", id)
}

func (r *UserRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, outbound.ErrUserNotFound
	}
	return r.findOne(ctx, "email", "LOWER(email) = LOWER($1)", email)
}

func (r *UserRepositoryAdapter) FindByEmailVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, outbound.ErrUserNotFound
	}
	return r.findOne(ctx, "verification token", "verification_token_hash = $1", r.hasher.Hash(token))
}

func (r *UserRepositoryAdapter) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if user.ID == "" || user.Email == "" || user.Password == "" {
		return fmt.Errorf("user ID, email, and password are required")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		yearLevel sql.NullInt64
		block     sql.NullString
	)
	if user.YearLevel > 0 {
		yearLevel = sql.NullInt64{Int64: int64(user.YearLevel), Valid: true}
	}
	if user.Block != "" {
		block = sql.NullString{String: user.Block, Valid: true}
	}

	query := `
		INSERT INTO users (id, email, password, first_name, last_name, role, year_level, block, agreement,
			email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		string(user.Role),
		yearLevel,
		block,
		user.Agreement,
		user.EmailVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return outbound.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepositoryAdapter) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *UserRepositoryAdapter) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "update password", outbound.ErrUserNotFound, query, userID, passwordHash)
}

func (r *UserRepositoryAdapter) SetEmailVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET verification_token_hash = $2, verification_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, "set verification token", outbound.ErrUserNotFound, query, userID, r.hasher.Hash(token), expiresAt)
}

// MarkEmailVerified flips the flag and clears the token in one guarded update. When no row
// changed it reads the flag back to tell a verified account from a missing one.
func (r *UserRepositoryAdapter) MarkEmailVerified(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, verification_token_hash = NULL, verification_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND email_verified = FALSE
	`
	err := r.execOne(ctx, "mark email verified", outbound.ErrEmailAlreadyVerified, query, userID)
	if !errors.Is(err, outbound.ErrEmailAlreadyVerified) {
		return err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var verified bool
	if err := r.db.QueryRowContext(ctx, `SELECT email_verified FROM users WHERE id = $1`, userID).Scan(&verified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return outbound.ErrUserNotFound
		}
		return fmt.Errorf("failed to read verification state: %w", err)
	}
	if !verified {
		return fmt.Errorf("failed to mark email verified: row unchanged")
	}
	return outbound.ErrEmailAlreadyVerified
}

func (r *UserRepositoryAdapter) List(ctx context.Context) ([]*entity.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepositoryAdapter) execOne(ctx context.Context, op string, noRows error, query string, args ...interface{}) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return noRows
	}
	return nil
}
