package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/domain/entity"
)

var testHasher = NewTokenHasher("refresh-secret")

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestTokenHasher(t *testing.T) {
	a := testHasher.Hash("token")
	assert.Len(t, a, 32)
	assert.Equal(t, a, testHasher.Hash("token"))
	assert.NotEqual(t, a, testHasher.Hash("token2"))
	assert.NotEqual(t, a, NewTokenHasher("other").Hash("token"))
}

func TestRefreshTokenRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRefreshTokenRepositoryAdapter(db, testHasher, time.Second)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rt := entity.NewRefreshToken("rt-1", "u1", "plain", now, time.Hour)

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*VALUES`).
		WithArgs("rt-1", "u1", testHasher.Hash("plain"), now.Add(time.Hour), now, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), rt))
}

func TestRefreshTokenRepository_FindByToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRefreshTokenRepositoryAdapter(db, testHasher, time.Second)

	expires := time.Now().Add(time.Hour).UTC()
	created := time.Now().UTC()
	mock.ExpectQuery(`(?s)SELECT\s+id,\s*user_id.*FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1`).
		WithArgs(testHasher.Hash("plain")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at", "revoked"}).
			AddRow("rt-1", "u1", expires, created, true))

	got, err := repo.FindByToken(context.Background(), "plain")
	require.NoError(t, err)
	assert.Equal(t, "rt-1", got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.IsRevoked())
	assert.Empty(t, got.Token)

	mock.ExpectQuery(`FROM\s+refresh_tokens`).
		WithArgs(testHasher.Hash("missing")).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, outbound.ErrRefreshTokenNotFound)
}

func TestRefreshTokenRepository_Revoke(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRefreshTokenRepositoryAdapter(db, testHasher, time.Second)

	revokeQ := `(?s)UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE.*WHERE\s+token_hash\s*=\s*\$1\s*$`

	mock.ExpectExec(revokeQ).WithArgs(testHasher.Hash("known")).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Revoke(context.Background(), "known"))

	mock.ExpectExec(revokeQ).WithArgs(testHasher.Hash("unknown")).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Revoke(context.Background(), "unknown"), outbound.ErrRefreshTokenNotFound)
}

func TestRefreshTokenRepository_RevokeByUserIDAndDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRefreshTokenRepositoryAdapter(db, testHasher, time.Second)

	mock.ExpectExec(`(?s)UPDATE\s+refresh_tokens.*WHERE\s+user_id\s*=\s*\$1\s+AND\s+revoked\s*=\s*FALSE`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	assert.NoError(t, repo.RevokeByUserID(context.Background(), "u1"))

	mock.ExpectExec(`DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("rt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeleteByID(context.Background(), "rt-1"))
}

func TestRefreshTokenRepository_Timeout(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRefreshTokenRepositoryAdapter(db, testHasher, 10*time.Millisecond)

	mock.ExpectQuery(`FROM\s+refresh_tokens`).
		WithArgs(testHasher.Hash("slow")).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByToken(context.Background(), "slow")
	require.Error(t, err)
	assert.NotErrorIs(t, err, outbound.ErrRefreshTokenNotFound)
}

func TestPasswordResetRepository_MarkUsed(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPasswordResetRepositoryAdapter(db, testHasher, time.Second)

	q := `(?s)UPDATE\s+password_reset_tokens\s+SET\s+used\s*=\s*TRUE.*WHERE\s+id\s*=\s*\$1\s+AND\s+used\s*=\s*FALSE`

	mock.ExpectExec(q).WithArgs("pr-1").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkUsed(context.Background(), "pr-1"))

	mock.ExpectExec(q).WithArgs("pr-1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkUsed(context.Background(), "pr-1"), outbound.ErrResetTokenAlreadyUsed)

	mock.ExpectExec(q).WithArgs("pr-2").WillReturnError(errors.New("conn reset"))
	err := repo.MarkUsed(context.Background(), "pr-2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, outbound.ErrResetTokenAlreadyUsed)
}

func TestPasswordResetRepository_SupersedeAndCreateFind(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPasswordResetRepositoryAdapter(db, testHasher, time.Second)
	ctx := context.Background()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	prt := entity.NewPasswordResetToken("pr-1", "u1", "plain", now, 30*time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT\s+id\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectExec(`(?s)UPDATE\s+password_reset_tokens.*WHERE\s+user_id\s*=\s*\$1\s+AND\s+used\s*=\s*FALSE`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+password_reset_tokens`).
		WithArgs("pr-1", "u1", testHasher.Hash("plain"), now.Add(30*time.Minute), now, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.SupersedeAndCreate(ctx, prt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectQuery(`(?s)FROM\s+password_reset_tokens\s+WHERE\s+token_hash\s*=\s*\$1`).
		WithArgs(testHasher.Hash("plain")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at", "used"}).
			AddRow("pr-1", "u1", now.Add(30*time.Minute), now, false))
	got, err := repo.FindByToken(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, "pr-1", got.ID)
	assert.False(t, got.Used)

	mock.ExpectQuery(`FROM\s+password_reset_tokens`).
		WithArgs(testHasher.Hash("nope")).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByToken(ctx, "nope")
	assert.ErrorIs(t, err, outbound.ErrResetTokenNotFound)
}

func TestPasswordResetRepository_SupersedeAndCreateRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPasswordResetRepositoryAdapter(db, testHasher, time.Second)
	ctx := context.Background()
	prt := entity.NewPasswordResetToken("pr-2", "u1", "plain", time.Now().UTC(), 30*time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR\s+UPDATE`).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()
	_, err := repo.SupersedeAndCreate(ctx, prt)
	assert.ErrorIs(t, err, outbound.ErrUserNotFound)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR\s+UPDATE`).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectExec(`UPDATE\s+password_reset_tokens`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT\s+INTO\s+password_reset_tokens`).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()
	_, err = repo.SupersedeAndCreate(ctx, prt)
	require.Error(t, err)
}

var userCols = []string{"id", "email", "password", "first_name", "last_name", "role", "year_level", "block",
	"agreement", "email_verified", "verification_expires_at", "created_at", "updated_at"}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepositoryAdapter(db, testHasher, time.Second)

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+LOWER\(email\)\s*=\s*LOWER\(\$1\)`).
		WithArgs("Real@X.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "real@x.com", "hash", "Ana", "Cruz", "advisor", nil, nil, false, true, nil, now, now))

	user, err := repo.FindByEmail(context.Background(), "Real@X.com")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdvisor, user.Role)
	assert.Equal(t, 0, user.YearLevel)
	assert.True(t, user.EmailVerified)
	assert.Nil(t, user.EmailVerificationToken)

	mock.ExpectQuery(`FROM\s+users`).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, outbound.ErrUserNotFound)
}

func TestUserRepository_FindByEmailVerificationToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepositoryAdapter(db, testHasher, time.Second)

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+verification_token_hash\s*=\s*\$1`).
		WithArgs(testHasher.Hash("verify")).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "123456789@domain.edu", "hash", "Ana", "Cruz", "student", 2, "B", true, false, now.Add(24*time.Hour), now, now))

	user, err := repo.FindByEmailVerificationToken(context.Background(), "verify")
	require.NoError(t, err)
	assert.Equal(t, 2, user.YearLevel)
	assert.Equal(t, "B", user.Block)
	require.NotNil(t, user.EmailVerificationToken)
	assert.Equal(t, now.Add(24*time.Hour), user.EmailVerificationToken.ExpiresAt)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepositoryAdapter(db, testHasher, time.Second)

	now := time.Now().UTC()
	user := entity.NewUser("u1", "a@b.com", "hash", "Ana", "Cruz", entity.RoleStudent, now)
	user.YearLevel = 1
	user.Block = "A"
	user.Agreement = true

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+users`).
		WithArgs("u1", "a@b.com", "hash", "Ana", "Cruz", "student", int64(1), "A", true, false, now, now).
		WillReturnError(&pq.Error{Code: "23505"})

	assert.ErrorIs(t, repo.Create(context.Background(), user), outbound.ErrUserAlreadyExists)
}

func TestUserRepository_ConditionalUpdates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepositoryAdapter(db, testHasher, time.Second)
	ctx := context.Background()

	verifyQ := `(?s)UPDATE\s+users\s+SET\s+email_verified\s*=\s*TRUE.*WHERE\s+id\s*=\s*\$1\s+AND\s+email_verified\s*=\s*FALSE`
	mock.ExpectExec(verifyQ).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkEmailVerified(ctx, "u1"))

	stateQ := `SELECT\s+email_verified\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectExec(verifyQ).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(stateQ).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"email_verified"}).AddRow(true))
	assert.ErrorIs(t, repo.MarkEmailVerified(ctx, "u1"), outbound.ErrEmailAlreadyVerified)

	mock.ExpectExec(verifyQ).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(stateQ).WithArgs("gone").WillReturnRows(sqlmock.NewRows([]string{"email_verified"}))
	err := repo.MarkEmailVerified(ctx, "gone")
	assert.ErrorIs(t, err, outbound.ErrUserNotFound)
	assert.NotErrorIs(t, err, outbound.ErrEmailAlreadyVerified)

	mock.ExpectExec(`(?s)UPDATE\s+users\s+SET\s+password\s*=\s*\$2`).
		WithArgs("ghost", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "newhash"), outbound.ErrUserNotFound)

	expires := time.Now().Add(24 * time.Hour).UTC()
	mock.ExpectExec(`(?s)UPDATE\s+users\s+SET\s+verification_token_hash\s*=\s*\$2`).
		WithArgs("u1", testHasher.Hash("tok"), expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.SetEmailVerificationToken(ctx, "u1", "tok", expires))

	mock.ExpectQuery(`SELECT\s+EXISTS`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	exists, err := repo.ExistsByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepositoryAdapter(db, testHasher, time.Second)

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)FROM\s+users\s+ORDER\s+BY\s+created_at`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "a@x.com", "hash", "Ana", "Cruz", "superadmin", nil, nil, true, true, nil, now, now).
			AddRow("u2", "123456789@domain.edu", "hash", "Ben", "Reyes", "student", 2, "B", true, false, now.Add(time.Hour), now, now))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, entity.RoleSuperAdmin, users[0].Role)
	assert.Equal(t, 2, users[1].YearLevel)
	assert.Equal(t, "B", users[1].Block)
	require.NotNil(t, users[1].EmailVerificationToken)
	assert.Empty(t, users[1].EmailVerificationToken.Token)

	mock.ExpectQuery(`FROM\s+users`).WillReturnError(errors.New("connection reset"))
	_, err = repo.List(context.Background())
	assert.Error(t, err)
}
