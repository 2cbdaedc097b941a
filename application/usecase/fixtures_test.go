package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/infrastructure/adapter/memory"
	jwtservice "github.com/chtmcooks/auth-service/infrastructure/service/jwt"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
	"github.com/chtmcooks/auth-service/infrastructure/service/password"
	"github.com/chtmcooks/auth-service/pkg/clock"
)

const (
	studentEmail    = "123456789@domain.edu"
	studentPassword = "Abc12345!"
)

type sentMail struct {
	kind  string
	to    string
	token string
}

// captureMailer records every message and fails when err is set.
type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	return m.record("reset", to, token)
}

func (m *captureMailer) SendEmailVerification(_ context.Context, to, _, token string) error {
	return m.record("verify", to, token)
}

func (m *captureMailer) record(kind, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, token: token})
	return nil
}

func (m *captureMailer) last(t *testing.T, kind string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i].token
		}
	}
	t.Fatalf("no %s email sent", kind)
	return ""
}

type harness struct {
	clock    *clock.Manual
	users    *memory.UserRepository
	refresh  *memory.RefreshTokenRepository
	resets   *memory.PasswordResetRepository
	tokens   *jwtservice.JWTService
	mailer   *captureMailer
	log      logger.Logger
	hook     *logrustest.Hook
	auth     *AuthUseCase
	recovery *PasswordResetUseCase
	verify   *EmailVerificationUseCase
	slept    []time.Duration
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base, hook := logrustest.NewNullLogger()
	h := &harness{
		clock:   clock.NewManual(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)),
		users:   memory.NewUserRepository(),
		refresh: memory.NewRefreshTokenRepository(),
		resets:  memory.NewPasswordResetRepository(),
		mailer:  &captureMailer{},
		log:     logger.NewLoggerFrom(base, "test"),
		hook:    hook,
	}

	tokens, err := jwtservice.NewJWTService("test-secret", h.clock)
	require.NoError(t, err)
	h.tokens = tokens
	passwords := password.NewBcryptPasswordService(bcrypt.MinCost)

	h.auth = NewAuthUseCase(h.users, h.refresh, tokens, passwords, "domain.edu", h.log, h.clock)
	h.recovery = NewPasswordResetUseCase(h.users, h.resets, h.refresh, tokens, passwords, h.mailer, h.log, h.clock,
		WithDispatch(func(fn func()) { fn() }),
		WithPacer(time.Now, func(_ context.Context, d time.Duration) { h.slept = append(h.slept, d) }),
	)
	h.verify = NewEmailVerificationUseCase(h.users, tokens, h.mailer, h.log, h.clock)
	return h
}

func studentRequest() inbound.RegisterRequest {
	return inbound.RegisterRequest{
		FirstName: "Juan",
		LastName:  "Dela Cruz",
		Email:     studentEmail,
		Password:  studentPassword,
		Role:      "student",
		YearLevel: 3,
		Block:     "B",
		Agreement: true,
	}
}

func (h *harness) registerStudent(t *testing.T) *inbound.RegisterResponse {
	t.Helper()
	resp, err := h.auth.Register(context.Background(), studentRequest())
	require.NoError(t, err)
	return resp
}

var errStoreDown = errors.New("connection refused")
