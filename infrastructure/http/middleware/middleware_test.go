package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/application/port/outbound"
	jwtservice "github.com/chtmcooks/auth-service/infrastructure/service/jwt"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
	"github.com/chtmcooks/auth-service/pkg/clock"
)

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Check(ctx context.Context, identifier, rule string) inbound.RateLimitResult {
	args := m.Called(ctx, identifier, rule)
	return args.Get(0).(inbound.RateLimitResult)
}

func (m *MockRateLimiter) Status(ctx context.Context, identifier, rule string) inbound.RateLimitResult {
	args := m.Called(ctx, identifier, rule)
	return args.Get(0).(inbound.RateLimitResult)
}

func (m *MockRateLimiter) Reset(ctx context.Context, identifier, rule string) error {
	return m.Called(ctx, identifier, rule).Error(0)
}

func testLogger() logger.Logger {
	base, _ := logrustest.NewNullLogger()
	return logger.NewLoggerFrom(base, "test")
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(UserID(r.Context())))
})

func newTokens(t *testing.T, clk clock.Clock) *jwtservice.JWTService {
	t.Helper()
	svc, err := jwtservice.NewJWTService("middleware-secret", clk)
	require.NoError(t, err)
	return svc
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens(t, clock.Real{})
	token, _, err := tokens.GenerateAccessToken("user-1", "a@example.com", "advisor")
	require.NoError(t, err)
	mw := NewAuthMiddleware(tokens).OptionalAuth(okHandler)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz", ""},
		{"garbage bearer", "Bearer nope", ""},
		{"valid bearer", "Bearer " + token, "user-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRequireAuth(t *testing.T) {
	clk := clock.NewManual(time.Now())
	tokens := newTokens(t, clk)
	token, _, err := tokens.GenerateAccessToken("user-1", "a@example.com", "advisor")
	require.NoError(t, err)
	mw := NewAuthMiddleware(tokens).RequireAuth(okHandler)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_1008")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	clk.Advance(16 * time.Minute)
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_1004")
}

func TestRequireRoles(t *testing.T) {
	tokens := newTokens(t, clock.Real{})
	mw := NewAuthMiddleware(tokens).RequireRoles("superadmin")(okHandler)

	for role, want := range map[string]int{"superadmin": http.StatusOK, "student": http.StatusForbidden} {
		token, _, err := tokens.GenerateAccessToken("user-1", "a@example.com", role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestRateLimit_Rejected(t *testing.T) {
	reset := time.UnixMilli(1767225600000)
	limiter := &MockRateLimiter{}
	limiter.On("Check", mock.Anything, "ip:203.0.113.9", "auth:login").Return(inbound.RateLimitResult{
		Allowed: false, Limit: 5, Remaining: 0, ResetTime: reset, RetryAfter: 900,
	})

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	NewRateLimitMiddleware(limiter, testLogger()).Limit("auth:login")(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.Equal(t, "1767225600000", rec.Header().Get("X-RateLimit-Reset"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Too many login attempts, please try again after 15 minutes.", body["error"])
	assert.EqualValues(t, 5, body["limit"])
	assert.EqualValues(t, 900, body["retryAfter"])
	limiter.AssertExpectations(t)
}

func TestRateLimit_KeysOnUserWhenAuthenticated(t *testing.T) {
	limiter := &MockRateLimiter{}
	limiter.On("Check", mock.Anything, "user:user-7", "api:read").Return(inbound.RateLimitResult{
		Allowed: true, Limit: 100, Remaining: 99, ResetTime: time.Now().Add(time.Minute),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(WithUserClaims(req.Context(), &outbound.AccessClaims{UserID: "user-7", Role: "student", Kind: outbound.AccessTokenKind}))
	rec := httptest.NewRecorder()
	NewRateLimitMiddleware(limiter, testLogger()).Limit("api:read")(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, rec.Header().Get("Retry-After"))
	limiter.AssertExpectations(t)
}

func TestCorrelationID(t *testing.T) {
	var seen string
	h := CorrelationID("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))
}

func TestRecovery(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com"}, true, "")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	CORS(nil, true, "")(okHandler).ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
