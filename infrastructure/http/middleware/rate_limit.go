package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/domain/valueobject"
	"github.com/chtmcooks/auth-service/infrastructure/http/response"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
	"github.com/chtmcooks/auth-service/infrastructure/service/ratelimit"
)

type RateLimitMiddleware struct {
	limiter inbound.RateLimiter
	logger  logger.Logger
}

func NewRateLimitMiddleware(limiter inbound.RateLimiter, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  log,
	}
}

type rateLimitedBody struct {
	Error      string    `json:"error"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetTime  time.Time `json:"resetTime"`
	RetryAfter int       `json:"retryAfter"`
}

// Limit counts the request against rule, keyed by the authenticated user when
// claims are already on the context and by client address otherwise.
func (m *RateLimitMiddleware) Limit(rule string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identifier := ratelimit.Identifier(r, UserID(ctx))
			result := m.limiter.Check(ctx, identifier, rule)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.UnixMilli(), 10))

			if !result.Allowed {
				logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "MEDIUM", map[string]interface{}{
					"identifier": identifier,
					"rule":       rule,
					"path":       r.URL.Path,
					"userAgent":  r.UserAgent(),
				})
				h.Set("Retry-After", strconv.Itoa(result.RetryAfter))
				response.WriteJSON(w, http.StatusTooManyRequests, rateLimitedBody{
					Error:      valueobject.LookupRateLimitRule(rule).Message,
					Limit:      result.Limit,
					Remaining:  result.Remaining,
					ResetTime:  result.ResetTime,
					RetryAfter: result.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
