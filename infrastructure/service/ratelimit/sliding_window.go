package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/chtmcooks/auth-service/application/port/inbound"
	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/domain/valueobject"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
	"github.com/chtmcooks/auth-service/pkg/clock"
)

// SlidingWindowLimiter counts events per (identifier, rule) in a shared sorted set.
// Store failures and timeouts fail open.
type SlidingWindowLimiter struct {
	store   outbound.WindowStore
	clock   clock.Clock
	logger  logger.Logger
	timeout time.Duration
	nonce   func() string
}

type Option func(*SlidingWindowLimiter)

func WithClock(c clock.Clock) Option {
	return func(l *SlidingWindowLimiter) { l.clock = c }
}

// WithTimeout bounds each store round trip.
func WithTimeout(d time.Duration) Option {
	return func(l *SlidingWindowLimiter) { l.timeout = d }
}

func NewSlidingWindowLimiter(store outbound.WindowStore, log logger.Logger, opts ...Option) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		store:   store,
		clock:   clock.Real{},
		logger:  log.WithFields(map[string]interface{}{"component": "rate_limiter"}),
		timeout: time.Second,
		nonce:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func Key(identifier, rule string) string {
	return fmt.Sprintf("ratelimit:%s:%s", identifier, rule)
}

func (l *SlidingWindowLimiter) Check(ctx context.Context, identifier, ruleName string) inbound.RateLimitResult {
	rule := valueobject.LookupRateLimitRule(ruleName)
	key := Key(identifier, ruleName)
	now := l.clock.Now()

	storeCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	count, err := l.store.AtomicWindowUpdate(storeCtx, key, now.Add(-rule.Window), now, l.nonce(), rule.Window)
	if err != nil {
		return l.failOpen(ctx, "check", key, rule, now, err)
	}

	allowed := count < int64(rule.MaxEvents)
	result := inbound.RateLimitResult{
		Allowed:   allowed,
		Limit:     rule.MaxEvents,
		Remaining: remaining(rule.MaxEvents, count+1),
		ResetTime: now.Add(rule.Window),
	}
	if !allowed {
		result.RetryAfter = retryAfterSeconds(rule.Window)
		l.logger.Warn(ctx, "Rate limit exceeded", map[string]interface{}{
			"key":   key,
			"count": count,
			"limit": rule.MaxEvents,
		})
	}
	return result
}

// Status reports the window without recording an event.
func (l *SlidingWindowLimiter) Status(ctx context.Context, identifier, ruleName string) inbound.RateLimitResult {
	rule := valueobject.LookupRateLimitRule(ruleName)
	key := Key(identifier, ruleName)
	now := l.clock.Now()

	storeCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	count, err := l.store.CountWindow(storeCtx, key, now.Add(-rule.Window))
	if err != nil {
		return l.failOpen(ctx, "status", key, rule, now, err)
	}

	allowed := count < int64(rule.MaxEvents)
	result := inbound.RateLimitResult{
		Allowed:   allowed,
		Limit:     rule.MaxEvents,
		Remaining: remaining(rule.MaxEvents, count),
		ResetTime: now.Add(rule.Window),
	}
	if !allowed {
		result.RetryAfter = retryAfterSeconds(rule.Window)
	}
	return result
}

func (l *SlidingWindowLimiter) Reset(ctx context.Context, identifier, ruleName string) error {
	storeCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	key := Key(identifier, ruleName)
	if err := l.store.Delete(storeCtx, key); err != nil {
		l.logger.Error(ctx, "Failed to reset rate limit", err, map[string]interface{}{"key": key})
		return err
	}
	return nil
}

func (l *SlidingWindowLimiter) failOpen(ctx context.Context, op, key string, rule valueobject.RateLimitRule, now time.Time, err error) inbound.RateLimitResult {
	l.logger.Warn(ctx, "Rate limit store unavailable, failing open", map[string]interface{}{
		"operation": op,
		"key":       key,
		"error":     err.Error(),
	})
	return inbound.RateLimitResult{
		Allowed:   true,
		Limit:     rule.MaxEvents,
		Remaining: rule.MaxEvents,
		ResetTime: now.Add(rule.Window),
	}
}

func remaining(max int, used int64) int {
	left := int64(max) - used
	if left < 0 {
		return 0
	}
	return int(left)
}

func retryAfterSeconds(window time.Duration) int {
	return int(math.Ceil(window.Seconds()))
}
