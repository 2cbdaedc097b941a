package inbound

import (
	"context"
	"time"
)

type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetTime  time.Time `json:"resetTime"`
	RetryAfter int       `json:"retryAfter"`
}

type RateLimiter interface {
	Check(ctx context.Context, identifier, rule string) RateLimitResult
	Status(ctx context.Context, identifier, rule string) RateLimitResult
	Reset(ctx context.Context, identifier, rule string) error
}
