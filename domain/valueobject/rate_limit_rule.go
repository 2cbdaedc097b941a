package valueobject

import "time"

const DefaultRateLimitRule = "api-general"

type RateLimitRule struct {
	Name      string
	Window    time.Duration
	MaxEvents int
	Message   string
}

var rateLimitRules = map[string]RateLimitRule{
	"auth:login": {
		Name:      "auth:login",
		Window:    15 * time.Minute,
		MaxEvents: 5,
		Message:   "Too many login attempts, please try again after 15 minutes.",
	},
	"auth:register": {
		Name:      "auth:register",
		Window:    time.Hour,
		MaxEvents: 10,
		Message:   "Too many registration attempts, please try again after 1 hour.",
	},
	"auth:refresh": {
		Name:      "auth:refresh",
		Window:    time.Hour,
		MaxEvents: 10,
		Message:   "Too many token refresh attempts, please try again after 1 hour.",
	},
	"auth:password-reset": {
		Name:      "auth:password-reset",
		Window:    time.Hour,
		MaxEvents: 5,
		Message:   "Too many password reset attempts, please try again after 1 hour.",
	},
	DefaultRateLimitRule: {
		Name:      DefaultRateLimitRule,
		Window:    time.Hour,
		MaxEvents: 1000,
		Message:   "Too many requests, please try again after 1 hour.",
	},
	"api:read": {
		Name:      "api:read",
		Window:    time.Minute,
		MaxEvents: 100,
		Message:   "Too many read requests, please try again after 1 minute.",
	},
	"api:admin": {
		Name:      "api:admin",
		Window:    time.Minute,
		MaxEvents: 200,
		Message:   "Too many admin requests, please try again after 1 minute.",
	},
}

// LookupRateLimitRule returns the named rule, or the general-purpose rule when the name is unknown.
func LookupRateLimitRule(name string) RateLimitRule {
	if rule, ok := rateLimitRules[name]; ok {
		return rule
	}
	return rateLimitRules[DefaultRateLimitRule]
}
