package ratelimit

import (
	"net/http"
	"strings"
)

const UnknownAddress = "unknown"

// Identifier picks the counting key: the authenticated user when known, otherwise the client address.
func Identifier(r *http.Request, userID string) string {
	if userID != "" {
		return "user:" + userID
	}
	return "ip:" + ClientIP(r)
}

// ClientIP prefers the first X-Forwarded-For entry, then X-Real-IP. A missing address
// still yields a key so the request is counted.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownAddress
}
