package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/chtmcooks/auth-service/application/port/outbound"
	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/infrastructure/http/response"
	jwtservice "github.com/chtmcooks/auth-service/infrastructure/service/jwt"
)

type contextKey string

const authUserKey contextKey = "auth_user"

type AuthMiddleware struct {
	tokenService outbound.TokenService
}

func NewAuthMiddleware(tokenService outbound.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// bearerToken returns "" for a missing header or any scheme other than Bearer.
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// OptionalAuth attaches claims when a valid bearer token is present and
// otherwise lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.tokenService.ValidateAccessToken(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserClaims(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			response.FromError(w, r, apperror.ErrAuthenticationRequired())
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, jwtservice.ErrTokenExpired) {
				response.FromError(w, r, apperror.ErrTokenExpired("Access token has expired."))
				return
			}
			response.FromError(w, r, apperror.ErrInvalidToken("Invalid access token."))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserClaims(r.Context(), claims)))
	})
}

// RequireRoles authenticates the caller and then restricts the route to the given roles.
func (m *AuthMiddleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := UserClaims(r.Context())
			if _, ok := allowed[claims.Role]; !ok {
				response.FromError(w, r, apperror.ErrForbidden("role "+claims.Role+" may not access this resource"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func WithUserClaims(ctx context.Context, claims *outbound.AccessClaims) context.Context {
	return context.WithValue(ctx, authUserKey, claims)
}

// UserClaims returns the authenticated caller, or nil for anonymous requests.
func UserClaims(ctx context.Context) *outbound.AccessClaims {
	if claims, ok := ctx.Value(authUserKey).(*outbound.AccessClaims); ok {
		return claims
	}
	return nil
}

// UserID is "" for anonymous requests.
func UserID(ctx context.Context) string {
	if claims := UserClaims(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}
