package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"cardlink/internal/platform/token"
	"cardlink/pkg/domain"
	"cardlink/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*token.Claims, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and injects the
// principal (user ID + role) into the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := authenticate(r, validator)
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth injects the principal when a valid bearer token is present and
// lets anonymous requests through. The public card route uses this: the
// view counter must know the viewer when there is one.
func OptionalAuth(validator JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ctx, ok := authenticate(r, validator); ok {
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, validator JWTValidator) (context.Context, bool) {
	authHeader := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return nil, false
	}
	claims, err := validator.ValidateToken(tokenString)
	if err != nil {
		return nil, false
	}
	userID, err := domain.ParseUserID(claims.UserID)
	if err != nil {
		return nil, false
	}
	ctx := requestcontext.WithUserID(r.Context(), userID)
	ctx = requestcontext.WithRole(ctx, claims.Role)
	return ctx, true
}
