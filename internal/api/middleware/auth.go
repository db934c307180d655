package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/herense/cloudsentinel/internal/api/response"
	"github.com/herense/cloudsentinel/internal/core"
	"github.com/herense/cloudsentinel/internal/model"
)

type contextKey string

const identityKey contextKey = "identity"

// Auth returns a middleware that validates the Authorization bearer token
// against the users table. Only the token's SHA-256 hash is compared.
func Auth(users *core.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			identity, err := users.GetByToken(r.Context(), token)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the authenticated caller, or nil outside the auth
// middleware.
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityKey).(*model.Identity)
	return identity
}

// WithIdentity attaches a caller identity to the context. Handler tests use
// it in place of the full middleware.
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
