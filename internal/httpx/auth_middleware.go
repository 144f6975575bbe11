package httpx

import (
	"net/http"
	"strings"

	"crateapi/internal/platform/crypto"
)

// OptionalAuth attaches the listener from a bearer token when one is sent.
// Requests without an Authorization header pass through anonymously; a
// header carrying an invalid or expired token is rejected.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONErrorWithRequest(r, w, http.StatusUnauthorized, "UNAUTHENTICATED", "Malformed authorization header", nil)
				return
			}

			claims, err := crypto.ParseToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				JSONErrorWithRequest(r, w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or expired token", nil)
				return
			}

			ctx := ContextWithUser(r.Context(), claims.Sub, claims.ProviderToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
