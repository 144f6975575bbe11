package httpx

import (
	"context"
	"net/http"

	"crateapi/internal/logging"
)

type contextKey string

const (
	userIDKey        contextKey = "userID"
	providerTokenKey contextKey = "providerToken"
)

// UserIDFrom retrieves the listener ID from the request context.
func UserIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// ProviderTokenFrom retrieves the listener's catalog access token.
func ProviderTokenFrom(r *http.Request) string {
	if v, ok := r.Context().Value(providerTokenKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUser returns a new context with the listener ID and their
// provider token.
func ContextWithUser(ctx context.Context, userID, providerToken string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, providerTokenKey, providerToken)
}

// RequestIDFrom retrieves the request ID set by RequestIDMiddleware.
func RequestIDFrom(r *http.Request) string {
	return logging.RequestIDFromContext(r.Context())
}
