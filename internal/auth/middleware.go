package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id, or "" outside RequireSession.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RequireSession rejects requests without an open session. On success the
// user id is available through UserID.
func (m *SessionManager) RequireSession(onUnauthorized func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	if onUnauthorized == nil {
		onUnauthorized = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := TokenFromRequest(r)
			if err != nil {
				onUnauthorized(w, r)
				return
			}

			claims, err := m.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrInvalidToken) {
					slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
				}
				onUnauthorized(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID())))
		})
	}
}
