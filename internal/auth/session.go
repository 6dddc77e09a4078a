package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/storage"
)

// CookieName is the cookie carrying the session token.
const CookieName = "financas_session"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("session token required")
)

// SessionStore persists the server-side half of a session.
type SessionStore interface {
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, id string) (core.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Claims are the token claims: sub is the user id and jti the session id.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string    { return c.Subject }
func (c *Claims) SessionID() string { return c.ID }

// SessionManager issues HS256 session tokens backed by a session row, so a
// logout revokes the token before it expires.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	store  SessionStore
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration, secureCookie bool, store SessionStore) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secureCookie,
		store:  store,
		now:    time.Now,
	}
}

// Issue opens a session for userID and returns its signed token.
func (m *SessionManager) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	now := m.now().UTC()
	sess := core.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return "", time.Time{}, fmt.Errorf("store session: %w", err)
	}

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		ID:        sess.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, sess.ExpiresAt, nil
}

// Validate checks the token signature and registered claims only.
func (m *SessionManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve validates the token and checks its session is still open.
func (m *SessionManager) Resolve(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	sess, err := m.store.GetSession(ctx, claims.SessionID())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != claims.UserID() || !m.now().Before(sess.ExpiresAt) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke closes the session behind the token. Invalid tokens have nothing
// to revoke and are ignored.
func (m *SessionManager) Revoke(ctx context.Context, tokenString string) error {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil
	}
	if err := m.store.DeleteSession(ctx, claims.SessionID()); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Prune deletes expired session rows.
func (m *SessionManager) Prune(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.now())
}

func (m *SessionManager) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the session cookie, falling back to a Bearer
// Authorization header for non-browser clients.
func TokenFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}
