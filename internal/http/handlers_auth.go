package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/storage"
)

// Authenticator registers and verifies password accounts.
// auth.PasswordAuthenticator satisfies it.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (core.User, error)
	Authenticate(ctx context.Context, email, password string) (core.User, error)
}

// UserLookup loads the user behind a session.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (core.User, error)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      core.User  `json:"user"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, log.OpRegister)
		return
	}

	user, err := s.authn.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, log.OpRegister)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "User registered",
		log.NewFields().WithUser(user.ID).WithOperation(log.OpRegister).ToSlice()...)
	writeJSON(w, http.StatusCreated, sessionResponse{User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, log.OpLogin)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)
	user, err := s.authn.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.WarnContext(ctx, "Login rejected",
				log.NewFields().WithOperation(log.OpLogin).WithErrorType(log.ErrorTypeAuth).ToSlice()...)
		}
		writeServiceError(w, r, err, log.OpLogin)
		return
	}

	token, expires, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		writeServiceError(w, r, err, log.OpLogin)
		return
	}
	s.sessions.SetCookie(w, token, expires)
	logger.InfoContext(ctx, "User logged in",
		log.NewFields().WithUser(user.ID).WithOperation(log.OpLogin).ToSlice()...)
	writeJSON(w, http.StatusOK, sessionResponse{User: user, Token: token, ExpiresAt: &expires})
}

// handleLogout closes the caller's session if there is one. It always
// clears the cookie and succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, err := auth.TokenFromRequest(r); err == nil {
		if err := s.sessions.Revoke(r.Context(), token); err != nil {
			writeServiceError(w, r, err, log.OpLogout)
			return
		}
	}
	s.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, deleteResult{Success: true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUserByID(r.Context(), auth.UserID(r.Context()))
	if errors.Is(err, storage.ErrNotFound) {
		writeUnauthorized(w, r)
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "session")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user})
}
