package api

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/gorilla/mux"
)

// handleLogin handles POST /api/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Email and password are required")
		return
	}

	user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	ttl := s.config.SessionTTL
	if req.RememberMe {
		ttl = s.config.RememberTTL
	}
	sessionID, err := s.sessions.Create(r.Context(), user.ID, ttl)
	if err != nil {
		s.logger.WithError(err).Error("failed to create session")
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred")
		return
	}

	s.setSessionCookie(w, sessionID, ttl)
	respondJSON(w, http.StatusOK, user)
}

// handleLogout handles POST /api/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.sessions.Delete(r.Context(), cookie.Value); err != nil {
			s.logger.WithError(err).Warn("failed to delete session")
		}
	}
	s.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleRegister handles POST /api/auth/register/{token} - complete account
// setup from an invitation
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	var req struct {
		Name            string `json:"name"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Password is required")
		return
	}
	if req.Password != req.ConfirmPassword {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Passwords do not match")
		return
	}

	user, err := s.auth.RegisterWithInvite(r.Context(), token, req.Name, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	sessionID, err := s.sessions.Create(r.Context(), user.ID, s.config.SessionTTL)
	if err != nil {
		s.logger.WithError(err).Error("failed to create session")
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred")
		return
	}

	s.setSessionCookie(w, sessionID, s.config.SessionTTL)
	respondJSON(w, http.StatusCreated, user)
}

// handleForgotPassword handles POST /api/auth/forgot-password. The response
// is identical whether or not the email is registered.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if !validEmail(req.Email) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "A valid email is required")
		return
	}

	if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.logger.WithError(err).Error("password reset request failed")
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "if that email is registered, reset instructions have been sent",
	})
}

// handleResetPassword handles POST /api/auth/reset-password/{token}
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Password is required")
		return
	}
	if req.Password != req.ConfirmPassword {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Passwords do not match")
		return
	}

	if err := s.auth.ResetPassword(r.Context(), token, req.Password); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

// validEmail checks basic email syntax.
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
