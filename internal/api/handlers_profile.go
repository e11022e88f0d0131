package api

import (
	"net/http"
	"strings"
)

// handleGetProfile handles GET /api/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, currentUser(r))
}

// handleUpdateProfile handles PUT /api/profile
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string  `json:"name"`
		GiftDeliveryEmail *string `json:"giftDeliveryEmail,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Name is required")
		return
	}
	if req.GiftDeliveryEmail != nil && *req.GiftDeliveryEmail != "" && !validEmail(*req.GiftDeliveryEmail) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Gift delivery email must be a valid email")
		return
	}

	user, err := s.auth.UpdateProfile(r.Context(), currentUser(r).ID, req.Name, req.GiftDeliveryEmail)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// handleChangePassword handles POST /api/profile/password
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "New password is required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Passwords do not match")
		return
	}

	if err := s.auth.ChangePassword(r.Context(), currentUser(r).ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// handleChangeEmail handles POST /api/profile/email
func (s *Server) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewEmail string `json:"newEmail"`
		Password string `json:"password"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if !validEmail(req.NewEmail) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "A valid email is required")
		return
	}

	user, err := s.auth.ChangeEmail(r.Context(), currentUser(r).ID, req.NewEmail, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
