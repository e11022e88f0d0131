package api

import (
	"net/http"
	"strings"

	"github.com/gift-exchange/internal/models"
)

// inviteResponse wraps an invited user with the invite URL so the admin
// can hand it over directly if email delivery is unavailable.
type inviteResponse struct {
	User      *models.User `json:"user"`
	InviteURL string       `json:"inviteUrl"`
}

// handleInvite handles POST /api/admin/invites
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Name is required")
		return
	}
	if !validEmail(req.Email) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "A valid email is required")
		return
	}

	user, inviteURL, err := s.accounts.Invite(r.Context(), currentUser(r), req.Name, req.Email)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inviteResponse{User: user, InviteURL: inviteURL})
}

// handleArchiveUser handles POST /api/admin/users/{id}/archive
func (s *Server) handleArchiveUser(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid user ID")
		return
	}

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	if err := s.accounts.Archive(r.Context(), currentUser(r), targetID, req.Reason); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

// handleRestoreUser handles POST /api/admin/users/{id}/restore
func (s *Server) handleRestoreUser(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid user ID")
		return
	}

	if err := s.accounts.Restore(r.Context(), currentUser(r), targetID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// handleDeleteUser handles DELETE /api/admin/users/{id}. The admin must
// re-enter their own password and type the target's identifier exactly.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid user ID")
		return
	}

	var req struct {
		AdminPassword string `json:"adminPassword"`
		Confirmation  string `json:"confirmation"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	if err := s.accounts.Delete(r.Context(), currentUser(r), targetID, req.AdminPassword, req.Confirmation); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleCreateChild handles POST /api/children
func (s *Server) handleCreateChild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Name is required")
		return
	}

	child, list, err := s.accounts.CreateChild(r.Context(), currentUser(r), req.Name)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user": child,
		"list": list,
	})
}

// handlePromoteChild handles POST /api/children/{id}/promote
func (s *Server) handlePromoteChild(w http.ResponseWriter, r *http.Request) {
	childID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid user ID")
		return
	}

	var req struct {
		Email      string `json:"email"`
		SendInvite bool   `json:"sendInvite"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if !validEmail(req.Email) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "A valid email is required")
		return
	}

	user, inviteURL, err := s.accounts.Promote(r.Context(), currentUser(r), childID, req.Email, req.SendInvite)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inviteResponse{User: user, InviteURL: inviteURL})
}
