package api

import (
	"net/http"
)

// handleClaim handles POST /api/items/{id}/claim
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid item ID")
		return
	}

	claim, err := s.claims.Claim(r.Context(), currentUser(r), itemID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, claim)
}

// handleUnclaim handles POST /api/items/{id}/unclaim
func (s *Server) handleUnclaim(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid item ID")
		return
	}

	if err := s.claims.Unclaim(r.Context(), currentUser(r), itemID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unclaimed"})
}
