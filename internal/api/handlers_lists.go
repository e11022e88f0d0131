package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// pathID extracts a numeric {id} path variable.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// handleDashboard handles GET /api/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.lists.Dashboard(r.Context(), currentUser(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// handleMyList handles GET /api/my-list
func (s *Server) handleMyList(w http.ResponseWriter, r *http.Request) {
	view, err := s.lists.MyList(r.Context(), currentUser(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// handleViewList handles GET /api/lists/{id}?available=true
func (s *Server) handleViewList(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid list ID")
		return
	}
	availableOnly := r.URL.Query().Get("available") == "true"

	view, err := s.lists.ViewList(r.Context(), currentUser(r), listID, availableOnly)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
