package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gift-exchange/internal/service"
	"github.com/gift-exchange/internal/types"
)

// itemRequest is the JSON body for creating or editing an item.
type itemRequest struct {
	Title         string   `json:"title"`
	Description   *string  `json:"description,omitempty"`
	URL           *string  `json:"url,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	AllowMultiple bool     `json:"allowMultiple"`
	MaxClaims     int      `json:"maxClaims,omitempty"`
}

func (req *itemRequest) validate() (string, bool) {
	if strings.TrimSpace(req.Title) == "" {
		return "Title is required", false
	}
	if req.URL != nil && *req.URL != "" {
		u, err := url.Parse(*req.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return "URL must be a valid http or https link", false
		}
	}
	if req.Price != nil && *req.Price < 0 {
		return "Price cannot be negative", false
	}
	if req.AllowMultiple && req.MaxClaims < 0 {
		return "Max claims must be at least 1", false
	}
	return "", true
}

func (req *itemRequest) toInput() *service.ItemInput {
	return &service.ItemInput{
		Title:         req.Title,
		Description:   req.Description,
		URL:           req.URL,
		Price:         req.Price,
		Notes:         req.Notes,
		AllowMultiple: req.AllowMultiple,
		MaxClaims:     req.MaxClaims,
	}
}

// handleAddItem handles POST /api/lists/{id}/items
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid list ID")
		return
	}

	var req itemRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, msg)
		return
	}

	item, err := s.items.Add(r.Context(), currentUser(r), listID, req.toInput())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// handleEditItem handles PUT /api/items/{id}
func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid item ID")
		return
	}

	var req itemRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, msg)
		return
	}

	item, err := s.items.Edit(r.Context(), currentUser(r), itemID, req.toInput())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// handleDeleteItem handles DELETE /api/items/{id}
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid item ID")
		return
	}

	if err := s.items.Delete(r.Context(), currentUser(r), itemID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleMoveItem handles POST /api/items/{id}/move
func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid item ID")
		return
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	err := s.items.Move(r.Context(), currentUser(r), itemID, types.MoveDirection(req.Direction))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

// handleMarkReceived handles POST /api/items/{id}/received
func (s *Server) handleMarkReceived(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid item ID")
		return
	}

	if err := s.items.MarkReceived(r.Context(), currentUser(r), itemID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// handleRestoreItem handles POST /api/items/{id}/restore
func (s *Server) handleRestoreItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid item ID")
		return
	}

	item, err := s.items.Restore(r.Context(), currentUser(r), itemID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}
