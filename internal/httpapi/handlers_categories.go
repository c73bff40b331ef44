package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/errs"
)

type categoryPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toCategoryPayload(c core.Category) categoryPayload {
	return categoryPayload{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	names := s.deps.Categories.List(r.Context(), userID)
	respondJSON(w, http.StatusOK, map[string]any{"categories": names})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	var req struct {
		CategoryName string `json:"category_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errs.NewValidationError("invalid JSON body"))
		return
	}

	created, err := s.deps.Mutations.Create(r.Context(), userID, req.CategoryName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":  "category created",
		"category": toCategoryPayload(created),
	})
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	oldName := r.URL.Query().Get("old_name")

	var req struct {
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errs.NewValidationError("invalid JSON body"))
		return
	}

	result, err := s.deps.Mutations.Rename(r.Context(), userID, oldName, req.NewName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":              "category renamed",
		"old_name":             result.OldName,
		"new_name":             result.NewName,
		"updated_transactions": result.Reassigned,
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	name := r.URL.Query().Get("name")

	result, err := s.deps.Mutations.Delete(r.Context(), userID, name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":                 "category deleted",
		"deleted_count":           result.Deleted,
		"reassigned_transactions": result.Reassigned,
	})
}
