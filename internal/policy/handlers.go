package policy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vastra-group/storefront-api/internal/common"
)

// Handler exposes policy read and publish endpoints.
type Handler struct {
	Svc *Service
}

// Get serves the public policy document for a kind.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Svc.Get(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

// Publish replaces the policy document for a kind.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	doc, err := h.Svc.Publish(r.Context(), chi.URLParam(r, "kind"), payload.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "policy not found", nil)
	case errors.Is(err, ErrInvalidKind):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrEmptyContent):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "policy operation failed", nil)
	}
}
