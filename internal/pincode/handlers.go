package pincode

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vastra-group/storefront-api/internal/common"
)

// Handler exposes pincode serviceability and administration endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type createPayload struct {
	Pincode string  `json:"pincode" validate:"required,len=6,numeric"`
	City    *string `json:"city"`
	State   *string `json:"state"`
}

type updatePayload struct {
	City  *string `json:"city"`
	State *string `json:"state"`
}

// Check handles the public serviceability probe.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	serviceable, entry, err := h.Svc.Check(r.Context(), chi.URLParam(r, "value"))
	if err != nil {
		writeError(w, err)
		return
	}
	body := map[string]any{"serviceable": serviceable}
	if entry != nil {
		body["pincode"] = entry
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": body})
}

// Create registers a new serviceable pincode.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid pincode payload", common.ValidationDetails(err))
			return
		}
	}
	entry, err := h.Svc.Create(r.Context(), payload.Pincode, payload.City, payload.State)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": entry})
}

// List returns a page of pincodes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	includeDeleted := strings.EqualFold(r.URL.Query().Get("includeDeleted"), "true")
	entries, total, err := h.Svc.List(r.Context(), includeDeleted, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONList(w, http.StatusOK, entries, common.NewPagination(page, perPage, int(total)))
}

// Update changes the location attached to a pincode.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	entry, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), payload.City, payload.State)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entry})
}

// Delete soft-deletes a pincode.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

// Restore reactivates a soft-deleted pincode.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Restore(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"restored": true}})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "pincode not found", nil)
	case errors.Is(err, ErrAlreadyExists):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "pincode already exists", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pincode operation failed", nil)
	}
}
