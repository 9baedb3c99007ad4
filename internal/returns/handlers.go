package returns

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vastra-group/storefront-api/internal/common"
)

// Handler exposes return reason administration and the customer return flow.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type reasonPayload struct {
	Reason   string `json:"reason" validate:"required"`
	IsActive *bool  `json:"isActive"`
}

type initiatePayload struct {
	OrderID  string  `json:"orderId" validate:"required"`
	ReasonID string  `json:"reasonId" validate:"required,uuid"`
	Comment  *string `json:"comment" validate:"omitempty,max=1000"`
}

type transitionPayload struct {
	Status string `json:"status" validate:"required"`
}

// ListReasons handles GET /returns/reasons. Admin callers may pass
// ?includeInactive=true to see disabled reasons.
func (h *Handler) ListReasons(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true" && common.HasRole(r.Context(), "admin")
	reasons, err := h.Svc.ListReasons(r.Context(), includeInactive)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"reasons": reasons})
}

// CreateReason handles POST /admin/return-reasons.
func (h *Handler) CreateReason(w http.ResponseWriter, r *http.Request) {
	var payload reasonPayload
	if !h.decode(w, r, &payload) {
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	reason, err := h.Svc.CreateReason(r.Context(), payload.Reason, active)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, reason)
}

// UpdateReason handles PUT /admin/return-reasons/{id}.
func (h *Handler) UpdateReason(w http.ResponseWriter, r *http.Request) {
	var payload reasonPayload
	if !h.decode(w, r, &payload) {
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	reason, err := h.Svc.UpdateReason(r.Context(), chi.URLParam(r, "id"), payload.Reason, active)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, reason)
}

// DeleteReason handles DELETE /admin/return-reasons/{id}.
func (h *Handler) DeleteReason(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteReason(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Initiate handles POST /returns.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload initiatePayload
	if !h.decode(w, r, &payload) {
		return
	}
	req, err := h.Svc.Initiate(r.Context(), userID, InitiateParams{
		OrderID:  payload.OrderID,
		ReasonID: payload.ReasonID,
		Comment:  payload.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, req)
}

// ListMine handles GET /returns.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requests, err := h.Svc.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"returns": requests})
}

// Get handles GET /returns/{id}. Admins may read any request; customers only
// their own.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requester := userID
	if common.HasRole(r.Context(), "admin") {
		requester = ""
	}
	req, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"), requester)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, req)
}

// ListAll handles GET /admin/returns with optional ?status= filter.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	requests, err := h.Svc.ListAll(r.Context(), r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"returns": requests})
}

// UpdateStatus handles PATCH /admin/returns/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload transitionPayload
	if !h.decode(w, r, &payload) {
		return
	}
	req, err := h.Svc.Transition(r.Context(), chi.URLParam(r, "id"), payload.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, req)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request payload", common.ValidationDetails(err))
		return false
	}
	return true
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "return record not found", nil)
	case errors.Is(err, ErrReasonInactive):
		common.JSONError(w, http.StatusBadRequest, "REASON_INACTIVE", "return reason is not active", nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", "status transition not allowed", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
