package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vastra-group/storefront-api/internal/common"
)

// Handler exposes administrative coupon management endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type couponPayload struct {
	Code          string       `json:"code" validate:"required"`
	Description   *string      `json:"description"`
	DiscountType  string       `json:"discountType" validate:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue int64        `json:"discountValue" validate:"gt=0"`
	MinOrderValue int64        `json:"minOrderValue" validate:"gte=0"`
	MaxDiscount   *int64       `json:"maxDiscount"`
	ValidFrom     *time.Time   `json:"validFrom"`
	ValidUntil    *time.Time   `json:"validUntil"`
	IsActive      *bool        `json:"isActive"`
	Scopes        []ScopeInput `json:"scopes"`
}

// Create inserts a new coupon with its scopes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	created, err := h.Svc.Create(r.Context(), CreateParams{
		Code:          payload.Code,
		Description:   payload.Description,
		DiscountType:  payload.DiscountType,
		DiscountValue: payload.DiscountValue,
		MinOrderValue: payload.MinOrderValue,
		MaxDiscount:   payload.MaxDiscount,
		ValidFrom:     payload.ValidFrom,
		ValidUntil:    payload.ValidUntil,
		IsActive:      active,
		Scopes:        payload.Scopes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update replaces an existing coupon's attributes and scopes.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	updated, err := h.Svc.Update(r.Context(), UpdateParams{
		ID:            id,
		Description:   payload.Description,
		DiscountType:  payload.DiscountType,
		DiscountValue: payload.DiscountValue,
		MinOrderValue: payload.MinOrderValue,
		MaxDiscount:   payload.MaxDiscount,
		ValidFrom:     payload.ValidFrom,
		ValidUntil:    payload.ValidUntil,
		IsActive:      active,
		Scopes:        payload.Scopes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Get returns a single coupon with its scopes.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": found})
}

// List returns a page of coupons.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	items, total, err := h.Svc.List(r.Context(), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONList(w, http.StatusOK, items, common.NewPagination(page, perPage, int(total)))
}

// Delete removes a coupon.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (couponPayload, bool) {
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return couponPayload{}, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid coupon payload", common.ValidationDetails(err))
			return couponPayload{}, false
		}
	}
	return payload, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, ErrCodeExists):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon operation failed", nil)
	}
}
