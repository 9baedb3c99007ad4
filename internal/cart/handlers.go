package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vastra-group/storefront-api/internal/common"
	"github.com/vastra-group/storefront-api/internal/coupon"
	"github.com/vastra-group/storefront-api/internal/db"
)

// Handler exposes the authenticated cart endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type itemPayload struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	VariantID *string `json:"variantId" validate:"omitempty,uuid"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
}

// Get returns the user's cart with display details and line totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// AddItem adds a product or variant line to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	item, err := h.Svc.Add(r.Context(), userID, payload.ProductID, payload.VariantID, payload.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": itemResponse(item)})
}

// UpdateItem sets the quantity of an existing cart line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	item, err := h.Svc.SetQuantity(r.Context(), userID, payload.ProductID, payload.VariantID, payload.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": itemResponse(item)})
}

// RemoveItem deletes a single cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")
	var variantID *string
	if v := strings.TrimSpace(r.URL.Query().Get("variantId")); v != "" {
		variantID = &v
	}
	if err := h.Svc.Remove(r.Context(), userID, productID, variantID); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"removed": true}})
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Clear(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"cleared": true}})
}

// Count returns the number of units in the cart.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	count, err := h.Svc.Count(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"count": count}})
}

// Total computes cart totals, applying the coupon code when provided.
func (h *Handler) Total(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	totals, err := h.Svc.Total(r.Context(), userID, r.URL.Query().Get("couponCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": totals})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (itemPayload, bool) {
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return itemPayload{}, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid cart payload", common.ValidationDetails(err))
			return itemPayload{}, false
		}
	}
	return payload, true
}

func itemResponse(item db.CartItem) map[string]any {
	out := map[string]any{
		"id":        uuidString(item.ID),
		"productId": uuidString(item.ProductID),
		"quantity":  item.Quantity,
	}
	if item.VariantID.Valid {
		out["variantId"] = uuidString(item.VariantID)
	}
	return out
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, coupon.ErrNotActive):
		common.JSONError(w, http.StatusBadRequest, "COUPON_NOT_ACTIVE", "coupon is not active", nil)
	case errors.Is(err, coupon.ErrNotYetValid):
		common.JSONError(w, http.StatusBadRequest, "COUPON_NOT_YET_VALID", "coupon is not yet valid", nil)
	case errors.Is(err, coupon.ErrExpired):
		common.JSONError(w, http.StatusBadRequest, "COUPON_EXPIRED", "coupon has expired", nil)
	case errors.Is(err, coupon.ErrBelowMinOrder):
		common.JSONError(w, http.StatusBadRequest, "COUPON_BELOW_MIN_ORDER", err.Error(), nil)
	case errors.Is(err, coupon.ErrNotApplicable):
		common.JSONError(w, http.StatusBadRequest, "COUPON_NOT_APPLICABLE", "coupon not applicable to cart items", nil)
	case errors.Is(err, ErrVariantRequired):
		common.JSONError(w, http.StatusBadRequest, "VARIANT_REQUIRED", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}
