package shipping

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vastra-group/storefront-api/internal/common"
)

// Handler exposes the admin courier endpoints.
type Handler struct {
	Courier  Courier
	Validate *validator.Validate
}

type createOrderPayload struct {
	OrderID        string      `json:"orderId" validate:"required"`
	OrderDate      string      `json:"orderDate" validate:"required"`
	PickupLocation string      `json:"pickupLocation" validate:"required"`
	BillingName    string      `json:"billingName" validate:"required"`
	BillingAddress string      `json:"billingAddress" validate:"required"`
	BillingCity    string      `json:"billingCity" validate:"required"`
	BillingPincode string      `json:"billingPincode" validate:"required,len=6,numeric"`
	BillingState   string      `json:"billingState" validate:"required"`
	BillingCountry string      `json:"billingCountry" validate:"required"`
	BillingEmail   string      `json:"billingEmail" validate:"required,email"`
	BillingPhone   string      `json:"billingPhone" validate:"required"`
	PaymentMethod  string      `json:"paymentMethod" validate:"required,oneof=Prepaid COD"`
	SubTotal       int64       `json:"subTotal" validate:"gt=0"`
	Weight         float64     `json:"weight" validate:"gt=0"`
	Length         float64     `json:"length" validate:"gt=0"`
	Breadth        float64     `json:"breadth" validate:"gt=0"`
	Height         float64     `json:"height" validate:"gt=0"`
	Items          []orderItem `json:"items" validate:"required,min=1,dive"`
}

type orderItem struct {
	Name    string `json:"name" validate:"required"`
	SKU     string `json:"sku" validate:"required"`
	Units   int    `json:"units" validate:"min=1"`
	Selling int64  `json:"sellingPrice" validate:"gt=0"`
}

// CreateOrder handles POST /admin/shipping/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var payload createOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request payload", common.ValidationDetails(err))
		return
	}
	items := make([]OrderItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, OrderItem{Name: it.Name, SKU: it.SKU, Units: it.Units, Selling: it.Selling})
	}
	resp, err := h.Courier.CreateOrder(r.Context(), CreateOrderParams{
		OrderID:        payload.OrderID,
		OrderDate:      payload.OrderDate,
		PickupLocation: payload.PickupLocation,
		BillingName:    payload.BillingName,
		BillingAddress: payload.BillingAddress,
		BillingCity:    payload.BillingCity,
		BillingPincode: payload.BillingPincode,
		BillingState:   payload.BillingState,
		BillingCountry: payload.BillingCountry,
		BillingEmail:   payload.BillingEmail,
		BillingPhone:   payload.BillingPhone,
		ShippingIsBill: true,
		Items:          items,
		PaymentMethod:  payload.PaymentMethod,
		SubTotal:       payload.SubTotal,
		Length:         payload.Length,
		Breadth:        payload.Breadth,
		Height:         payload.Height,
		Weight:         payload.Weight,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, resp)
}

// Track handles GET /admin/shipping/track/{shipmentId}.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := strconv.ParseInt(chi.URLParam(r, "shipmentId"), 10, 64)
	if err != nil || shipmentID <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid shipment id", nil)
		return
	}
	data, err := h.Courier.Track(r.Context(), shipmentID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, data)
}

// Serviceability handles GET /admin/shipping/serviceability.
func (h *Handler) Serviceability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pickup := q.Get("pickupPincode")
	delivery := q.Get("deliveryPincode")
	if pickup == "" || delivery == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "pickupPincode and deliveryPincode are required", nil)
		return
	}
	weight, err := strconv.ParseFloat(q.Get("weight"), 64)
	if err != nil || weight <= 0 {
		weight = 0.5
	}
	cod := q.Get("cod") == "true"
	result, err := h.Courier.CheckServiceability(r.Context(), pickup, delivery, weight, cod)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"serviceable": result.Serviceable,
		"couriers":    result.Couriers,
	})
}

// PickupLocations handles GET /admin/shipping/pickup-locations.
func (h *Handler) PickupLocations(w http.ResponseWriter, r *http.Request) {
	data, err := h.Courier.PickupLocations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, data)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCredentialsMissing):
		common.JSONError(w, http.StatusServiceUnavailable, "COURIER_UNAVAILABLE", "courier credentials not configured", nil)
	case errors.Is(err, ErrUpstream):
		common.JSONError(w, http.StatusBadGateway, "COURIER_ERROR", "courier request failed", nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "COURIER_ERROR", "courier request failed", nil)
	}
}
