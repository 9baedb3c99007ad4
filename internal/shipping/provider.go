package shipping

import "context"

// Courier models the courier operations the rest of the application needs.
type Courier interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (OrderResponse, error)
	Track(ctx context.Context, shipmentID int64) (map[string]any, error)
	CheckServiceability(ctx context.Context, pickupPincode, deliveryPincode string, weightKg float64, cod bool) (ServiceabilityResult, error)
	SchedulePickup(ctx context.Context, orderID string) error
	PickupLocations(ctx context.Context) (map[string]any, error)
}

// MockCourier returns canned responses and is useful for development and
// tests when no courier credentials are configured.
type MockCourier struct{}

func (MockCourier) CreateOrder(ctx context.Context, params CreateOrderParams) (OrderResponse, error) {
	_ = ctx
	return OrderResponse{
		OrderID:     1,
		ShipmentID:  1,
		Status:      "NEW",
		CourierName: "Mock Express",
	}, nil
}

func (MockCourier) Track(ctx context.Context, shipmentID int64) (map[string]any, error) {
	_ = ctx
	return map[string]any{"shipment_id": shipmentID, "current_status": "NEW"}, nil
}

func (MockCourier) CheckServiceability(ctx context.Context, pickupPincode, deliveryPincode string, weightKg float64, cod bool) (ServiceabilityResult, error) {
	_ = ctx
	return ServiceabilityResult{Serviceable: true, Couriers: 1}, nil
}

func (MockCourier) SchedulePickup(ctx context.Context, orderID string) error {
	_ = ctx
	return nil
}

func (MockCourier) PickupLocations(ctx context.Context) (map[string]any, error) {
	_ = ctx
	return map[string]any{"shipping_address": []any{}}, nil
}
