package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/vastra-group/storefront-api/internal/config"
	"github.com/vastra-group/storefront-api/internal/obs"
	"github.com/vastra-group/storefront-api/internal/resilience"
)

var (
	// ErrCredentialsMissing is returned when courier credentials are not configured.
	ErrCredentialsMissing = errors.New("courier credentials not configured")
	// ErrUpstream is returned when the courier API rejects a request.
	ErrUpstream = errors.New("courier upstream error")
)

// Client talks to the ShipRocket external API. Tokens obtained from
// /auth/login are cached until the configured TTL elapses, so concurrent
// callers share one login per TTL window.
type Client struct {
	BaseURL  string
	Email    string
	Password string
	TokenTTL time.Duration
	HTTP     resilience.HTTPClient
	Now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClient builds a courier client from application configuration.
func NewClient(cfg config.Config) *Client {
	return &Client{
		BaseURL:  cfg.ShipRocketBaseURL,
		Email:    cfg.ShipRocketEmail,
		Password: cfg.ShipRocketPassword,
		TokenTTL: cfg.ShipRocketTokenTTL,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Timeout: 15 * time.Second},
			MaxAttempts: 3,
			BaseBackoff: 200 * time.Millisecond,
		},
		Now: time.Now,
	}
}

// OrderItem is one line of a courier order.
type OrderItem struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Units    int    `json:"units"`
	Selling  int64  `json:"selling_price"`
	Discount int64  `json:"discount,omitempty"`
}

// CreateOrderParams describe an adhoc courier order.
type CreateOrderParams struct {
	OrderID         string      `json:"order_id"`
	OrderDate       string      `json:"order_date"`
	PickupLocation  string      `json:"pickup_location"`
	BillingName     string      `json:"billing_customer_name"`
	BillingAddress  string      `json:"billing_address"`
	BillingCity     string      `json:"billing_city"`
	BillingPincode  string      `json:"billing_pincode"`
	BillingState    string      `json:"billing_state"`
	BillingCountry  string      `json:"billing_country"`
	BillingEmail    string      `json:"billing_email"`
	BillingPhone    string      `json:"billing_phone"`
	ShippingIsBill  bool        `json:"shipping_is_billing"`
	Items           []OrderItem `json:"order_items"`
	PaymentMethod   string      `json:"payment_method"`
	SubTotal        int64       `json:"sub_total"`
	Length          float64     `json:"length"`
	Breadth         float64     `json:"breadth"`
	Height          float64     `json:"height"`
	Weight          float64     `json:"weight"`
	CollectableCOD  int64       `json:"collectable_amount,omitempty"`
	ChannelID       string      `json:"channel_id,omitempty"`
	ResellerName    string      `json:"reseller_name,omitempty"`
	CompanyName     string      `json:"company_name,omitempty"`
	CustomerComment string      `json:"comment,omitempty"`
}

// OrderResponse is the courier's acknowledgement of a created order.
type OrderResponse struct {
	OrderID        int64  `json:"order_id"`
	ChannelOrderID string `json:"channel_order_id"`
	ShipmentID     int64  `json:"shipment_id"`
	Status         string `json:"status"`
	StatusCode     int    `json:"status_code"`
	AWBCode        string `json:"awb_code"`
	CourierID      string `json:"courier_company_id"`
	CourierName    string `json:"courier_name"`
}

// ServiceabilityResult reports courier availability between two pincodes.
type ServiceabilityResult struct {
	Serviceable bool
	Couriers    int
}

// CreateOrder registers an adhoc order with the courier.
func (c *Client) CreateOrder(ctx context.Context, params CreateOrderParams) (OrderResponse, error) {
	var out OrderResponse
	if err := c.call(ctx, http.MethodPost, "/orders/create/adhoc", params, &out); err != nil {
		return OrderResponse{}, err
	}
	return out, nil
}

// Track fetches tracking data for a shipment.
func (c *Client) Track(ctx context.Context, shipmentID int64) (map[string]any, error) {
	var out map[string]any
	path := "/courier/track/shipment/" + strconv.FormatInt(shipmentID, 10)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PickupLocations lists the pickup addresses registered with the courier.
func (c *Client) PickupLocations(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.call(ctx, http.MethodGet, "/settings/company/pickup", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckServiceability asks the courier whether any service covers the route.
func (c *Client) CheckServiceability(ctx context.Context, pickupPincode, deliveryPincode string, weightKg float64, cod bool) (ServiceabilityResult, error) {
	q := url.Values{}
	q.Set("pickup_postcode", pickupPincode)
	q.Set("delivery_postcode", deliveryPincode)
	q.Set("weight", strconv.FormatFloat(weightKg, 'f', -1, 64))
	if cod {
		q.Set("cod", "1")
	} else {
		q.Set("cod", "0")
	}
	var out struct {
		Status int `json:"status"`
		Data   struct {
			AvailableCouriers []json.RawMessage `json:"available_courier_companies"`
		} `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/courier/serviceability/?"+q.Encode(), nil, &out); err != nil {
		return ServiceabilityResult{}, err
	}
	n := len(out.Data.AvailableCouriers)
	return ServiceabilityResult{Serviceable: n > 0, Couriers: n}, nil
}

// SchedulePickup requests a pickup for the shipments of an order. It
// satisfies the returns pickup hook.
func (c *Client) SchedulePickup(ctx context.Context, orderID string) error {
	payload := map[string]any{"shipment_id": []string{orderID}}
	return c.call(ctx, http.MethodPost, "/courier/generate/pickup", payload, nil)
}

// ensureToken returns a cached token, logging in again once the TTL elapses.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if c.token != "" && now.Before(c.expiresAt) {
		return c.token, nil
	}
	if c.Email == "" || c.Password == "" {
		return "", ErrCredentialsMissing
	}
	body, err := json.Marshal(map[string]string{"email": c.Email, "password": c.Password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		observeAuth("error")
		return "", fmt.Errorf("courier login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		observeAuth("rejected")
		return "", fmt.Errorf("courier login returned %d: %w", resp.StatusCode, ErrUpstream)
	}
	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		observeAuth("error")
		return "", fmt.Errorf("decode courier login response: %w", err)
	}
	if parsed.Token == "" {
		observeAuth("rejected")
		return "", fmt.Errorf("courier login response missing token: %w", ErrUpstream)
	}
	ttl := c.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c.token = parsed.Token
	c.expiresAt = now.Add(ttl)
	observeAuth("ok")
	return c.token, nil
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("courier %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnauthorized {
		// Token revoked server side; drop the cache so the next call logs in.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return fmt.Errorf("courier rejected token: %w", ErrUpstream)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("courier %s %s returned %d: %w", method, path, resp.StatusCode, ErrUpstream)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func observeAuth(result string) {
	if obs.ShipRocketAuthTotal != nil {
		obs.ShipRocketAuthTotal.WithLabelValues(result).Inc()
	}
}
