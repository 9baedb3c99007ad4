package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vastra-group/storefront-api/internal/resilience"
)

type courierFixture struct {
	srv        *httptest.Server
	authCalls  int
	orderCalls int
	token      string
}

func newCourierFixture(t *testing.T) *courierFixture {
	t.Helper()
	f := &courierFixture{token: "tok-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.authCalls++
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds["email"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": f.token})
	})
	mux.HandleFunc("/orders/create/adhoc", func(w http.ResponseWriter, r *http.Request) {
		f.orderCalls++
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(OrderResponse{OrderID: 42, ShipmentID: 7, Status: "NEW"})
	})
	mux.HandleFunc("/courier/serviceability/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("delivery_postcode") == "999999" {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": 200, "data": map[string]any{"available_courier_companies": []any{}}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 200, "data": map[string]any{"available_courier_companies": []any{map[string]any{"id": 1}}}})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestClient(f *courierFixture, now *time.Time) *Client {
	return &Client{
		BaseURL:  f.srv.URL,
		Email:    "ops@example.com",
		Password: "secret",
		TokenTTL: 24 * time.Hour,
		HTTP: resilience.HTTPClient{
			Client:      f.srv.Client(),
			MaxAttempts: 1,
		},
		Now: func() time.Time { return *now },
	}
}

func TestTokenReusedWithinTTL(t *testing.T) {
	f := newCourierFixture(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	c := newTestClient(f, &now)

	for i := 0; i < 3; i++ {
		if _, err := c.CreateOrder(context.Background(), CreateOrderParams{OrderID: "ORD-1"}); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}
	if f.authCalls != 1 {
		t.Fatalf("expected 1 login for 3 calls, got %d", f.authCalls)
	}
	if f.orderCalls != 3 {
		t.Fatalf("expected 3 order calls, got %d", f.orderCalls)
	}
}

func TestTokenRefreshedAfterTTL(t *testing.T) {
	f := newCourierFixture(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	c := newTestClient(f, &now)

	if _, err := c.CreateOrder(context.Background(), CreateOrderParams{OrderID: "ORD-1"}); err != nil {
		t.Fatalf("first order: %v", err)
	}
	now = now.Add(25 * time.Hour)
	if _, err := c.CreateOrder(context.Background(), CreateOrderParams{OrderID: "ORD-2"}); err != nil {
		t.Fatalf("second order: %v", err)
	}
	if f.authCalls != 2 {
		t.Fatalf("expected re-login after TTL, got %d logins", f.authCalls)
	}
}

func TestMissingCredentials(t *testing.T) {
	f := newCourierFixture(t)
	now := time.Now()
	c := newTestClient(f, &now)
	c.Email = ""

	_, err := c.CreateOrder(context.Background(), CreateOrderParams{OrderID: "ORD-1"})
	if !errors.Is(err, ErrCredentialsMissing) {
		t.Fatalf("expected ErrCredentialsMissing, got %v", err)
	}
	if f.authCalls != 0 {
		t.Fatalf("expected no login attempt, got %d", f.authCalls)
	}
}

func TestRevokedTokenDropsCache(t *testing.T) {
	f := newCourierFixture(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	c := newTestClient(f, &now)

	if _, err := c.CreateOrder(context.Background(), CreateOrderParams{OrderID: "ORD-1"}); err != nil {
		t.Fatalf("first order: %v", err)
	}
	// Server rotates the valid token out from under the client.
	f.token = "tok-2"
	if _, err := c.CreateOrder(context.Background(), CreateOrderParams{OrderID: "ORD-2"}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream on revoked token, got %v", err)
	}
	// Cache was dropped, so the next call logs in and succeeds.
	if _, err := c.CreateOrder(context.Background(), CreateOrderParams{OrderID: "ORD-3"}); err != nil {
		t.Fatalf("order after re-login: %v", err)
	}
	if f.authCalls != 2 {
		t.Fatalf("expected 2 logins, got %d", f.authCalls)
	}
}

func TestCheckServiceability(t *testing.T) {
	f := newCourierFixture(t)
	now := time.Now()
	c := newTestClient(f, &now)

	res, err := c.CheckServiceability(context.Background(), "110001", "560001", 0.5, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Serviceable || res.Couriers != 1 {
		t.Fatalf("expected serviceable route, got %+v", res)
	}

	res, err = c.CheckServiceability(context.Background(), "110001", "999999", 0.5, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Serviceable {
		t.Fatalf("expected unserviceable route, got %+v", res)
	}
}
