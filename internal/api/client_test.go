package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bundle-console/internal/models"
)

func testClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	client, err := NewClient(models.APIConfig{
		BaseURL:      baseURL,
		FetchTimeout: timeout,
		FetchLimit:   500,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestFetchOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "500" {
			t.Errorf("limit = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.Order{
			{ID: "o1", CreatedAt: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)},
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 5*time.Second)
	orders, err := client.FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("FetchOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Errorf("orders = %+v", orders)
	}
}

func TestFetchOrdersSingleFlight(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 5*time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = client.FetchOrders(context.Background())
	}()

	// Wait for the first fetch to occupy the slot.
	deadline := time.Now().Add(time.Second)
	for client.inFlight.CompareAndSwap(false, true) {
		client.inFlight.Store(false)
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := client.FetchOrders(context.Background())
	if !errors.Is(err, ErrSkipped) {
		t.Errorf("concurrent fetch error = %v, want ErrSkipped", err)
	}

	close(release)
	wg.Wait()

	// The slot is released after completion.
	if _, err := client.FetchOrders(context.Background()); err != nil {
		t.Errorf("fetch after release: %v", err)
	}
}

func TestFetchOrdersTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 20*time.Millisecond)
	_, err := client.FetchOrders(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestFetchOrdersServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"database unavailable"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 5*time.Second)
	_, err := client.FetchOrders(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("error = %v, want ErrFetchFailed", err)
	}
}

func TestUpdateOrderStatusRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"order already completed"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 5*time.Second)
	err := client.UpdateOrderStatus(context.Background(), "o1", models.StatusCompleted)

	var uErr *UpdateError
	if !errors.As(err, &uErr) {
		t.Fatalf("error = %v, want UpdateError", err)
	}
	if uErr.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %d", uErr.StatusCode)
	}
	if uErr.Reason != "order already completed" {
		t.Errorf("Reason = %q", uErr.Reason)
	}
}

func TestProcessOrderItem(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/process" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 5*time.Second)
	if err := client.ProcessOrderItem(context.Background(), "i1", models.StatusProcessing); err != nil {
		t.Fatalf("ProcessOrderItem: %v", err)
	}
	if got["orderItemId"] != "i1" || got["status"] != "Processing" {
		t.Errorf("body = %v", got)
	}
}

func TestFetchTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "ORDER" {
			t.Errorf("type = %s", q.Get("type"))
		}
		if q.Get("startDate") == "" || q.Get("endDate") == "" {
			t.Error("date range missing from query")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"t1","type":"ORDER","amount":"-50","balance":"950"}]}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 5*time.Second)
	query := DefaultTransactionQuery(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), 30*24*time.Hour, 100)
	query.Type = models.TxOrder

	txs, err := client.FetchTransactions(context.Background(), query)
	if err != nil {
		t.Fatalf("FetchTransactions: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "t1" {
		t.Fatalf("txs = %+v", txs)
	}
	if !txs[0].Amount.IsNegative() {
		t.Errorf("amount = %s, want negative", txs[0].Amount)
	}
}

func TestDefaultTransactionQuery(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	q := DefaultTransactionQuery(now, 30*24*time.Hour, 100)

	if q.StartDate.Hour() != 0 || q.StartDate.Minute() != 0 {
		t.Errorf("StartDate = %v, want start of day", q.StartDate)
	}
	if q.EndDate.Before(now) {
		t.Errorf("EndDate = %v, should cover today", q.EndDate)
	}
	if got := q.EndDate.Sub(q.StartDate); got < 30*24*time.Hour {
		t.Errorf("range = %v, want at least 30 days", got)
	}
}
