package models

import (
	"encoding/json"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusPending, StatusPending, false},
		{StatusPending, Status("Exploded"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Error("open statuses reported terminal")
	}
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Error("closed statuses reported non-terminal")
	}
}

func TestOrderDecoding(t *testing.T) {
	raw := `{
		"id": "o1",
		"createdAt": "2025-06-10T09:30:15Z",
		"user": {"id": "u1", "name": "Ama"},
		"items": [{
			"id": "i1",
			"status": "Pending",
			"mobileNumber": "0241234567",
			"product": {"id": "p1", "name": "MTN PREMIUM", "description": "10GB", "price": "50.00"}
		}]
	}`

	var order Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if order.ID != "o1" || order.User.Name != "Ama" {
		t.Errorf("order = %+v", order)
	}
	item := order.Items[0]
	if item.Status != StatusPending || item.Product.Name != "MTN PREMIUM" {
		t.Errorf("item = %+v", item)
	}
	if item.Product.Price.StringFixed(2) != "50.00" {
		t.Errorf("price = %s", item.Product.Price)
	}
}

func TestFeedEnvelopeDecoding(t *testing.T) {
	raw := `{"event":"new-order","data":{"id":"o1"}}`

	var envelope FeedEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Event != EventNewOrder {
		t.Errorf("event = %s", envelope.Event)
	}
	if string(envelope.Data) != `{"id":"o1"}` {
		t.Errorf("data = %s", envelope.Data)
	}
}
