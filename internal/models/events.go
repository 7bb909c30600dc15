package models

import "encoding/json"

// Live feed event names pushed by the backend.
const (
	EventNewOrder          = "new-order"
	EventNewTopup          = "new-topup"
	EventOrderStatusUpdate = "order-status-update"
	EventNewShopOrder      = "new-shop-order"
	EventTransactionUpdate = "transaction-update"
	EventDataRefresh       = "data-refresh"
)

// FeedEvents lists every event name the feed client listens for.
func FeedEvents() []string {
	return []string{
		EventNewOrder,
		EventNewTopup,
		EventOrderStatusUpdate,
		EventNewShopOrder,
		EventTransactionUpdate,
		EventDataRefresh,
	}
}

// FeedEnvelope is the wire framing of a live feed message. The payload
// is opaque to the feed client; subscribers decode it per event.
type FeedEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
