package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order item.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the move s -> next is allowed.
// Pending may move to any later state; Processing may only complete or
// cancel; Completed and Cancelled are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.Valid() || s == next {
		return false
	}
	switch s {
	case StatusPending:
		return true
	case StatusProcessing:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Product is a data bundle offered on the platform.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// OrderUser identifies the agent or customer who placed the order.
type OrderUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// OrderItem is one bundle purchase within an order.
type OrderItem struct {
	ID           string   `json:"id"`
	Status       Status   `json:"status"`
	MobileNumber string   `json:"mobileNumber"`
	Product      *Product `json:"product"`
}

// Order is the top-level purchase record as served by the backend.
type Order struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	User      *OrderUser  `json:"user"`
	Items     []OrderItem `json:"items"`
}

// RowKey is the stable identity of an order row across refetches.
type RowKey struct {
	OrderID string
	ItemID  string
}

// OrderRow is the flattened per-item view the dashboard operates on.
// Rows are built once per (order, item, parent timestamp) and shared by
// pointer between the cache and every derived view.
type OrderRow struct {
	OrderID      string
	ItemID       string
	UserName     string
	MobileNumber string
	ProductName  string
	ProductPrice decimal.Decimal
	// ProductSize is the leading numeric portion of the product
	// description ("10" for "10GB"), or "N/A" when absent.
	ProductSize   string
	Status        Status
	CreatedAt     time.Time
	FormattedDate string
	FormattedTime string
	IsNew         bool
}

// Key returns the (orderId, itemId) cache identity of the row.
func (r *OrderRow) Key() RowKey {
	return RowKey{OrderID: r.OrderID, ItemID: r.ItemID}
}

// ProductSizeOf strips the trailing run of non-digit characters from a
// product description, leaving the data size ("10GB" -> "10").
func ProductSizeOf(description string) string {
	trimmed := strings.TrimRightFunc(description, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if trimmed == "" {
		return "N/A"
	}
	return trimmed
}
