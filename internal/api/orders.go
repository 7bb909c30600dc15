package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bundle-console/internal/models"

	"go.uber.org/zap"
)

// FetchOrders retrieves the full current order snapshot, capped by the
// configured server limit. At most one snapshot fetch is in flight; a
// call arriving while another is outstanding returns ErrSkipped without
// queueing. The fetch is aborted after the configured deadline.
func (c *Client) FetchOrders(ctx context.Context) ([]models.Order, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSkipped
	}
	defer c.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	started := time.Now()
	var orders []models.Order
	path := fmt.Sprintf("/orders?limit=%d&offset=0", c.fetchLimit)
	if err := c.getJSON(ctx, path, &orders); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.fetchTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	zap.L().Debug("Fetched order snapshot",
		zap.Int("orders", len(orders)),
		zap.Duration("elapsed", time.Since(started)))

	return orders, nil
}

// UpdateOrderStatus moves every item of an order to the given status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.Status) error {
	body := map[string]string{"status": string(status)}
	path := fmt.Sprintf("/orders/%s/status", orderID)
	if err := c.doJSON(ctx, "PUT", path, body, nil); err != nil {
		return fmt.Errorf("unable to update order %s: %w", orderID, err)
	}
	return nil
}

// ProcessOrderItem moves a single order item to the given status.
func (c *Client) ProcessOrderItem(ctx context.Context, orderItemID string, status models.Status) error {
	body := map[string]string{
		"orderItemId": orderItemID,
		"status":      string(status),
	}
	if err := c.doJSON(ctx, "POST", "/orders/process", body, nil); err != nil {
		return fmt.Errorf("unable to process order item %s: %w", orderItemID, err)
	}
	return nil
}
