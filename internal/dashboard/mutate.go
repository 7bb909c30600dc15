package dashboard

import (
	"context"
	"fmt"
	"unicode"

	"bundle-console/internal/models"
	"bundle-console/internal/view"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentUpdates = 8

// ValidationError reports input rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidatePhoneNumber accepts exactly ten digits, the local mobile
// number format.
func ValidatePhoneNumber(phone string) error {
	if len(phone) != 10 {
		return &ValidationError{Field: "phone number", Reason: "must be exactly 10 digits"}
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return &ValidationError{Field: "phone number", Reason: "must contain only digits"}
		}
	}
	return nil
}

// UpdateItemStatus transitions one order item to the target status.
// Illegal transitions are rejected locally; a Cancelled item never
// produces a network call. On success the local row is patched so the
// table reflects the change without waiting for the next snapshot.
func (d *Dashboard) UpdateItemStatus(ctx context.Context, itemID string, target models.Status) error {
	if !target.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", target)}
	}

	row := d.normalizer.FindItem(itemID)
	if row == nil {
		return &ValidationError{Field: "order item", Reason: fmt.Sprintf("unknown item %q", itemID)}
	}
	if !row.Status.CanTransitionTo(target) {
		return &ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot move %s from %s to %s", itemID, row.Status, target),
		}
	}

	if err := d.backend.ProcessOrderItem(ctx, itemID, target); err != nil {
		return err
	}

	d.normalizer.SetItemStatus(itemID, target)
	zap.L().Info("Order item status updated",
		zap.String("order_item_id", itemID),
		zap.String("status", string(target)))
	return nil
}

// CompleteOrder marks every Processing item of one order Completed.
func (d *Dashboard) CompleteOrder(ctx context.Context, orderID string) error {
	if err := d.backend.UpdateOrderStatus(ctx, orderID, models.StatusCompleted); err != nil {
		return err
	}

	patched := d.normalizer.SetOrderStatus(orderID, models.StatusCompleted, models.StatusProcessing)
	zap.L().Info("Order completed",
		zap.String("order_id", orderID),
		zap.Int("items_patched", patched))
	return nil
}

// BatchResult summarizes a batch status update. Successes are applied
// locally even when other orders in the batch fail.
type BatchResult struct {
	Attempted int
	Succeeded int
	Failed    int
	Errors    []error
}

// BatchCompleteProcessing completes every order currently holding
// Processing items. Requests fan out concurrently; one failing order
// does not abort the rest, and successful orders are not rolled back.
func (d *Dashboard) BatchCompleteProcessing(ctx context.Context) BatchResult {
	orderIDs := d.normalizer.OrderIDsWithStatus(models.StatusProcessing)
	if len(orderIDs) == 0 {
		return BatchResult{}
	}
	return d.batchUpdate(ctx, orderIDs, models.StatusCompleted, models.StatusProcessing)
}

func (d *Dashboard) batchUpdate(ctx context.Context, orderIDs []string, target models.Status, only ...models.Status) BatchResult {
	result := BatchResult{Attempted: len(orderIDs)}

	var group errgroup.Group
	group.SetLimit(maxConcurrentUpdates)

	errCh := make(chan error, len(orderIDs))
	okCh := make(chan string, len(orderIDs))

	for _, orderID := range orderIDs {
		orderID := orderID
		group.Go(func() error {
			if err := d.backend.UpdateOrderStatus(ctx, orderID, target); err != nil {
				errCh <- fmt.Errorf("order %s: %w", orderID, err)
				return nil
			}
			okCh <- orderID
			return nil
		})
	}

	_ = group.Wait()
	close(errCh)
	close(okCh)

	for orderID := range okCh {
		d.normalizer.SetOrderStatus(orderID, target, only...)
		result.Succeeded++
	}
	for err := range errCh {
		result.Errors = append(result.Errors, err)
		result.Failed++
	}

	if result.Failed > 0 {
		zap.L().Warn("Batch status update finished with failures",
			zap.Int("attempted", result.Attempted),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed))
	} else {
		zap.L().Info("Batch status update finished",
			zap.Int("attempted", result.Attempted),
			zap.String("status", string(target)))
	}
	return result
}

// ExportRows returns the rows matching the active criteria for export,
// first moving any Pending orders in the set to Processing so exported
// work is claimed.
func (d *Dashboard) ExportRows(ctx context.Context) ([]*models.OrderRow, BatchResult, error) {
	d.mu.RLock()
	criteria := d.criteria
	order := d.sortOrder
	d.mu.RUnlock()

	rows := view.Filter(d.normalizer.Rows(), criteria)
	if len(rows) == 0 {
		return nil, BatchResult{}, nil
	}

	// The export set is fixed before any status changes: rows are
	// already filtered, so sort them as-is rather than re-deriving
	// after the batch update shifts Pending rows out of the criteria.
	sorted := view.Derive(rows, view.Criteria{}, order, 1, len(rows))

	pendingOrders := make(map[string]struct{})
	for _, row := range rows {
		if row.Status == models.StatusPending {
			pendingOrders[row.OrderID] = struct{}{}
		}
	}

	var batch BatchResult
	if len(pendingOrders) > 0 {
		orderIDs := make([]string, 0, len(pendingOrders))
		for orderID := range pendingOrders {
			orderIDs = append(orderIDs, orderID)
		}
		batch = d.batchUpdate(ctx, orderIDs, models.StatusProcessing, models.StatusPending)
	}

	return sorted.PageRows, batch, nil
}
