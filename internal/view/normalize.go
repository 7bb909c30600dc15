package view

import (
	"sync"
	"time"

	"bundle-console/internal/models"
)

type cacheEntry struct {
	row *models.OrderRow
	// sourceTime is the parent order's creation timestamp at the time
	// the row was built. A matching timestamp means the row is current
	// and can be reused by pointer; cache hits are what lets downstream
	// memoization skip unchanged rows.
	sourceTime time.Time
}

// Normalizer flattens order snapshots into per-item rows and owns the
// memo cache keyed by (orderId, itemId). It is the only component,
// together with the mutation path, that writes the row set; everything
// downstream treats the rows as read-only.
type Normalizer struct {
	mu           sync.Mutex
	cache        map[models.RowKey]*cacheEntry
	prevOrderIDs map[string]struct{}
	newWindow    time.Duration
	rows         []*models.OrderRow
}

// SnapshotResult is the outcome of ingesting one snapshot. NewOrders
// holds the rows of order ids absent from the previous snapshot; it is
// empty for the first snapshot after load, which only sets the baseline.
type SnapshotResult struct {
	Rows      []*models.OrderRow
	NewOrders []*models.OrderRow
}

func NewNormalizer(newWindow time.Duration) *Normalizer {
	if newWindow <= 0 {
		newWindow = 5 * time.Minute
	}
	return &Normalizer{
		cache:        make(map[models.RowKey]*cacheEntry),
		prevOrderIDs: make(map[string]struct{}),
		newWindow:    newWindow,
	}
}

// Normalize ingests a full snapshot. A row is rebuilt only when its
// parent order's timestamp changed since it was cached; otherwise the
// cached row is reused verbatim.
func (n *Normalizer) Normalize(orders []models.Order, fetchedAt time.Time) SnapshotResult {
	n.mu.Lock()
	defer n.mu.Unlock()

	rows := make([]*models.OrderRow, 0, len(orders))
	currentIDs := make(map[string]struct{}, len(orders))
	baseline := len(n.prevOrderIDs) == 0

	var newOrders []*models.OrderRow
	for i := range orders {
		order := &orders[i]
		currentIDs[order.ID] = struct{}{}
		_, seen := n.prevOrderIDs[order.ID]
		isNew := order.CreatedAt.After(fetchedAt.Add(-n.newWindow))

		for j := range order.Items {
			row := n.rowFor(order, &order.Items[j], isNew)
			rows = append(rows, row)
			if !baseline && !seen {
				newOrders = append(newOrders, row)
			}
		}
	}

	n.prevOrderIDs = currentIDs
	n.rows = rows

	return SnapshotResult{Rows: rows, NewOrders: newOrders}
}

// ApplyOrder merges a single order delivered over the live feed into
// the current row set. Staleness is decided per key by comparing the
// incoming parent timestamp with the cached one, not by arrival order:
// an event carrying an older timestamp than the cache loses.
// When the order was not seen before, the upserted rows are returned so
// the caller can surface a notification.
func (n *Normalizer) ApplyOrder(order models.Order, receivedAt time.Time) []*models.OrderRow {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, seen := n.prevOrderIDs[order.ID]
	isNew := !seen && order.CreatedAt.After(receivedAt.Add(-n.newWindow))

	var added []*models.OrderRow
	for j := range order.Items {
		item := &order.Items[j]
		key := models.RowKey{OrderID: order.ID, ItemID: item.ID}
		if entry, ok := n.cache[key]; ok && entry.sourceTime.After(order.CreatedAt) {
			continue
		}
		row := n.rowFor(&order, item, isNew)
		n.upsertRow(row)
		if !seen {
			added = append(added, row)
		}
	}
	n.prevOrderIDs[order.ID] = struct{}{}
	return added
}

// rowFor returns the cached row when the parent timestamp is unchanged,
// rebuilding and replacing the entry otherwise. A cached entry carrying
// a newer timestamp than the incoming order wins: a snapshot that was
// in flight when a fresher live event landed must not overwrite it.
// Caller holds n.mu.
func (n *Normalizer) rowFor(order *models.Order, item *models.OrderItem, isNew bool) *models.OrderRow {
	key := models.RowKey{OrderID: order.ID, ItemID: item.ID}
	if entry, ok := n.cache[key]; ok && !entry.sourceTime.Before(order.CreatedAt) {
		return entry.row
	}

	row := buildRow(order, item, isNew)
	n.cache[key] = &cacheEntry{row: row, sourceTime: order.CreatedAt}
	return row
}

func (n *Normalizer) upsertRow(row *models.OrderRow) {
	key := row.Key()
	for i, existing := range n.rows {
		if existing.Key() == key {
			n.rows[i] = row
			return
		}
	}
	n.rows = append(n.rows, row)
}

func buildRow(order *models.Order, item *models.OrderItem, isNew bool) *models.OrderRow {
	row := &models.OrderRow{
		OrderID:       order.ID,
		ItemID:        item.ID,
		MobileNumber:  item.MobileNumber,
		Status:        item.Status,
		CreatedAt:     order.CreatedAt,
		FormattedDate: order.CreatedAt.UTC().Format("2006-01-02"),
		FormattedTime: order.CreatedAt.UTC().Format("15:04:05"),
		IsNew:         isNew,
	}
	if row.Status == "" && len(order.Items) > 0 {
		row.Status = order.Items[0].Status
	}
	if order.User != nil {
		row.UserName = order.User.Name
	}
	if item.Product != nil {
		row.ProductName = item.Product.Name
		row.ProductPrice = item.Product.Price
		row.ProductSize = models.ProductSizeOf(item.Product.Description)
	} else {
		row.ProductSize = "N/A"
	}
	return row
}

// Rows returns the current row set. The slice is a copy; the rows are
// shared and must not be mutated by callers.
func (n *Normalizer) Rows() []*models.OrderRow {
	n.mu.Lock()
	defer n.mu.Unlock()

	rows := make([]*models.OrderRow, len(n.rows))
	copy(rows, n.rows)
	return rows
}

// ClearCache drops every memo entry so the next snapshot rebuilds all
// rows. Used by manual refresh.
func (n *Normalizer) ClearCache() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cache = make(map[models.RowKey]*cacheEntry)
}

// ClearNewFlags marks every row as seen.
func (n *Normalizer) ClearNewFlags() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, row := range n.rows {
		row.IsNew = false
	}
}

// FindItem returns the row for an order item id, or nil.
func (n *Normalizer) FindItem(itemID string) *models.OrderRow {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, row := range n.rows {
		if row.ItemID == itemID {
			return row
		}
	}
	return nil
}

// SetItemStatus patches one row (and its cache entry, which shares the
// pointer) after a confirmed backend mutation. The row also loses its
// is-new highlight, matching the acknowledged-by-admin semantics.
func (n *Normalizer) SetItemStatus(itemID string, status models.Status) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, row := range n.rows {
		if row.ItemID == itemID {
			row.Status = status
			row.IsNew = false
			return true
		}
	}
	return false
}

// SetOrderStatus patches every row of an order currently in one of the
// given statuses. Returns the number of rows patched.
func (n *Normalizer) SetOrderStatus(orderID string, status models.Status, only ...models.Status) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	patched := 0
	for _, row := range n.rows {
		if row.OrderID != orderID {
			continue
		}
		if len(only) > 0 && !statusIn(row.Status, only) {
			continue
		}
		row.Status = status
		patched++
	}
	return patched
}

// OrderIDsWithStatus returns the distinct order ids that have at least
// one row in the given status, in first-seen order.
func (n *Normalizer) OrderIDsWithStatus(status models.Status) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	seen := make(map[string]struct{})
	var ids []string
	for _, row := range n.rows {
		if row.Status != status {
			continue
		}
		if _, ok := seen[row.OrderID]; ok {
			continue
		}
		seen[row.OrderID] = struct{}{}
		ids = append(ids, row.OrderID)
	}
	return ids
}

func statusIn(s models.Status, set []models.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
