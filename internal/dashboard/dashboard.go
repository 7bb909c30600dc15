package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bundle-console/internal/api"
	"bundle-console/internal/models"
	"bundle-console/internal/state"
	"bundle-console/internal/view"

	"go.uber.org/zap"
)

// Backend is the slice of the upstream API the dashboard needs.
type Backend interface {
	FetchOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.Status) error
	ProcessOrderItem(ctx context.Context, itemID string, status models.Status) error
	FetchTransactions(ctx context.Context, query api.TransactionQuery) ([]models.Transaction, error)
}

// StateStore persists fetch bookkeeping across restarts.
type StateStore interface {
	LastFetchTime(ctx context.Context) (time.Time, error)
	SetLastFetchTime(ctx context.Context, t time.Time) error
}

// Compile-time checks: the concrete implementations must satisfy the
// consumer-side interfaces.
var _ Backend = (*api.Client)(nil)
var _ StateStore = (*state.Store)(nil)

// NewOrdersFunc is invoked when a snapshot or feed event introduces
// orders not seen before. The slice holds the freshly derived rows.
type NewOrdersFunc func(rows []*models.OrderRow)

// Dashboard coordinates the order table: it owns the snapshot poller,
// the normalized row set, the active filter criteria, the transaction
// ledger view, and all status mutations.
type Dashboard struct {
	backend    Backend
	stateStore StateStore
	viewCfg    models.ViewConfig
	dashCfg    models.DashboardConfig

	normalizer *view.Normalizer
	windower   *view.Windower
	debouncer  *view.Debouncer

	onNewOrders NewOrdersFunc

	mu           sync.RWMutex
	criteria     view.Criteria
	sortOrder    view.SortOrder
	transactions []models.Transaction
	filteredTx   []models.Transaction
	txSearch     string
	txAmount     view.AmountFilter
	txQuery      api.TransactionQuery
	txLoaded     bool
	lastFetch    time.Time

	refreshCh chan struct{}
	stopChan  chan struct{}
	doneChan  chan struct{}
	started   bool
}

func New(backend Backend, stateStore StateStore, cfg models.Config, onNewOrders NewOrdersFunc) (*Dashboard, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if cfg.View.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", cfg.View.PageSize)
	}

	return &Dashboard{
		backend:     backend,
		stateStore:  stateStore,
		viewCfg:     cfg.View,
		dashCfg:     cfg.Dashboard,
		normalizer:  view.NewNormalizer(cfg.View.NewOrderWindow),
		windower:    view.NewWindower(cfg.View.RowHeight, cfg.View.ViewportHeight),
		debouncer:   view.NewDebouncer(cfg.View.SearchDebounce),
		onNewOrders: onNewOrders,
		sortOrder:   view.SortNewest,
		txAmount:    view.AmountAll,
		refreshCh:   make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}, nil
}

// Start performs the initial snapshot fetch and, when auto refresh is
// enabled, launches the background poll loop.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return fmt.Errorf("dashboard already started")
	}
	d.started = true
	d.mu.Unlock()

	if d.stateStore != nil {
		last, err := d.stateStore.LastFetchTime(ctx)
		if err != nil {
			zap.L().Warn("Unable to read persisted fetch time", zap.Error(err))
		} else if !last.IsZero() {
			d.mu.Lock()
			d.lastFetch = last
			d.mu.Unlock()
			zap.L().Info("Restored last fetch time", zap.Time("last_fetch", last))
		}
	}

	if err := d.fetch(ctx); err != nil {
		zap.L().Error("Initial snapshot fetch failed", zap.Error(err))
	}

	if d.dashCfg.AutoRefresh {
		go d.pollLoop(ctx)
	} else {
		close(d.doneChan)
	}

	zap.L().Info("Dashboard started",
		zap.Bool("auto_refresh", d.dashCfg.AutoRefresh),
		zap.Duration("refresh_interval", d.dashCfg.RefreshInterval))
	return nil
}

// Stop halts the poll loop and any pending debounced work.
func (d *Dashboard) Stop() {
	zap.L().Info("Stopping dashboard")
	d.debouncer.Stop()
	close(d.stopChan)
	<-d.doneChan
	zap.L().Info("Dashboard stopped")
}

// pollLoop refetches on a fixed interval. A manual refresh replaces the
// interval timer rather than stacking an extra one on top of it.
func (d *Dashboard) pollLoop(ctx context.Context) {
	defer close(d.doneChan)

	ticker := time.NewTicker(d.dashCfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := d.fetch(ctx); err != nil {
				zap.L().Error("Scheduled snapshot fetch failed", zap.Error(err))
			}
		case <-d.refreshCh:
			ticker.Reset(d.dashCfg.RefreshInterval)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// fetch pulls a fresh snapshot and merges it into the row set. An
// in-flight fetch makes this call a no-op; a failed fetch keeps the
// rows from the previous snapshot on screen.
func (d *Dashboard) fetch(ctx context.Context) error {
	orders, err := d.backend.FetchOrders(ctx)
	if err != nil {
		if errors.Is(err, api.ErrSkipped) {
			zap.L().Debug("Snapshot fetch already in flight, skipping")
			return nil
		}
		return err
	}

	fetchedAt := time.Now().UTC()
	result := d.normalizer.Normalize(orders, fetchedAt)

	d.mu.Lock()
	d.lastFetch = fetchedAt
	d.mu.Unlock()

	if d.stateStore != nil {
		if err := d.stateStore.SetLastFetchTime(ctx, fetchedAt); err != nil {
			zap.L().Warn("Unable to persist fetch time", zap.Error(err))
		}
	}

	zap.L().Debug("Snapshot merged",
		zap.Int("orders", len(orders)),
		zap.Int("new_rows", len(result.NewOrders)))

	if len(result.NewOrders) > 0 && d.onNewOrders != nil {
		d.onNewOrders(result.NewOrders)
	}
	return nil
}

// Refresh discards the memo cache and new-request state, then
// refetches immediately. The poll timer restarts from now so the
// manual refresh does not double up with a scheduled one.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.normalizer.ClearCache()
	d.normalizer.ClearNewFlags()

	select {
	case d.refreshCh <- struct{}{}:
	default:
	}

	return d.fetch(ctx)
}

// LastFetchTime reports when the most recent successful snapshot was
// taken, possibly restored from a previous run.
func (d *Dashboard) LastFetchTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastFetch
}

// statusUpdatePayload is the body of an order-status-update feed event.
type statusUpdatePayload struct {
	OrderID     string        `json:"orderId"`
	OrderItemID string        `json:"orderItemId"`
	Status      models.Status `json:"status"`
}

// HandleFeedEvent applies one live feed event to the dashboard state.
// Unknown or malformed events are logged and dropped.
func (d *Dashboard) HandleFeedEvent(ctx context.Context, event string, payload json.RawMessage) {
	switch event {
	case models.EventNewOrder, models.EventNewShopOrder:
		var order models.Order
		if err := json.Unmarshal(payload, &order); err != nil {
			zap.L().Warn("Malformed order event payload",
				zap.String("event", event), zap.Error(err))
			return
		}
		for _, item := range order.Items {
			if err := ValidatePhoneNumber(item.MobileNumber); err != nil {
				zap.L().Warn("Order carries a malformed mobile number",
					zap.String("order_id", order.ID),
					zap.String("order_item_id", item.ID),
					zap.Error(err))
			}
		}
		rows := d.normalizer.ApplyOrder(order, time.Now().UTC())
		if len(rows) > 0 && d.onNewOrders != nil {
			d.onNewOrders(rows)
		}

	case models.EventOrderStatusUpdate:
		var update statusUpdatePayload
		if err := json.Unmarshal(payload, &update); err != nil {
			zap.L().Warn("Malformed status update payload", zap.Error(err))
			return
		}
		if !update.Status.Valid() {
			zap.L().Warn("Status update with unknown status",
				zap.String("status", string(update.Status)))
			return
		}
		if update.OrderItemID != "" {
			if !d.normalizer.SetItemStatus(update.OrderItemID, update.Status) {
				zap.L().Debug("Status update for unknown item",
					zap.String("order_item_id", update.OrderItemID))
			}
		} else if update.OrderID != "" {
			d.normalizer.SetOrderStatus(update.OrderID, update.Status)
		}

	case models.EventTransactionUpdate, models.EventNewTopup:
		d.reloadTransactions(ctx)

	case models.EventDataRefresh:
		if err := d.Refresh(ctx); err != nil {
			zap.L().Error("Feed-triggered refresh failed", zap.Error(err))
		}

	default:
		zap.L().Debug("Ignoring unhandled feed event", zap.String("event", event))
	}
}

// SetCriteria installs new filter criteria; the next Orders call
// derives against them.
func (d *Dashboard) SetCriteria(c view.Criteria) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.criteria = c
}

func (d *Dashboard) SetSortOrder(order view.SortOrder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sortOrder = order
}

// Orders derives the requested page from the current row set under the
// active criteria and sort order.
func (d *Dashboard) Orders(page int) view.DeriveResult {
	d.mu.RLock()
	criteria := d.criteria
	order := d.sortOrder
	d.mu.RUnlock()

	return view.Derive(d.normalizer.Rows(), criteria, order, page, d.viewCfg.PageSize)
}

// OrderStats aggregates over the rows matching the active criteria,
// not just the visible page.
func (d *Dashboard) OrderStats() view.OrderStats {
	d.mu.RLock()
	criteria := d.criteria
	d.mu.RUnlock()

	return view.AggregateOrders(view.Filter(d.normalizer.Rows(), criteria))
}

// UserSales aggregates per-user order totals over the filtered ledger.
func (d *Dashboard) UserSales() []view.UserSales {
	d.mu.RLock()
	filtered := d.filteredTx
	d.mu.RUnlock()
	return view.UserSalesData(filtered)
}

// Acknowledge clears the new-order highlight from every row.
func (d *Dashboard) Acknowledge() {
	d.normalizer.ClearNewFlags()
}

// LoadTransactions fetches the ledger for the given query and installs
// it as the active transaction set.
func (d *Dashboard) LoadTransactions(ctx context.Context, query api.TransactionQuery) error {
	txs, err := d.backend.FetchTransactions(ctx, query)
	if err != nil {
		return fmt.Errorf("unable to load transactions: %w", err)
	}

	d.mu.Lock()
	d.transactions = txs
	d.txQuery = query
	d.txLoaded = true
	d.applyTransactionFilterLocked()
	d.mu.Unlock()

	zap.L().Debug("Transactions loaded", zap.Int("count", len(txs)))
	return nil
}

// LoadDefaultTransactions loads the configured trailing range ending
// today.
func (d *Dashboard) LoadDefaultTransactions(ctx context.Context) error {
	query := api.DefaultTransactionQuery(time.Now().UTC(), d.dashCfg.TransactionRange, d.viewCfg.TransactionPageSize)
	return d.LoadTransactions(ctx, query)
}

func (d *Dashboard) reloadTransactions(ctx context.Context) {
	d.mu.RLock()
	loaded := d.txLoaded
	query := d.txQuery
	d.mu.RUnlock()

	if !loaded {
		return
	}
	if err := d.LoadTransactions(ctx, query); err != nil {
		zap.L().Warn("Unable to reload transactions after feed event", zap.Error(err))
	}
}

// SetTransactionSearch applies a user-name search after the debounce
// delay, so a burst of keystrokes triggers a single recompute.
func (d *Dashboard) SetTransactionSearch(search string) {
	d.debouncer.Trigger(func() {
		d.mu.Lock()
		d.txSearch = search
		d.applyTransactionFilterLocked()
		d.mu.Unlock()
	})
}

// SetTransactionAmountFilter takes effect immediately.
func (d *Dashboard) SetTransactionAmountFilter(filter view.AmountFilter) {
	d.mu.Lock()
	d.txAmount = filter
	d.applyTransactionFilterLocked()
	d.mu.Unlock()
}

func (d *Dashboard) applyTransactionFilterLocked() {
	d.filteredTx = view.FilterTransactions(d.transactions, d.txSearch, d.txAmount)
}

// TransactionWindow returns the visible slice of the filtered ledger
// for the given scroll position.
func (d *Dashboard) TransactionWindow(scrollOffset int) view.Window {
	d.mu.RLock()
	filtered := d.filteredTx
	d.mu.RUnlock()

	return d.windower.Window(filtered, scrollOffset)
}

// TransactionStats aggregates the filtered ledger in a single pass.
func (d *Dashboard) TransactionStats() view.TransactionStats {
	d.mu.RLock()
	filtered := d.filteredTx
	all := d.transactions
	search := d.txSearch
	d.mu.RUnlock()

	return view.AggregateTransactions(filtered, all, search, time.Now().UTC())
}

// Transactions returns the currently filtered ledger entries.
func (d *Dashboard) Transactions() []models.Transaction {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filteredTx
}
