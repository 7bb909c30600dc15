package view

import (
	"sort"
	"strings"

	"bundle-console/internal/models"
)

// DeriveResult is one page of the filtered and sorted row set.
type DeriveResult struct {
	PageRows   []*models.OrderRow
	TotalCount int
}

// Derive is the pure derivation pipeline: filter, sort, paginate.
// It never mutates its inputs; both passes work on fresh slices, so the
// result is safe to memoize on shallow-equal inputs. Page indices are
// 1-based; a page past the end yields an empty slice.
func Derive(rows []*models.OrderRow, c Criteria, order SortOrder, page, pageSize int) DeriveResult {
	var filtered []*models.OrderRow
	if !c.Active() {
		// Fast path: nothing to filter, only sort.
		filtered = make([]*models.OrderRow, len(rows))
		copy(filtered, rows)
	} else {
		filtered = filterRows(rows, c)
	}

	sortRows(filtered, order)

	return DeriveResult{
		PageRows:   paginate(filtered, page, pageSize),
		TotalCount: len(filtered),
	}
}

// Filter returns every row matching the criteria, unsorted. Callers
// that aggregate over the whole filtered set use this instead of
// paging through Derive.
func Filter(rows []*models.OrderRow, c Criteria) []*models.OrderRow {
	if !c.Active() {
		filtered := make([]*models.OrderRow, len(rows))
		copy(filtered, rows)
		return filtered
	}
	return filterRows(rows, c)
}

func filterRows(rows []*models.OrderRow, c Criteria) []*models.OrderRow {
	newCutoff := c.now().Add(-c.newWindow())
	rangeStart, rangeEnd, hasRange := c.timeRange()

	filtered := make([]*models.OrderRow, 0, len(rows))
	for _, row := range rows {
		// Cheapest predicates first so most rows drop early.
		if c.OrderID != "" && !strings.Contains(row.OrderID, c.OrderID) {
			continue
		}
		if c.Phone != "" && !strings.Contains(row.MobileNumber, c.Phone) {
			continue
		}
		if c.Product != "" && row.ProductName != c.Product {
			continue
		}
		if c.Status != "" && row.Status != c.Status {
			continue
		}
		if c.Date != "" && row.FormattedDate != c.Date {
			continue
		}
		if c.NewOnly && row.CreatedAt.Before(newCutoff) {
			continue
		}
		if hasRange && (row.CreatedAt.Before(rangeStart) || row.CreatedAt.After(rangeEnd)) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// sortRows sorts in place by creation time. Stability for equal
// timestamps is not guaranteed.
func sortRows(rows []*models.OrderRow, order SortOrder) {
	if order == SortOldest {
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		})
		return
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
}

func paginate(rows []*models.OrderRow, page, pageSize int) []*models.OrderRow {
	if page < 1 || pageSize < 1 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return nil
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// FilterTransactions applies the ledger-side predicates: user-name
// substring search (case-insensitive) and amount sign. The backend has
// already applied date-range and type filters server-side.
func FilterTransactions(txs []models.Transaction, search string, amount AmountFilter) []models.Transaction {
	if search == "" && (amount == "" || amount == AmountAll) {
		return txs
	}

	needle := strings.ToLower(search)
	filtered := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if needle != "" && !strings.Contains(strings.ToLower(tx.UserName()), needle) {
			continue
		}
		switch amount {
		case AmountCredits:
			if tx.Amount.IsNegative() {
				continue
			}
		case AmountDebits:
			if !tx.Amount.IsNegative() {
				continue
			}
		}
		filtered = append(filtered, tx)
	}
	return filtered
}
