package view

import (
	"sort"
	"strings"
	"time"

	"bundle-console/internal/models"

	"github.com/shopspring/decimal"
)

// OrderStats is the per-status row count shown in the dashboard header.
type OrderStats struct {
	Pending    int
	Processing int
	Completed  int
	Cancelled  int
}

func (s OrderStats) Total() int {
	return s.Pending + s.Processing + s.Completed + s.Cancelled
}

// AggregateOrders counts rows by status in one pass.
func AggregateOrders(rows []*models.OrderRow) OrderStats {
	var stats OrderStats
	for _, row := range rows {
		switch row.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusProcessing:
			stats.Processing++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// UserSales is one row of the per-user sales rollup.
type UserSales struct {
	UserName   string
	OrderCount int
	// TotalSales is the signed sum of the user's ORDER amounts; order
	// amounts are debits, so this is typically negative.
	TotalSales decimal.Decimal
	// Balance is the balance on the user's chronologically latest
	// transaction in the filtered set.
	Balance decimal.Decimal
}

// AverageOrderValue is the magnitude of the mean order amount.
func (u UserSales) AverageOrderValue() decimal.Decimal {
	if u.OrderCount == 0 {
		return decimal.Zero
	}
	return u.TotalSales.Div(decimal.NewFromInt(int64(u.OrderCount))).Abs()
}

// UserSalesData builds the sales rollup in a single forward pass:
// ORDER totals and counts per user, plus each user's latest balance.
// Sorted by sales magnitude, largest first.
func UserSalesData(txs []models.Transaction) []UserSales {
	type latestBalance struct {
		balance   decimal.Decimal
		createdAt time.Time
	}

	salesByUser := make(map[string]*UserSales)
	balanceByUser := make(map[string]latestBalance)

	for i := range txs {
		tx := &txs[i]
		name := tx.UserName()
		if name == "" {
			continue
		}

		if existing, ok := balanceByUser[name]; !ok || tx.CreatedAt.After(existing.createdAt) {
			balanceByUser[name] = latestBalance{balance: tx.Balance, createdAt: tx.CreatedAt}
		}

		if tx.Type != models.TxOrder {
			continue
		}
		sales, ok := salesByUser[name]
		if !ok {
			sales = &UserSales{UserName: name}
			salesByUser[name] = sales
		}
		sales.TotalSales = sales.TotalSales.Add(tx.Amount)
		sales.OrderCount++
	}

	result := make([]UserSales, 0, len(salesByUser))
	for name, sales := range salesByUser {
		sales.Balance = balanceByUser[name].balance
		result = append(result, *sales)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalSales.Abs().GreaterThan(result[j].TotalSales.Abs())
	})
	return result
}

// TransactionStats is the balance-sheet summary over the filtered
// ledger view. All monetary fields carry backend-supplied values
// verbatim; nothing is recomputed from first principles.
type TransactionStats struct {
	TotalTransactions int

	TotalCredits decimal.Decimal
	TotalDebits  decimal.Decimal
	NetBalance   decimal.Decimal

	TotalRevenue     decimal.Decimal
	TotalTopups      decimal.Decimal
	TotalRefunds     decimal.Decimal
	TotalExpenses    decimal.Decimal
	TopupsAndRefunds decimal.Decimal
	NetPosition      decimal.Decimal

	OrderCount         int
	TopupCount         int
	RefundCount        int
	RejectedTopupCount int
	LoanCount          int

	ActiveUsers int

	// PreviousBalance sums, across users, the balance of each user's
	// latest transaction strictly before the start of the current UTC
	// day. With a user search active it is that one user's latest
	// pre-today balance instead.
	PreviousBalance decimal.Decimal
}

// SuccessRate is the approved share of decided top-ups, as a
// percentage. ok is false when no top-up was decided.
func (s TransactionStats) SuccessRate() (float64, bool) {
	decided := s.TopupCount + s.RejectedTopupCount
	if decided == 0 {
		return 0, false
	}
	return float64(s.TopupCount) / float64(decided) * 100, true
}

// AverageOrderValue is revenue per order, zero when there are none.
func (s TransactionStats) AverageOrderValue() decimal.Decimal {
	if s.OrderCount == 0 {
		return decimal.Zero
	}
	return s.TotalRevenue.Div(decimal.NewFromInt(int64(s.OrderCount)))
}

// AggregateTransactions computes the balance sheet in a single forward
// pass over the filtered view. The previous-balance figure is derived
// from the unfiltered page (all), since the day boundary cuts across
// whatever filters are active.
func AggregateTransactions(filtered, all []models.Transaction, search string, now time.Time) TransactionStats {
	stats := TransactionStats{TotalTransactions: len(filtered)}
	users := make(map[string]struct{})

	for i := range filtered {
		tx := &filtered[i]
		if name := tx.UserName(); name != "" {
			users[name] = struct{}{}
		}

		if tx.Amount.IsPositive() {
			stats.TotalCredits = stats.TotalCredits.Add(tx.Amount)
		} else {
			stats.TotalDebits = stats.TotalDebits.Add(tx.Amount)
		}

		switch tx.Type {
		case models.TxOrder:
			stats.TotalRevenue = stats.TotalRevenue.Add(tx.Amount.Abs())
			stats.OrderCount++
		case models.TxTopupApproved:
			stats.TotalTopups = stats.TotalTopups.Add(tx.Amount)
			stats.TopupCount++
		case models.TxRefund:
			stats.TotalRefunds = stats.TotalRefunds.Add(tx.Amount)
			stats.RefundCount++
		case models.TxTopupRejected:
			stats.RejectedTopupCount++
		case models.TxLoanDeduction:
			stats.TotalExpenses = stats.TotalExpenses.Add(tx.Amount.Abs())
			stats.LoanCount++
		case models.TxCartAdd, models.TxCartRemove:
			stats.TotalExpenses = stats.TotalExpenses.Add(tx.Amount.Abs())
		}
	}

	stats.ActiveUsers = len(users)
	stats.NetBalance = stats.TotalCredits.Add(stats.TotalDebits)
	stats.NetPosition = stats.TotalRevenue.Add(stats.TotalTopups).Sub(stats.TotalExpenses)
	stats.TopupsAndRefunds = stats.TotalTopups.Add(stats.TotalRefunds)
	stats.PreviousBalance = previousBalance(all, search, startOfDayUTC(now))

	return stats
}

// startOfDayUTC is the day boundary used for the previous-balance cut.
// The boundary is always the UTC calendar day; client-local midnight is
// deliberately not used.
func startOfDayUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// previousBalance keeps only the chronologically latest pre-today
// transaction per user, so no user's balance is counted twice.
func previousBalance(all []models.Transaction, search string, dayStart time.Time) decimal.Decimal {
	needle := strings.ToLower(search)

	if needle != "" {
		var latest *models.Transaction
		for i := range all {
			tx := &all[i]
			if !tx.CreatedAt.Before(dayStart) {
				continue
			}
			if !strings.Contains(strings.ToLower(tx.UserName()), needle) {
				continue
			}
			if latest == nil || tx.CreatedAt.After(latest.CreatedAt) {
				latest = tx
			}
		}
		if latest == nil {
			return decimal.Zero
		}
		return latest.Balance
	}

	latestByUser := make(map[string]*models.Transaction)
	for i := range all {
		tx := &all[i]
		if !tx.CreatedAt.Before(dayStart) {
			continue
		}
		name := tx.UserName()
		if name == "" {
			continue
		}
		if existing, ok := latestByUser[name]; !ok || tx.CreatedAt.After(existing.CreatedAt) {
			latestByUser[name] = tx
		}
	}

	sum := decimal.Zero
	for _, tx := range latestByUser {
		sum = sum.Add(tx.Balance)
	}
	return sum
}
