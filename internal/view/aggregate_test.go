package view

import (
	"testing"
	"time"

	"bundle-console/internal/models"

	"github.com/shopspring/decimal"
)

func tx(id string, kind models.TransactionType, amount, balance int64, user string, created time.Time) models.Transaction {
	return models.Transaction{
		ID:        id,
		Type:      kind,
		Amount:    decimal.NewFromInt(amount),
		Balance:   decimal.NewFromInt(balance),
		User:      &models.TxUser{ID: "u-" + user, Name: user},
		CreatedAt: created,
	}
}

func TestAggregateOrders(t *testing.T) {
	rows := []*models.OrderRow{
		{Status: models.StatusPending},
		{Status: models.StatusProcessing},
		{Status: models.StatusProcessing},
		{Status: models.StatusCompleted},
		{Status: models.StatusCancelled},
	}

	stats := AggregateOrders(rows)
	if stats.Pending != 1 || stats.Processing != 2 || stats.Completed != 1 || stats.Cancelled != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Total() != 5 {
		t.Errorf("Total = %d, want 5", stats.Total())
	}
}

func TestUserSalesData(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		tx("t1", models.TxOrder, -50, 950, "Ama", day),
		tx("t2", models.TxOrder, -30, 920, "Ama", day.Add(time.Hour)),
		tx("t3", models.TxOrder, -10, 490, "Kofi", day.Add(2*time.Hour)),
		tx("t4", models.TxTopupApproved, 500, 1420, "Ama", day.Add(3*time.Hour)),
	}

	sales := UserSalesData(txs)
	if len(sales) != 2 {
		t.Fatalf("got %d users, want 2", len(sales))
	}

	// Sorted by absolute sales volume, Ama first.
	ama := sales[0]
	if ama.UserName != "Ama" {
		t.Fatalf("first user = %s, want Ama", ama.UserName)
	}
	if ama.OrderCount != 2 {
		t.Errorf("Ama order count = %d, want 2", ama.OrderCount)
	}
	if !ama.TotalSales.Equal(decimal.NewFromInt(-80)) {
		t.Errorf("Ama total sales = %s, want -80", ama.TotalSales)
	}
	if !ama.AverageOrderValue().Equal(decimal.NewFromInt(40)) {
		t.Errorf("Ama average order = %s, want 40", ama.AverageOrderValue())
	}
	// Balance is the latest transaction's running balance, topups included.
	if !ama.Balance.Equal(decimal.NewFromInt(1420)) {
		t.Errorf("Ama balance = %s, want 1420", ama.Balance)
	}
}

func TestAggregateTransactionsBalanceSheet(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		tx("t1", models.TxOrder, -50, 950, "Ama", day),
		tx("t2", models.TxTopupApproved, 200, 1150, "Ama", day.Add(time.Hour)),
		tx("t3", models.TxRefund, 30, 1180, "Ama", day.Add(2*time.Hour)),
		tx("t4", models.TxTopupRejected, 0, 1180, "Kofi", day.Add(3*time.Hour)),
		tx("t5", models.TxLoanDeduction, -20, 1160, "Kofi", day.Add(4*time.Hour)),
	}

	stats := AggregateTransactions(txs, txs, "", day.Add(5*time.Hour))

	if stats.TotalTransactions != 5 {
		t.Errorf("TotalTransactions = %d", stats.TotalTransactions)
	}
	if !stats.TotalCredits.Equal(decimal.NewFromInt(230)) {
		t.Errorf("TotalCredits = %s, want 230", stats.TotalCredits)
	}
	if !stats.TotalDebits.Equal(decimal.NewFromInt(-70)) {
		t.Errorf("TotalDebits = %s, want -70", stats.TotalDebits)
	}
	// Net balance is credits plus signed debits.
	want := stats.TotalCredits.Add(stats.TotalDebits)
	if !stats.NetBalance.Equal(want) {
		t.Errorf("NetBalance = %s, want %s", stats.NetBalance, want)
	}
	if !stats.TotalRevenue.Equal(decimal.NewFromInt(50)) {
		t.Errorf("TotalRevenue = %s, want 50", stats.TotalRevenue)
	}
	if stats.OrderCount != 1 || stats.TopupCount != 1 || stats.RefundCount != 1 ||
		stats.RejectedTopupCount != 1 || stats.LoanCount != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.ActiveUsers != 2 {
		t.Errorf("ActiveUsers = %d, want 2", stats.ActiveUsers)
	}

	rate, ok := stats.SuccessRate()
	if !ok || rate != 50 {
		t.Errorf("SuccessRate = %v %v, want 50 true", rate, ok)
	}
}

func TestSuccessRateUndefinedWithoutTopups(t *testing.T) {
	var stats TransactionStats
	if _, ok := stats.SuccessRate(); ok {
		t.Error("SuccessRate should be undefined with no decided top-ups")
	}
}

func TestPreviousBalanceLatestPerUser(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	all := []models.Transaction{
		tx("t1", models.TxOrder, -50, 100, "Ama", yesterday.Add(8*time.Hour)),
		tx("t2", models.TxTopupApproved, 500, 600, "Ama", yesterday.Add(20*time.Hour)),
		tx("t3", models.TxOrder, -10, 90, "Kofi", yesterday.Add(10*time.Hour)),
		// Today's transactions must not contribute.
		tx("t4", models.TxOrder, -30, 570, "Ama", now.Add(-time.Hour)),
	}

	stats := AggregateTransactions(all, all, "", now)
	// Ama's latest pre-today balance (600) plus Kofi's (90).
	if !stats.PreviousBalance.Equal(decimal.NewFromInt(690)) {
		t.Errorf("PreviousBalance = %s, want 690", stats.PreviousBalance)
	}

	searched := AggregateTransactions(all, all, "kofi", now)
	if !searched.PreviousBalance.Equal(decimal.NewFromInt(90)) {
		t.Errorf("searched PreviousBalance = %s, want 90", searched.PreviousBalance)
	}
}

func TestPreviousBalanceBoundaryIsExclusive(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	all := []models.Transaction{
		// Exactly at the day boundary: belongs to today.
		tx("t1", models.TxOrder, -50, 100, "Ama", midnight),
		tx("t2", models.TxOrder, -10, 200, "Ama", midnight.Add(-time.Nanosecond)),
	}

	stats := AggregateTransactions(all, all, "", now)
	if !stats.PreviousBalance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("PreviousBalance = %s, want 200", stats.PreviousBalance)
	}
}
