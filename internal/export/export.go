package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"bundle-console/internal/common"
	"bundle-console/internal/models"
	"bundle-console/internal/view"

	"github.com/xuri/excelize/v2"
)

// sizeLabel renders a bundle size for export ("10" -> "10 GB").
func sizeLabel(size string) string {
	if size == "" || size == "N/A" {
		return "N/A"
	}
	return size + " GB"
}

func newRequestLabel(isNew bool) string {
	if isNew {
		return "Yes"
	}
	return "No"
}

var orderHeaders = []string{
	"Order ID", "User", "Phone Number", "Product", "Product Description",
	"Price", "Status", "Date", "Time", "New Request",
}

// OrdersXLSX writes the given rows as a single-sheet workbook.
func OrdersXLSX(w io.Writer, rows []*models.OrderRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Orders"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("unable to name sheet: %w", err)
	}

	for col, header := range orderHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("unable to write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []any{
			row.OrderID,
			row.UserName,
			row.MobileNumber,
			row.ProductName,
			sizeLabel(row.ProductSize),
			row.ProductPrice.StringFixed(2),
			string(row.Status),
			row.FormattedDate,
			row.FormattedTime,
			newRequestLabel(row.IsNew),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("unable to write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("unable to write workbook: %w", err)
	}
	return nil
}

// OrdersCSV writes the given rows as plain CSV with the same columns
// as the workbook export.
func OrdersCSV(w io.Writer, rows []*models.OrderRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeaders); err != nil {
		return fmt.Errorf("unable to write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.OrderID,
			row.UserName,
			row.MobileNumber,
			row.ProductName,
			sizeLabel(row.ProductSize),
			row.ProductPrice.StringFixed(2),
			string(row.Status),
			row.FormattedDate,
			row.FormattedTime,
			newRequestLabel(row.IsNew),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("unable to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// TransactionsCSV writes the ledger entries as CSV.
func TransactionsCSV(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Type", "Description", "Amount", "Balance", "User", "Date"}); err != nil {
		return fmt.Errorf("unable to write header: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			string(tx.Type),
			tx.Description,
			tx.Amount.StringFixed(2),
			tx.Balance.StringFixed(2),
			tx.UserName(),
			common.FormatDateTime(tx.CreatedAt),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("unable to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SalesCSV writes the per-user sales summary as CSV.
func SalesCSV(w io.Writer, sales []view.UserSales) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"User", "Orders", "Total Sales", "Average Order", "Balance"}); err != nil {
		return fmt.Errorf("unable to write header: %w", err)
	}

	for _, s := range sales {
		record := []string{
			s.UserName,
			fmt.Sprintf("%d", s.OrderCount),
			s.TotalSales.StringFixed(2),
			s.AverageOrderValue().StringFixed(2),
			s.Balance.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("unable to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// BalanceCSV writes a one-row summary of the ledger aggregates.
func BalanceCSV(w io.Writer, stats view.TransactionStats) error {
	cw := csv.NewWriter(w)
	header := []string{
		"Transactions", "Credits", "Debits", "Net Balance",
		"Revenue", "Topups", "Refunds", "Previous Balance", "Success Rate",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %w", err)
	}

	successRate := "N/A"
	if rate, ok := stats.SuccessRate(); ok {
		successRate = fmt.Sprintf("%.1f%%", rate)
	}

	record := []string{
		fmt.Sprintf("%d", stats.TotalTransactions),
		stats.TotalCredits.StringFixed(2),
		stats.TotalDebits.StringFixed(2),
		stats.NetBalance.StringFixed(2),
		stats.TotalRevenue.StringFixed(2),
		stats.TotalTopups.StringFixed(2),
		stats.TotalRefunds.StringFixed(2),
		stats.PreviousBalance.StringFixed(2),
		successRate,
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("unable to write row: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
