package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bundle-console/internal/api"
	"bundle-console/internal/catalog"
	"bundle-console/internal/common"
	"bundle-console/internal/config"
	"bundle-console/internal/export"
	"bundle-console/internal/models"
	"bundle-console/internal/view"

	"go.uber.org/zap"
)

// A one-shot, read-only export: fetch the current snapshot and ledger,
// write the requested report, exit. No state database, no status side
// effects.
func main() {
	report := flag.String("report", "orders", "Report to export: orders, transactions, sales, balance")
	format := flag.String("format", "xlsx", "Output format for orders: xlsx or csv")
	out := flag.String("out", "", "Output file (default: <report>.<format>)")
	days := flag.Int("days", 0, "Ledger range in days (default: from TRANSACTION_RANGE)")
	product := flag.String("product", "", "Only orders for this product (must exist in the catalog)")
	status := flag.String("status", "", "Only orders in this status")
	date := flag.String("date", "", "Only orders on this date (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := api.NewClient(cfg.API)
	if err != nil {
		zap.L().Fatal("Failed to create API client", zap.Error(err))
	}

	span := cfg.Dashboard.TransactionRange
	if *days > 0 {
		span = time.Duration(*days) * 24 * time.Hour
	}

	outFile := *out
	if outFile == "" {
		ext := "csv"
		if *report == "orders" && *format == "xlsx" {
			ext = "xlsx"
		}
		outFile = fmt.Sprintf("%s.%s", *report, ext)
	}

	f, err := os.Create(outFile)
	if err != nil {
		zap.L().Fatal("Failed to create output file", zap.Error(err))
	}
	defer func() { _ = f.Close() }()

	criteria := view.Criteria{
		Product: *product,
		Date:    *date,
	}
	if *status != "" {
		s := models.Status(*status)
		if !s.Valid() {
			zap.L().Fatal("Unknown status", zap.String("status", *status))
		}
		criteria.Status = s
	}
	if criteria.Product != "" {
		products, err := catalog.Load(cfg.Dashboard.ProductsFile)
		if err != nil {
			zap.L().Fatal("Failed to load product catalog", zap.Error(err))
		}
		if !products.Has(criteria.Product) {
			zap.L().Fatal("Unknown product", zap.String("product", criteria.Product))
		}
	}

	switch *report {
	case "orders":
		err = exportOrders(ctx, client, cfg.View.NewOrderWindow, criteria, *format, f)
	case "transactions":
		err = exportTransactions(ctx, client, span, cfg.View.TransactionPageSize, f)
	case "sales":
		err = exportSales(ctx, client, span, cfg.View.TransactionPageSize, f)
	case "balance":
		err = exportBalance(ctx, client, span, cfg.View.TransactionPageSize, f)
	default:
		zap.L().Fatal("Unknown report", zap.String("report", *report))
	}
	if err != nil {
		zap.L().Fatal("Export failed", zap.String("report", *report), zap.Error(err))
	}

	zap.L().Info("Export written", zap.String("report", *report), zap.String("file", outFile))
}

func exportOrders(ctx context.Context, client *api.Client, newWindow time.Duration, criteria view.Criteria, format string, f *os.File) error {
	orders, err := client.FetchOrders(ctx)
	if err != nil {
		return err
	}

	normalizer := view.NewNormalizer(newWindow)
	result := normalizer.Normalize(orders, time.Now().UTC())
	rows := view.Filter(result.Rows, criteria)

	if format == "csv" {
		return export.OrdersCSV(f, rows)
	}
	return export.OrdersXLSX(f, rows)
}

func exportTransactions(ctx context.Context, client *api.Client, span time.Duration, limit int, f *os.File) error {
	query := api.DefaultTransactionQuery(time.Now().UTC(), span, limit)
	txs, err := client.FetchTransactions(ctx, query)
	if err != nil {
		return err
	}
	return export.TransactionsCSV(f, txs)
}

func exportSales(ctx context.Context, client *api.Client, span time.Duration, limit int, f *os.File) error {
	query := api.DefaultTransactionQuery(time.Now().UTC(), span, limit)
	txs, err := client.FetchTransactions(ctx, query)
	if err != nil {
		return err
	}
	return export.SalesCSV(f, view.UserSalesData(txs))
}

func exportBalance(ctx context.Context, client *api.Client, span time.Duration, limit int, f *os.File) error {
	query := api.DefaultTransactionQuery(time.Now().UTC(), span, limit)
	txs, err := client.FetchTransactions(ctx, query)
	if err != nil {
		return err
	}
	stats := view.AggregateTransactions(txs, txs, "", time.Now().UTC())
	return export.BalanceCSV(f, stats)
}
