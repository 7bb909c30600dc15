package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bundle-console/internal/api"
	"bundle-console/internal/catalog"
	"bundle-console/internal/common"
	"bundle-console/internal/config"
	"bundle-console/internal/dashboard"
	"bundle-console/internal/feed"
	"bundle-console/internal/models"
	"bundle-console/internal/state"

	"go.uber.org/zap"
)

func main() {
	productsFile := flag.String("products", "", "Optional path to products.yaml (default: from PRODUCTS_FILE)")
	noFeed := flag.Bool("no-feed", false, "Disable the live feed connection (poll only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting bundle console")

	file := *productsFile
	if file == "" {
		file = cfg.Dashboard.ProductsFile
	}
	products, err := catalog.Load(file)
	if err != nil {
		zap.L().Fatal("Failed to load product catalog", zap.Error(err))
	}
	zap.L().Info("Product catalog loaded",
		zap.String("file", file),
		zap.Int("products", len(products.Names())))

	client, err := api.NewClient(cfg.API)
	if err != nil {
		zap.L().Fatal("Failed to create API client", zap.Error(err))
	}

	stateStore, err := state.NewStore(ctx, cfg.State)
	if err != nil {
		zap.L().Fatal("Failed to open state database", zap.Error(err))
	}
	defer stateStore.Close()

	dash, err := dashboard.New(client, stateStore, *cfg, announceNewOrders)
	if err != nil {
		zap.L().Fatal("Failed to create dashboard", zap.Error(err))
	}

	if err := dash.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start dashboard", zap.Error(err))
	}

	if err := dash.LoadDefaultTransactions(ctx); err != nil {
		zap.L().Warn("Unable to load transaction ledger", zap.Error(err))
	}

	var feedClient *feed.Client
	if !*noFeed {
		feedClient = feed.NewClient(cfg.Feed)
		feedClient.SubscribeAll(func(event string, payload json.RawMessage) {
			dash.HandleFeedEvent(ctx, event, payload)
		})
		if err := feedClient.Connect(ctx); err != nil {
			zap.L().Warn("Live feed unavailable, running on polling only", zap.Error(err))
			feedClient = nil
		}
	}

	printSummary(dash)
	zap.L().Info("Console running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		if feedClient != nil {
			feedClient.Close()
		}
		dash.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Console stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}

// ANSI color helpers for console output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// networkColor matches the carrier's brand color: MTN yellow, TELECEL
// red, AIRTEL TIGO cyan.
func networkColor(productName string) string {
	switch catalog.NetworkOf(productName) {
	case "MTN":
		return colorYellow
	case "TELECEL":
		return colorRed
	case "AIRTEL TIGO":
		return colorCyan
	}
	return colorGreen
}

func announceNewOrders(rows []*models.OrderRow) {
	for _, row := range rows {
		fmt.Printf("  %sNEW  %s  %s  %s  %s%s\n",
			networkColor(row.ProductName),
			row.OrderID, row.UserName, row.ProductName,
			common.FormatAmount(row.ProductPrice), colorReset)
	}
}

func printSummary(dash *dashboard.Dashboard) {
	stats := dash.OrderStats()
	common.PrintHeader("Orders", common.DefaultWidth)
	fmt.Printf("  Total: %d  Pending: %d  Processing: %d  Completed: %d  Cancelled: %d\n",
		stats.Total(), stats.Pending, stats.Processing, stats.Completed, stats.Cancelled)

	txStats := dash.TransactionStats()
	common.PrintHeader("Ledger", common.DefaultWidth)
	fmt.Printf("  Transactions: %d  Credits: %s  Debits: %s  Net: %s\n",
		txStats.TotalTransactions,
		common.FormatAmount(txStats.TotalCredits),
		common.FormatAmount(txStats.TotalDebits),
		common.FormatAmount(txStats.NetBalance))

	last := "never"
	if t := dash.LastFetchTime(); !t.IsZero() {
		last = common.FormatDateTime(t)
	}
	common.PrintFooter(fmt.Sprintf("Last fetch: %s", last), common.DefaultWidth)
}
