package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/ideamans/go-sheetqueue/adapters/googlesheets"
	"github.com/ideamans/go-sheetqueue/stores/file"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	// Create appender configuration
	appenderConfig := googlesheets.Config{
		SpreadsheetID: "your-spreadsheet-id",
	}

	// Initialize Google Sheets appender with JSON key file
	appender, err := googlesheets.NewWithJSONKeyFile(ctx, appenderConfig, "./service-account.json")
	if err != nil {
		return fmt.Errorf("failed to create appender: %w", err)
	}

	// Keep the queue in ./data so it survives restarts
	store, err := file.New("./data")
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	// Start offline; rows wait in the queue until connectivity returns
	monitor := sheetqueue.NewMonitor(false)

	clientConfig := sheetqueue.DefaultConfig()
	// Optionally customize:
	// clientConfig.AutoSyncDelay = 5 * time.Second

	client := sheetqueue.New(store, appender, monitor, clientConfig)
	if err = client.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	defer client.Close()

	unsubscribe := client.Subscribe(func(s sheetqueue.Snapshot) {
		fmt.Printf("  queue: %d item(s), online=%v, syncing=%v\n", len(s.Items), s.Online, s.Syncing)
	})
	defer unsubscribe()

	// Queue a haul record and a fuel record
	today := time.Now().Format("02/01/2006")
	id, err := client.AddPendingAppend(ctx, sheetqueue.SheetCarga, "", []string{today, "08:00", "EX-01", "CB-01", "Argila", "3"})
	if err != nil {
		return fmt.Errorf("failed to queue row: %w", err)
	}
	fmt.Printf("Queued %s\n", id)

	if _, err := client.AddPendingAppend(ctx, sheetqueue.SheetAbastecimento, "", []string{today, "CT-07", "120,5"}); err != nil {
		return fmt.Errorf("failed to queue row: %w", err)
	}

	// Coming online arms the delayed sync-all
	fmt.Println("Going online...")
	monitor.SetOnline(true)
	time.Sleep(clientConfig.AutoSyncDelay + time.Second)

	stats := client.Stats()
	fmt.Printf("Remaining: %d pending, %d failed\n", stats.Pending, stats.Error)

	failed, err := client.Query(sheetqueue.Filter{Statuses: []sheetqueue.Status{sheetqueue.StatusError}})
	if err != nil {
		return fmt.Errorf("failed to query: %w", err)
	}
	for _, op := range failed {
		fmt.Fprintf(os.Stderr, "  %s -> %s failed %d time(s): %s\n", op.ID, op.SheetName, op.RetryCount, op.Error)
	}

	return nil
}
