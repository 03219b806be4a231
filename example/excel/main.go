package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/ideamans/go-sheetqueue/adapters/excel"
	"github.com/ideamans/go-sheetqueue/stores/sqlite"
)

func main() {
	ctx := context.Background()

	// Excel appender configuration (no authentication required)
	appender, err := excel.New(&excel.Config{FilePath: "./example_rows.xlsx"})
	if err != nil {
		log.Fatalf("Failed to create Excel appender: %v", err)
	}

	// SQLite keeps the queue across restarts
	store, err := sqlite.Open("./data/queue.db")
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	monitor := sheetqueue.NewMonitor(false)
	client := sheetqueue.New(store, appender, monitor, &sheetqueue.Config{AutoSyncDelay: -1})

	// Initialize client (loads rows queued by earlier runs)
	if err := client.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing client: %v", err)
		}
	}()
	fmt.Printf("Loaded %d queued row(s) from earlier runs\n", client.Stats().Total)

	// 1. Queue rows while offline
	fmt.Println("Queueing rows...")
	now := time.Now()
	rows := []struct {
		key sheetqueue.SheetKey
		row *sheetqueue.Row
	}{
		{sheetqueue.SheetCarga, sheetqueue.NewRow().Date(now).Time(now).Text("EX-01").Text("CB-01").Text("Argila").Int(3)},
		{sheetqueue.SheetDescarga, sheetqueue.NewRow().Date(now).Time(now).Text("CB-01").Text("Pilha 2")},
		{sheetqueue.SheetHorimetros, sheetqueue.NewRow().Date(now).Text("EX-01").Float(1520.5)},
		{sheetqueue.SheetPipa, sheetqueue.NewRow().Date(now).Text("CT-07").Int(12000).Bool(true)},
	}
	for _, r := range rows {
		id, err := client.AddPendingAppend(ctx, r.key, "", r.row.Cells())
		if err != nil {
			log.Printf("Failed to queue row: %v", err)
			continue
		}
		fmt.Printf("Queued %s for %s\n", id, r.key.SheetName())
	}

	// 2. Export what is waiting
	fmt.Println("\nExporting pending rows to pending_report.xlsx...")
	report, err := os.Create("./pending_report.xlsx")
	if err != nil {
		log.Fatalf("Failed to create report: %v", err)
	}
	if err := excel.WriteReport(report, client.Items()); err != nil {
		log.Printf("Failed to write report: %v", err)
	}
	report.Close()

	// 3. Come online and deliver
	fmt.Println("\nSyncing...")
	monitor.SetOnline(true)
	if err := client.SyncAll(ctx); err != nil {
		log.Printf("Sync failed: %v", err)
	}
	stats := client.Stats()
	fmt.Printf("Remaining: %d pending, %d failed\n", stats.Pending, stats.Error)

	// 4. Read back what landed in the workbook
	fmt.Println("\nCarga rows in example_rows.xlsx:")
	delivered, err := appender.Rows(ctx, sheetqueue.SheetCarga.SheetName())
	if err != nil {
		log.Printf("Failed to read rows: %v", err)
		return
	}
	for i, row := range delivered {
		fmt.Printf("  %d: %v\n", i+1, row)
	}
}
