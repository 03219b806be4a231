package integration

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/ideamans/go-sheetqueue/adapters/excel"
	"github.com/ideamans/go-sheetqueue/tests/common"
)

// preparer is implemented by destinations that need tabs set up before a run
type preparer interface {
	EnsureSheets(ctx context.Context, names ...string) error
	Clear(ctx context.Context, sheetName string) error
}

var testSheets = []string{"it_offline", "it_failure", "it_auto", "it_batch"}

// getTestAppenders returns all appenders to test
func getTestAppenders(t *testing.T) []common.AppenderTestCase {
	common.LoadEnv(filepath.Join("..", "..", ".env"))

	// Always test Excel appender
	excelFile := filepath.Join(t.TempDir(), "integration_test.xlsx")
	excelAppender, err := excel.New(&excel.Config{FilePath: excelFile})
	if err != nil {
		t.Fatalf("Failed to create Excel appender: %v", err)
	}

	appenders := []common.AppenderTestCase{{
		Name:        "Excel",
		Appender:    excelAppender,
		Reader:      excelAppender,
		Description: fmt.Sprintf("Excel file: %s", excelFile),
	}}
	return append(appenders, common.GoogleSheetsAppenders(t, filepath.Join("..", ".."))...)
}

func TestQueueIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range getTestAppenders(t) {
		t.Run(tc.Name, func(t *testing.T) {
			t.Logf("Testing with %s", tc.Description)

			if p, ok := tc.Appender.(preparer); ok {
				ctx := context.Background()
				if err := p.EnsureSheets(ctx, testSheets...); err != nil {
					t.Fatalf("EnsureSheets() error = %v", err)
				}
				for _, name := range testSheets {
					if err := p.Clear(ctx, name); err != nil {
						t.Fatalf("Clear(%s) error = %v", name, err)
					}
				}
			}

			t.Run("OfflineThenSync", func(t *testing.T) {
				testOfflineThenSync(t, tc)
			})

			t.Run("FailurePreserved", func(t *testing.T) {
				testFailurePreserved(t, tc)
			})

			t.Run("AutoSyncOnReconnect", func(t *testing.T) {
				testAutoSyncOnReconnect(t, tc)
			})

			t.Run("LargeBatch", func(t *testing.T) {
				testLargeBatch(t, tc)
			})
		})
	}
}

// testOfflineThenSync queues rows offline and delivers them in order once online
func testOfflineThenSync(t *testing.T, tc common.AppenderTestCase) {
	ctx := context.Background()
	monitor := sheetqueue.NewMonitor(false)
	client := common.CreateTestClient(t, tc.Appender, monitor, -1)
	defer common.CleanupClient(t, client)

	want := [][]string{
		{"10/01/2026", "08:00", "EX-01", "CB-01", "Argila", "3"},
		{"10/01/2026", "08:20", "EX-02", "CB-04", "Areia", "2"},
		{"10/01/2026", "08:45", "EX-01", "CB-07", "Argila", "4"},
	}
	for _, row := range want {
		if _, err := client.AddPendingAppend(ctx, sheetqueue.SheetCarga, "it_offline", row); err != nil {
			t.Fatalf("AddPendingAppend() error = %v", err)
		}
	}

	// Nothing leaves the queue while offline
	if err := client.SyncAll(ctx); err != nil {
		t.Fatalf("SyncAll() offline error = %v", err)
	}
	if got := client.Stats().Pending; got != 3 {
		t.Fatalf("pending while offline = %d, want 3", got)
	}

	monitor.SetOnline(true)
	if err := client.SyncAll(ctx); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if got := client.Stats().Total; got != 0 {
		t.Errorf("queue after sync = %d, want 0", got)
	}

	rows, err := tc.Reader.Rows(ctx, "it_offline")
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Rows() = %v, want %v", rows, want)
	}
}

// testFailurePreserved keeps a failed row queued until a retry succeeds
func testFailurePreserved(t *testing.T, tc common.AppenderTestCase) {
	ctx := context.Background()

	var mu sync.Mutex
	failures := 1
	flaky := sheetqueue.AppenderFunc(func(ctx context.Context, req sheetqueue.AppendRequest) error {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return errors.New("network error")
		}
		return tc.Appender.Append(ctx, req)
	})

	client := common.CreateTestClient(t, flaky, sheetqueue.NewMonitor(true), -1)
	defer common.CleanupClient(t, client)

	id, err := client.AddPendingAppend(ctx, sheetqueue.SheetAbastecimento, "it_failure", []string{"10/01/2026", "CT-07", "120,5"})
	if err != nil {
		t.Fatalf("AddPendingAppend() error = %v", err)
	}

	if err := client.SyncItem(ctx, id); err == nil {
		t.Fatal("first SyncItem() expected error")
	}
	items := client.Items()
	if len(items) != 1 || items[0].Status != sheetqueue.StatusError || items[0].Error != "network error" || items[0].RetryCount != 1 {
		t.Fatalf("items after failure = %+v", items)
	}

	if err := client.SyncItem(ctx, id); err != nil {
		t.Fatalf("second SyncItem() error = %v", err)
	}
	if got := client.Stats().Total; got != 0 {
		t.Errorf("queue after retry = %d, want 0", got)
	}

	rows, err := tc.Reader.Rows(ctx, "it_failure")
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %v, want exactly one delivery", rows)
	}
}

// testAutoSyncOnReconnect relies on the delayed trigger alone
func testAutoSyncOnReconnect(t *testing.T, tc common.AppenderTestCase) {
	ctx := context.Background()
	monitor := sheetqueue.NewMonitor(false)
	client := common.CreateTestClient(t, tc.Appender, monitor, 50*time.Millisecond)
	defer common.CleanupClient(t, client)

	if _, err := client.AddPendingAppend(ctx, sheetqueue.SheetHorimetros, "it_auto", []string{"EX-01", "1520"}); err != nil {
		t.Fatalf("AddPendingAppend() error = %v", err)
	}
	monitor.SetOnline(true)

	common.WaitFor(t, 30*time.Second, func() bool { return client.Stats().Total == 0 && !client.IsSyncing() })

	rows, err := tc.Reader.Rows(ctx, "it_auto")
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"EX-01", "1520"}}) {
		t.Errorf("Rows() = %v", rows)
	}
}

// testLargeBatch delivers many rows in queue order
func testLargeBatch(t *testing.T, tc common.AppenderTestCase) {
	ctx := context.Background()
	monitor := sheetqueue.NewMonitor(false)
	client := common.CreateTestClient(t, tc.Appender, monitor, -1)
	defer common.CleanupClient(t, client)

	const count = 25
	for i := 0; i < count; i++ {
		row := []string{fmt.Sprintf("row-%02d", i), fmt.Sprintf("%d", i*10)}
		if _, err := client.AddPendingAppend(ctx, sheetqueue.SheetPipa, "it_batch", row); err != nil {
			t.Fatalf("AddPendingAppend() error = %v", err)
		}
	}

	start := time.Now()
	monitor.SetOnline(true)
	if err := client.SyncAll(ctx); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	t.Logf("Delivered %d rows in %v", count, time.Since(start))

	rows, err := tc.Reader.Rows(ctx, "it_batch")
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != count {
		t.Fatalf("rows = %d, want %d", len(rows), count)
	}
	for i, row := range rows {
		if row[0] != fmt.Sprintf("row-%02d", i) {
			t.Errorf("row %d = %v, out of order", i, row)
			break
		}
	}
}
