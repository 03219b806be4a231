package common

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/ideamans/go-sheetqueue/adapters/googlesheets"
	"github.com/ideamans/go-sheetqueue/internal/envutil"
)

// RowReader reads back what an appender delivered
type RowReader interface {
	Rows(ctx context.Context, sheetName string) ([][]string, error)
}

// AppenderTestCase represents a test case for an appender
type AppenderTestCase struct {
	Name        string
	Appender    sheetqueue.Appender
	Reader      RowReader
	Description string
}

// LoadEnv loads the repository .env (if present) and fixes escaped private keys
func LoadEnv(path string) {
	envutil.LoadDotEnv(path)

	// In CI, the private key might have literal \n instead of actual newlines
	if key := os.Getenv("TEST_CLIENT_PRIVATE_KEY"); !strings.Contains(key, "\n") && strings.Contains(key, "\\n") {
		os.Setenv("TEST_CLIENT_PRIVATE_KEY", strings.ReplaceAll(key, "\\n", "\n"))
	}
}

// GoogleSheetsAppenders returns the Google Sheets appenders the environment can authenticate
func GoogleSheetsAppenders(t *testing.T, credentialsBase string) []AppenderTestCase {
	t.Helper()

	spreadsheetID := os.Getenv("TEST_GOOGLE_SHEET_ID")
	if spreadsheetID == "" {
		t.Log("Skipping Google Sheets tests: TEST_GOOGLE_SHEET_ID not set")
		return nil
	}

	ctx := context.Background()
	config := googlesheets.Config{SpreadsheetID: spreadsheetID}
	var cases []AppenderTestCase

	if jsonPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); jsonPath != "" {
		if !filepath.IsAbs(jsonPath) {
			jsonPath = filepath.Join(credentialsBase, jsonPath)
		}
		appender, err := googlesheets.NewWithJSONKeyFile(ctx, config, jsonPath)
		if err != nil {
			t.Logf("Failed to create Google Sheets appender with JSON auth: %v", err)
		} else {
			cases = append(cases, AppenderTestCase{
				Name:        "GoogleSheets-JSON",
				Appender:    appender,
				Reader:      appender,
				Description: "Google Sheets with JSON file auth",
			})
		}
	}

	email, privateKey := os.Getenv("TEST_CLIENT_EMAIL"), os.Getenv("TEST_CLIENT_PRIVATE_KEY")
	if email != "" && privateKey != "" {
		appender, err := googlesheets.NewWithServiceAccountKey(ctx, config, email, privateKey)
		if err != nil {
			t.Logf("Failed to create Google Sheets appender with email/key auth: %v", err)
		} else {
			cases = append(cases, AppenderTestCase{
				Name:        "GoogleSheets-EmailKey",
				Appender:    appender,
				Reader:      appender,
				Description: "Google Sheets with email/key auth",
			})
		}
	}

	return cases
}

// CreateTestClient creates an initialized queue client over a memory store
func CreateTestClient(t *testing.T, appender sheetqueue.Appender, monitor *sheetqueue.Monitor, autoSync time.Duration) *sheetqueue.Client {
	t.Helper()

	clientConfig := &sheetqueue.Config{
		AutoSyncDelay: autoSync,
		AppendTimeout: 30 * time.Second,
		MaxRetries:    3,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	client := sheetqueue.New(sheetqueue.NewMemoryStore(), appender, monitor, clientConfig)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize client: %v", err)
	}
	return client
}

// CleanupClient properly closes the client
func CleanupClient(t *testing.T, client *sheetqueue.Client) {
	t.Helper()
	if err := client.Close(); err != nil {
		t.Errorf("Failed to close client: %v", err)
	}
}

// WaitFor polls cond until it holds or timeout elapses
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
