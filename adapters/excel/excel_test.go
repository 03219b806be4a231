package excel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/xuri/excelize/v2"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{
			name:   "valid config",
			config: &Config{FilePath: "test.xlsx"},
		},
		{
			name:    "missing file path",
			config:  &Config{},
			wantErr: ErrMissingFilePath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		if _, err := New(nil); err == nil {
			t.Error("New(nil) expected error")
		}
	})
}

func newTestAdapter(t *testing.T) (*Adapter, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "rows.xlsx")
	adapter, err := New(&Config{FilePath: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return adapter, path
}

func TestAdapter_Append(t *testing.T) {
	ctx := context.Background()
	adapter, path := newTestAdapter(t)

	rows := []sheetqueue.AppendRequest{
		{Action: sheetqueue.ActionAppend, SheetName: "Carga", RowData: []string{"10/01/2026", "08:00", "EX-01", "CB-01", "Argila", "3"}},
		{Action: sheetqueue.ActionAppend, SheetName: "Carga", RowData: []string{"10/01/2026", "08:20", "EX-02", "CB-04", "Areia", "2"}},
		{Action: sheetqueue.ActionAppend, SheetName: "Abastecimento", RowData: []string{"10/01/2026", "CT-07", "120,5"}},
	}
	for _, req := range rows {
		if err := adapter.Append(ctx, req); err != nil {
			t.Fatalf("Append(%s) error = %v", req.SheetName, err)
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("workbook not created: %v", err)
	}

	t.Run("rows land in order", func(t *testing.T) {
		got, err := adapter.Rows(ctx, "Carga")
		if err != nil {
			t.Fatalf("Rows() error = %v", err)
		}
		want := [][]string{rows[0].RowData, rows[1].RowData}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Rows() = %v, want %v", got, want)
		}
	})

	t.Run("second sheet is created", func(t *testing.T) {
		got, err := adapter.Rows(ctx, "Abastecimento")
		if err != nil {
			t.Fatalf("Rows() error = %v", err)
		}
		if len(got) != 1 || got[0][2] != "120,5" {
			t.Errorf("Rows() = %v", got)
		}
	})

	t.Run("no default sheet left behind", func(t *testing.T) {
		f, err := excelize.OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile() error = %v", err)
		}
		defer f.Close()

		if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"Carga", "Abastecimento"}) {
			t.Errorf("sheets = %v", got)
		}
	})

	t.Run("cells are strings", func(t *testing.T) {
		f, err := excelize.OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile() error = %v", err)
		}
		defer f.Close()

		typ, err := f.GetCellType("Carga", "F1")
		if err != nil {
			t.Fatalf("GetCellType() error = %v", err)
		}
		if typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset {
			t.Errorf("F1 type = %v, want a string cell", typ)
		}
	})
}

func TestAdapter_AppendKeepsExistingSheets(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "existing.xlsx")

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "keep me")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	f.Close()

	adapter, _ := New(&Config{FilePath: path})
	if err := adapter.Append(ctx, sheetqueue.AppendRequest{SheetName: "Pipa", RowData: []string{"1"}}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	kept, err := adapter.Rows(ctx, "Sheet1")
	if err != nil {
		t.Fatalf("Rows(Sheet1) error = %v", err)
	}
	if len(kept) != 1 || kept[0][0] != "keep me" {
		t.Errorf("Sheet1 = %v, want untouched", kept)
	}
}

func TestAdapter_AppendErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing sheet name", func(t *testing.T) {
		adapter, _ := newTestAdapter(t)
		err := adapter.Append(ctx, sheetqueue.AppendRequest{RowData: []string{"1"}})
		if !errors.Is(err, ErrMissingSheetName) {
			t.Errorf("Append() error = %v, want %v", err, ErrMissingSheetName)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		adapter, path := newTestAdapter(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		if err := adapter.Append(cancelled, sheetqueue.AppendRequest{SheetName: "Carga"}); !errors.Is(err, context.Canceled) {
			t.Errorf("Append() error = %v, want %v", err, context.Canceled)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("workbook should not be created")
		}
	})

	t.Run("not a workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.xlsx")
		os.WriteFile(path, []byte("plain text"), 0644)

		adapter, _ := New(&Config{FilePath: path})
		err := adapter.Append(ctx, sheetqueue.AppendRequest{SheetName: "Carga"})
		if !errors.Is(err, ErrInvalidFileFormat) {
			t.Errorf("Append() error = %v, want %v", err, ErrInvalidFileFormat)
		}
	})

	t.Run("rows of unknown sheet", func(t *testing.T) {
		adapter, _ := newTestAdapter(t)
		if _, err := adapter.Rows(ctx, "Carga"); !errors.Is(err, ErrSheetNotFound) {
			t.Errorf("Rows() before any append error = %v, want %v", err, ErrSheetNotFound)
		}

		adapter.Append(ctx, sheetqueue.AppendRequest{SheetName: "Carga", RowData: []string{"1"}})
		if _, err := adapter.Rows(ctx, "Pipa"); !errors.Is(err, ErrSheetNotFound) {
			t.Errorf("Rows() error = %v, want %v", err, ErrSheetNotFound)
		}
	})
}

func TestAdapter_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newTestAdapter(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := sheetqueue.AppendRequest{SheetName: "Horimetros", RowData: []string{fmt.Sprintf("row-%d", i)}}
			if err := adapter.Append(ctx, req); err != nil {
				t.Errorf("Append() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	rows, err := adapter.Rows(ctx, "Horimetros")
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != 10 {
		t.Errorf("rows = %d, want 10", len(rows))
	}
}

func TestWriteReport(t *testing.T) {
	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	ops := []sheetqueue.PendingOperation{
		{
			ID:         "1736496000000-abc123def",
			SheetKey:   sheetqueue.SheetCarga,
			SheetName:  "Carga",
			RowData:    []string{"10/01/2026", "EX-01"},
			CreatedAt:  created,
			Status:     sheetqueue.StatusError,
			Error:      "network error",
			RetryCount: 2,
		},
		{
			ID:        "1736496000001-0fedcba98",
			SheetKey:  sheetqueue.SheetPipa,
			SheetName: "Pipa",
			RowData:   []string{},
			CreatedAt: created,
			Status:    sheetqueue.StatusPending,
		},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, ops); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{ReportSheet}) {
		t.Errorf("sheets = %v, want [%s]", got, ReportSheet)
	}

	rows, err := f.GetRows(ReportSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][7] != "Row Data" {
		t.Errorf("header = %v", rows[0])
	}

	want := []string{"1736496000000-abc123def", "carga", "Carga", "error", "2", "network error", "2026-01-10T08:00:00Z", "10/01/2026 | EX-01"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("row 2 = %v, want %v", rows[1], want)
	}
	if rows[2][3] != "pending" {
		t.Errorf("row 3 status = %s, want pending", rows[2][3])
	}

	t.Run("empty queue", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, nil); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
		f, err := excelize.OpenReader(&buf)
		if err != nil {
			t.Fatalf("OpenReader() error = %v", err)
		}
		defer f.Close()

		rows, _ := f.GetRows(ReportSheet)
		if len(rows) != 1 {
			t.Errorf("rows = %d, want header only", len(rows))
		}
	})
}
