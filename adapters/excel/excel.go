package excel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/xuri/excelize/v2"
)

// Adapter appends queued rows to sheets of a local workbook, for sites that
// collect data offline and ship the file instead of calling a remote API
type Adapter struct {
	config Config
	mu     sync.Mutex
}

var _ sheetqueue.Appender = (*Adapter)(nil)

// New creates a new Excel adapter with the given configuration
func New(config *Config) (*Adapter, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Adapter{
		config: *config,
	}, nil
}

// Append writes req.RowData after the last row of req.SheetName, creating
// the workbook and the sheet when they do not exist yet
func (a *Adapter) Append(ctx context.Context, req sheetqueue.AppendRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if req.SheetName == "" {
		return ErrMissingSheetName
	}

	f, created, err := a.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ensureSheet(f, req.SheetName, created); err != nil {
		return err
	}

	rows, err := f.GetRows(req.SheetName)
	if err != nil {
		return fmt.Errorf("failed to get rows: %w", err)
	}

	// Cells stay strings; the queue never interprets them
	values := make([]interface{}, len(req.RowData))
	for i, cell := range req.RowData {
		values[i] = cell
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(req.SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %s: %w", cell, err)
	}

	if err := f.SaveAs(a.config.FilePath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// Rows returns every row of sheetName as written
func (a *Adapter) Rows(ctx context.Context, sheetName string) ([][]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(a.config.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSheetNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFileFormat, err)
	}
	defer f.Close()

	index, err := f.GetSheetIndex(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet index: %w", err)
	}
	if index == -1 {
		return nil, ErrSheetNotFound
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// open returns the workbook, creating a new one when the file is missing
func (a *Adapter) open() (*excelize.File, bool, error) {
	if _, err := os.Stat(a.config.FilePath); errors.Is(err, os.ErrNotExist) {
		dir := filepath.Dir(a.config.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, false, fmt.Errorf("failed to create directory: %w", err)
		}
		return excelize.NewFile(), true, nil
	}

	f, err := excelize.OpenFile(a.config.FilePath)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidFileFormat, err)
	}
	return f, false, nil
}

// ensureSheet adds the sheet when missing. A fresh workbook renames its
// default sheet instead so no empty Sheet1 is left behind.
func ensureSheet(f *excelize.File, name string, created bool) error {
	index, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("failed to get sheet index: %w", err)
	}
	if index != -1 {
		return nil
	}

	if created {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
		return nil
	}

	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	return nil
}
