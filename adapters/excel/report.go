package excel

import (
	"fmt"
	"io"
	"strings"
	"time"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/xuri/excelize/v2"
)

// ReportSheet is the sheet name used by WriteReport
const ReportSheet = "Pending"

var reportHeader = []interface{}{"ID", "Sheet Key", "Sheet Name", "Status", "Retries", "Error", "Created At", "Row Data"}

// WriteReport renders ops as an xlsx workbook with one row per operation
func WriteReport(w io.Writer, ops []sheetqueue.PendingOperation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ReportSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := f.SetSheetRow(ReportSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(reportHeader), 1)
	if err := f.SetCellStyle(ReportSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, op := range ops {
		row := []interface{}{
			op.ID,
			string(op.SheetKey),
			op.SheetName,
			string(op.Status),
			op.RetryCount,
			op.Error,
			op.CreatedAt.UTC().Format(time.RFC3339),
			strings.Join(op.RowData, " | "),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ReportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %s: %w", cell, err)
		}
	}

	if err := f.SetColWidth(ReportSheet, "A", "A", 26); err != nil {
		return err
	}
	if err := f.SetColWidth(ReportSheet, "F", "H", 40); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
