package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsAppender appends queued rows to tabs of one spreadsheet through the Sheets API
type SheetsAppender struct {
	service          *sheets.Service
	spreadsheetID    string
	valueInputOption string
}

var _ sheetqueue.Appender = (*SheetsAppender)(nil)

// NewSheetsAppender creates a new Google Sheets appender with provided options
func NewSheetsAppender(ctx context.Context, config Config, opts ...option.ClientOption) (*SheetsAppender, error) {
	if config.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	input := config.ValueInputOption
	if input == "" {
		input = InputUserEntered
	}
	if input != InputUserEntered && input != InputRaw {
		return nil, fmt.Errorf("unsupported value input option: %s", input)
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsAppender{
		service:          service,
		spreadsheetID:    config.SpreadsheetID,
		valueInputOption: input,
	}, nil
}

// Append writes req.RowData as a new row after the last row of req.SheetName
func (a *SheetsAppender) Append(ctx context.Context, req sheetqueue.AppendRequest) error {
	if req.SheetName == "" {
		return errors.New("sheet name is required")
	}

	row := make([]interface{}, len(req.RowData))
	for i, cell := range req.RowData {
		row[i] = cell
	}
	vr := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := a.service.Spreadsheets.Values.Append(a.spreadsheetID, appendRange(req.SheetName), vr).
		ValueInputOption(a.valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", req.SheetName, describe(err))
	}
	return nil
}

// SheetTitles lists the tabs of the spreadsheet
func (a *SheetsAppender) SheetTitles(ctx context.Context) ([]string, error) {
	resp, err := a.service.Spreadsheets.Get(a.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", describe(err))
	}

	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

// EnsureSheets adds any of names missing from the spreadsheet as empty tabs
func (a *SheetsAppender) EnsureSheets(ctx context.Context, names ...string) error {
	existing, err := a.SheetTitles(ctx)
	if err != nil {
		return err
	}

	have := make(map[string]bool, len(existing))
	for _, title := range existing {
		have[title] = true
	}

	var requests []*sheets.Request
	for _, name := range names {
		if have[name] {
			continue
		}
		have[name] = true
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	_, err = a.service.Spreadsheets.BatchUpdate(a.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add sheets: %w", describe(err))
	}
	return nil
}

// Rows reads every row of sheetName as strings
func (a *SheetsAppender) Rows(ctx context.Context, sheetName string) ([][]string, error) {
	resp, err := a.service.Spreadsheets.Values.Get(a.spreadsheetID, quoteSheet(sheetName)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheetName, describe(err))
	}

	rows := make([][]string, len(resp.Values))
	for i, values := range resp.Values {
		rows[i] = make([]string, len(values))
		for j, v := range values {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	return rows, nil
}

// Clear removes every value from sheetName, keeping the tab
func (a *SheetsAppender) Clear(ctx context.Context, sheetName string) error {
	_, err := a.service.Spreadsheets.Values.Clear(a.spreadsheetID, quoteSheet(sheetName), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", sheetName, describe(err))
	}
	return nil
}

// quoteSheet quotes names that A1 notation would otherwise misread
func quoteSheet(sheetName string) string {
	if strings.ContainsAny(sheetName, " '!:") {
		return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'"
	}
	return sheetName
}

func appendRange(sheetName string) string {
	return quoteSheet(sheetName) + "!A1"
}

// describe keeps the API message readable in the queue's error field
func describe(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%w: %s (http %d)", sheetqueue.ErrAppendRejected, apiErr.Message, apiErr.Code)
	}
	return err
}
