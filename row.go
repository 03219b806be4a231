package sheetqueue

import (
	"strconv"
	"strings"
	"time"
)

// Date and time layouts used by the destination sheets
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// Row builds rowData cells in destination column order.
// The queue treats rows as opaque; Row only helps callers format them.
type Row struct {
	cells []string
}

// NewRow starts an empty row
func NewRow() *Row {
	return &Row{cells: []string{}}
}

// Text appends a trimmed string cell
func (r *Row) Text(s string) *Row {
	r.cells = append(r.cells, strings.TrimSpace(s))
	return r
}

// Date appends t formatted as DD/MM/YYYY; the zero time is an empty cell
func (r *Row) Date(t time.Time) *Row {
	if t.IsZero() {
		return r.Text("")
	}
	return r.Text(t.Format(DateLayout))
}

// Time appends t formatted as HH:MM; the zero time is an empty cell
func (r *Row) Time(t time.Time) *Row {
	if t.IsZero() {
		return r.Text("")
	}
	return r.Text(t.Format(TimeLayout))
}

// Int appends a decimal integer cell
func (r *Row) Int(v int64) *Row {
	return r.Text(strconv.FormatInt(v, 10))
}

// Float appends v using the fewest digits that represent it exactly
func (r *Row) Float(v float64) *Row {
	return r.Text(strconv.FormatFloat(v, 'f', -1, 64))
}

// Bool appends TRUE or FALSE, the spelling spreadsheets expect
func (r *Row) Bool(v bool) *Row {
	if v {
		return r.Text("TRUE")
	}
	return r.Text("FALSE")
}

// Strings appends a comma-separated list cell
func (r *Row) Strings(values []string) *Row {
	return r.Text(strings.Join(values, ","))
}

// Len returns the number of cells
func (r *Row) Len() int {
	return len(r.cells)
}

// Cells returns a copy of the row
func (r *Row) Cells() []string {
	out := make([]string, len(r.cells))
	copy(out, r.cells)
	return out
}
