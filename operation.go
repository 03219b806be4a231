package sheetqueue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a pending operation
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
	// StatusSynced is never persisted: a synced operation is removed at once.
	StatusSynced Status = "synced"
)

// SheetKey identifies the logical destination category of a row
type SheetKey string

const (
	SheetCarga         SheetKey = "carga"
	SheetDescarga      SheetKey = "descarga"
	SheetAbastecimento SheetKey = "abastecimento"
	SheetHorimetros    SheetKey = "horimetros"
	SheetManutencao    SheetKey = "manutencao"
	SheetPipa          SheetKey = "pipa"
)

// sheetNames maps every known key to its canonical destination name
var sheetNames = map[SheetKey]string{
	SheetCarga:         "Carga",
	SheetDescarga:      "Descarga",
	SheetAbastecimento: "Abastecimento",
	SheetHorimetros:    "Horimetros",
	SheetManutencao:    "Manutencao",
	SheetPipa:          "Pipa",
}

// SheetKeys returns all known sheet keys in a stable order
func SheetKeys() []SheetKey {
	return []SheetKey{
		SheetCarga,
		SheetDescarga,
		SheetAbastecimento,
		SheetHorimetros,
		SheetManutencao,
		SheetPipa,
	}
}

// ParseSheetKey validates s against the closed set of sheet keys
func ParseSheetKey(s string) (SheetKey, error) {
	key := SheetKey(strings.TrimSpace(s))
	if _, ok := sheetNames[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSheetKey, s)
	}
	return key, nil
}

// Valid reports whether k is a known sheet key
func (k SheetKey) Valid() bool {
	_, ok := sheetNames[k]
	return ok
}

// SheetName returns the canonical destination name for k
func (k SheetKey) SheetName() string {
	return sheetNames[k]
}

// PendingOperation is a queued append destined for a spreadsheet
type PendingOperation struct {
	ID         string    `json:"id"`
	SheetKey   SheetKey  `json:"sheetKey"`
	SheetName  string    `json:"sheetName"`
	RowData    []string  `json:"rowData"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	RetryCount int       `json:"retryCount"`
}

// AppendRequest is the payload sent to a remote appender
type AppendRequest struct {
	Action    string   `json:"action"`
	SheetName string   `json:"sheetName"`
	RowData   []string `json:"rowData"`
}

// ActionAppend is the only action the queue issues
const ActionAppend = "append"

// AppendRequest builds the remote call payload for the operation
func (op *PendingOperation) AppendRequest() AppendRequest {
	row := make([]string, len(op.RowData))
	copy(row, op.RowData)
	return AppendRequest{
		Action:    ActionAppend,
		SheetName: op.SheetName,
		RowData:   row,
	}
}

// Eligible reports whether sync-all should pick the operation
func (op *PendingOperation) Eligible() bool {
	return op.Status == StatusPending || op.Status == StatusError
}

// clone creates a deep copy of the operation
func (op *PendingOperation) clone() PendingOperation {
	c := *op
	if op.RowData != nil {
		c.RowData = make([]string, len(op.RowData))
		copy(c.RowData, op.RowData)
	}
	return c
}

// newID builds a "<unix millis>-<random suffix>" identifier
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}
