package validation

import sheetqueue "github.com/ideamans/go-sheetqueue"

// EnqueueRequest is the payload for POST /queue
type EnqueueRequest struct {
	SheetKey  string   `json:"sheetKey" validate:"required,sheetkey"`             // destination category
	SheetName string   `json:"sheetName,omitempty" validate:"omitempty,max=100"` // defaults to the key's sheet
	RowData   []string `json:"rowData" validate:"required,max=200,dive,max=5000"` // ordered cell values
}

// ConnectivityRequest is the payload for PUT /connectivity
type ConnectivityRequest struct {
	Online *bool `json:"online" validate:"required"`
}

// QueueQuery holds the query string of GET /queue
type QueueQuery struct {
	Status   []string `form:"status" validate:"dive,oneof=pending syncing error"`
	SheetKey []string `form:"sheetKey" validate:"dive,sheetkey"`
	Limit    int      `form:"limit" validate:"min=0,max=1000"`
	Offset   int      `form:"offset" validate:"min=0"`
}

// Filter converts the query into a queue filter
func (q QueueQuery) Filter() sheetqueue.Filter {
	f := sheetqueue.Filter{Limit: q.Limit, Offset: q.Offset}
	for _, s := range q.Status {
		f.Statuses = append(f.Statuses, sheetqueue.Status(s))
	}
	for _, k := range q.SheetKey {
		f.SheetKeys = append(f.SheetKeys, sheetqueue.SheetKey(k))
	}
	return f
}
