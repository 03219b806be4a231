package sheetqueue

import (
	"fmt"
)

// Filter selects operations from the queue
type Filter struct {
	Statuses  []Status   // OR within the list; empty matches all
	SheetKeys []SheetKey // OR within the list; empty matches all
	Limit     int
	Offset    int
}

// Stats summarizes the queue by status
type Stats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Syncing int `json:"syncing"`
	Error   int `json:"error"`
}

// Matches checks if an operation satisfies every part of the filter
func (f Filter) Matches(op *PendingOperation) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if op.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.SheetKeys) > 0 {
		found := false
		for _, k := range f.SheetKeys {
			if op.SheetKey == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// ValidateFilter validates a filter
func ValidateFilter(f Filter) error {
	if f.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if f.Offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}

	for _, s := range f.Statuses {
		switch s {
		case StatusPending, StatusSyncing, StatusError:
		default:
			return fmt.Errorf("unsupported status: %q", s)
		}
	}

	for _, k := range f.SheetKeys {
		if !k.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownSheetKey, k)
		}
	}

	return nil
}

// ApplyFilter applies the filter to ops, keeping their order
func ApplyFilter(ops []PendingOperation, f Filter) []PendingOperation {
	filtered := make([]PendingOperation, 0, len(ops))
	for i := range ops {
		if f.Matches(&ops[i]) {
			filtered = append(filtered, ops[i])
		}
	}

	// Apply offset
	if f.Offset > 0 {
		if f.Offset >= len(filtered) {
			return []PendingOperation{}
		}
		filtered = filtered[f.Offset:]
	}

	// Apply limit
	if f.Limit > 0 && f.Limit < len(filtered) {
		filtered = filtered[:f.Limit]
	}

	return filtered
}

// CountStats counts ops by status
func CountStats(ops []PendingOperation) Stats {
	stats := Stats{Total: len(ops)}
	for _, op := range ops {
		switch op.Status {
		case StatusPending:
			stats.Pending++
		case StatusSyncing:
			stats.Syncing++
		case StatusError:
			stats.Error++
		}
	}
	return stats
}
