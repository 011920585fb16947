package core

import (
	"strings"
	"time"
)

// PlaceholderDescription is substituted for records that come back from
// storage without a description.
const PlaceholderDescription = "Unbekannt"

// Record is a budget item as read back from storage, before normalization.
// Fields mirror the persisted document and may be missing: older records were
// written by clients that did not enforce today's schema. Pointer fields are
// nil when the stored value was absent or not of the expected type.
type Record struct {
	ID            string
	Description   string
	Category      string
	EstimatedCost *int64 // cents
	ActualCost    *int64 // cents
	Status        string
	CreatedAt     *time.Time
	ModifiedAt    *time.Time
	PaidDate      *time.Time
	DueDate       *time.Time
	Notes         string
}

// Normalize converts a raw stored record into a strict BudgetItem, applied
// uniformly at the storage boundary so defaulting never leaks into rendering:
// a missing description becomes PlaceholderDescription, a missing estimated
// cost becomes zero, an absent actual cost stays absent, an unknown status
// becomes planned, and a missing creation timestamp falls back to now.
func Normalize(r Record) BudgetItem {
	item := BudgetItem{
		ID:          r.ID,
		Description: r.Description,
		Category:    r.Category,
		Status:      Status(r.Status),
		Notes:       r.Notes,
		PaidDate:    r.PaidDate,
		DueDate:     r.DueDate,
	}
	if strings.TrimSpace(item.Description) == "" {
		item.Description = PlaceholderDescription
	}
	if r.EstimatedCost != nil && *r.EstimatedCost >= 0 {
		item.EstimatedCost = Money{Cents: *r.EstimatedCost}
	}
	if r.ActualCost != nil && *r.ActualCost >= 0 {
		c := Money{Cents: *r.ActualCost}
		item.ActualCost = &c
	}
	if !item.Status.Valid() {
		item.Status = StatusPlanned
	}
	if r.CreatedAt != nil {
		item.CreatedAt = *r.CreatedAt
	} else {
		item.CreatedAt = time.Now()
	}
	if r.ModifiedAt != nil {
		item.ModifiedAt = *r.ModifiedAt
	} else {
		item.ModifiedAt = item.CreatedAt
	}
	return item
}

// NormalizeAll normalizes a full snapshot in place-order.
func NormalizeAll(records []Record) []BudgetItem {
	items := make([]BudgetItem, len(records))
	for i, r := range records {
		items[i] = Normalize(r)
	}
	return items
}
