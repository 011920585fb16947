package core

import (
	"testing"
	"time"
)

func cents(v int64) *int64 { return &v }

func TestNormalize(t *testing.T) {
	created := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)

	t.Run("well-formed record passes through", func(t *testing.T) {
		got := Normalize(Record{
			ID:            "abc",
			Description:   "Venue",
			Category:      "Location",
			EstimatedCost: cents(100000),
			ActualCost:    cents(95000),
			Status:        "booked",
			CreatedAt:     &created,
			Notes:         "deposit due in May",
		})
		if got.ID != "abc" || got.Description != "Venue" || got.Category != "Location" {
			t.Errorf("unexpected identity fields: %+v", got)
		}
		if got.EstimatedCost.Cents != 100000 {
			t.Errorf("EstimatedCost = %d, want 100000", got.EstimatedCost.Cents)
		}
		if got.ActualCost == nil || got.ActualCost.Cents != 95000 {
			t.Errorf("ActualCost = %v, want 95000", got.ActualCost)
		}
		if got.Status != StatusBooked {
			t.Errorf("Status = %q, want booked", got.Status)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
		}
	})

	t.Run("missing description gets placeholder", func(t *testing.T) {
		got := Normalize(Record{ID: "x", Status: "planned", CreatedAt: &created})
		if got.Description != PlaceholderDescription {
			t.Errorf("Description = %q, want %q", got.Description, PlaceholderDescription)
		}
	})

	t.Run("missing estimated cost defaults to zero", func(t *testing.T) {
		got := Normalize(Record{ID: "x", Description: "d", Status: "planned", CreatedAt: &created})
		if got.EstimatedCost.Cents != 0 {
			t.Errorf("EstimatedCost = %d, want 0", got.EstimatedCost.Cents)
		}
	})

	t.Run("absent actual cost stays absent", func(t *testing.T) {
		got := Normalize(Record{ID: "x", Description: "d", Status: "planned", CreatedAt: &created})
		if got.ActualCost != nil {
			t.Errorf("ActualCost = %v, want nil", got.ActualCost)
		}
	})

	t.Run("negative stored cost treated as missing", func(t *testing.T) {
		got := Normalize(Record{ID: "x", Description: "d", EstimatedCost: cents(-5), ActualCost: cents(-1), Status: "planned", CreatedAt: &created})
		if got.EstimatedCost.Cents != 0 {
			t.Errorf("EstimatedCost = %d, want 0", got.EstimatedCost.Cents)
		}
		if got.ActualCost != nil {
			t.Errorf("ActualCost = %v, want nil", got.ActualCost)
		}
	})

	t.Run("unknown status defaults to planned", func(t *testing.T) {
		for _, status := range []string{"", "archived"} {
			got := Normalize(Record{ID: "x", Description: "d", Status: status, CreatedAt: &created})
			if got.Status != StatusPlanned {
				t.Errorf("Status(%q) = %q, want planned", status, got.Status)
			}
		}
	})

	t.Run("missing created timestamp falls back to now", func(t *testing.T) {
		before := time.Now()
		got := Normalize(Record{ID: "x", Description: "d", Status: "planned"})
		after := time.Now()
		if got.CreatedAt.Before(before) || got.CreatedAt.After(after) {
			t.Errorf("CreatedAt = %v, want between %v and %v", got.CreatedAt, before, after)
		}
	})

	t.Run("optional timestamps stay absent when missing", func(t *testing.T) {
		got := Normalize(Record{ID: "x", Description: "d", Status: "paid", CreatedAt: &created})
		if got.PaidDate != nil || got.DueDate != nil {
			t.Errorf("optional dates should stay nil: paid=%v due=%v", got.PaidDate, got.DueDate)
		}
	})
}

func TestNormalizeAllPreservesOrder(t *testing.T) {
	now := time.Now()
	records := []Record{
		{ID: "b", Description: "second", Status: "planned", CreatedAt: &now},
		{ID: "a", Description: "first", Status: "planned", CreatedAt: &now},
	}
	items := NormalizeAll(records)
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "a" {
		t.Errorf("NormalizeAll reordered records: %+v", items)
	}
}
