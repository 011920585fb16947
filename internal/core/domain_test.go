package core

import (
	"errors"
	"testing"
)

func TestItemDraftValidate(t *testing.T) {
	valid := ItemDraft{
		Description:   "Venue deposit",
		Category:      "Location",
		EstimatedCost: Money{Cents: 100000},
		Status:        StatusPlanned,
	}

	tests := []struct {
		name    string
		mutate  func(*ItemDraft)
		wantErr error
	}{
		{
			name:   "valid draft",
			mutate: func(d *ItemDraft) {},
		},
		{
			name:    "empty description",
			mutate:  func(d *ItemDraft) { d.Description = "" },
			wantErr: ErrEmptyDescription,
		},
		{
			name:    "whitespace-only description",
			mutate:  func(d *ItemDraft) { d.Description = "   " },
			wantErr: ErrEmptyDescription,
		},
		{
			name:    "negative estimated cost",
			mutate:  func(d *ItemDraft) { d.EstimatedCost = Money{Cents: -1} },
			wantErr: ErrInvalidAmount,
		},
		{
			name:   "zero estimated cost is allowed",
			mutate: func(d *ItemDraft) { d.EstimatedCost = Money{Cents: 0} },
		},
		{
			name:    "negative actual cost",
			mutate:  func(d *ItemDraft) { d.ActualCost = &Money{Cents: -500} },
			wantErr: ErrInvalidAmount,
		},
		{
			name:   "absent actual cost is allowed",
			mutate: func(d *ItemDraft) { d.ActualCost = nil },
		},
		{
			name:    "unknown status",
			mutate:  func(d *ItemDraft) { d.Status = "cancelled" },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "empty status",
			mutate:  func(d *ItemDraft) { d.Status = "" },
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			tt.mutate(&draft)
			err := draft.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPlanned, StatusBooked, StatusPartiallyPaid, StatusPaid} {
		if !s.Valid() {
			t.Errorf("Status %q should be valid", s)
		}
	}
	for _, s := range []Status{"", "done", "PAID", "partially paid"} {
		if s.Valid() {
			t.Errorf("Status %q should be invalid", s)
		}
	}
}
