package http

import (
	"errors"
	"net/url"
	"testing"

	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
)

func TestParseItemDraft(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		want    core.ItemDraft
		wantErr bool
	}{
		{
			name: "full draft with comma decimals",
			form: url.Values{
				"description":    {"  Location  "},
				"category":       {"Feier"},
				"estimated_cost": {"1000,50"},
				"actual_cost":    {"950"},
				"status":         {"booked"},
				"due_date":       {"2026-09-12"},
				"notes":          {"Anzahlung geleistet"},
			},
			want: core.ItemDraft{
				Description:   "Location",
				Category:      "Feier",
				EstimatedCost: core.Money{Cents: 100050},
				ActualCost:    &core.Money{Cents: 95000},
				Status:        core.StatusBooked,
				Notes:         "Anzahlung geleistet",
			},
		},
		{
			name: "empty actual cost stays absent",
			form: url.Values{
				"description":    {"Blumen"},
				"estimated_cost": {"50"},
			},
			want: core.ItemDraft{
				Description:   "Blumen",
				EstimatedCost: core.Money{Cents: 5000},
				Status:        core.StatusPlanned,
			},
		},
		{
			name: "zero actual cost is recorded",
			form: url.Values{
				"description":    {"Deko"},
				"estimated_cost": {"80"},
				"actual_cost":    {"0"},
			},
			want: core.ItemDraft{
				Description:   "Deko",
				EstimatedCost: core.Money{Cents: 8000},
				ActualCost:    &core.Money{Cents: 0},
				Status:        core.StatusPlanned,
			},
		},
		{
			name: "invalid estimated cost",
			form: url.Values{
				"description":    {"Blumen"},
				"estimated_cost": {"abc"},
			},
			wantErr: true,
		},
		{
			name: "invalid actual cost",
			form: url.Values{
				"description":    {"Blumen"},
				"estimated_cost": {"50"},
				"actual_cost":    {"-3"},
			},
			wantErr: true,
		},
		{
			name: "invalid due date",
			form: url.Values{
				"description":    {"Blumen"},
				"estimated_cost": {"50"},
				"due_date":       {"12.09.2026"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItemDraft(tt.form)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseItemDraft() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseItemDraft() error = %v", err)
			}

			if got.Description != tt.want.Description {
				t.Errorf("Description = %q, want %q", got.Description, tt.want.Description)
			}
			if got.Category != tt.want.Category {
				t.Errorf("Category = %q, want %q", got.Category, tt.want.Category)
			}
			if got.EstimatedCost != tt.want.EstimatedCost {
				t.Errorf("EstimatedCost = %v, want %v", got.EstimatedCost, tt.want.EstimatedCost)
			}
			if got.Status != tt.want.Status {
				t.Errorf("Status = %q, want %q", got.Status, tt.want.Status)
			}
			if got.Notes != tt.want.Notes {
				t.Errorf("Notes = %q, want %q", got.Notes, tt.want.Notes)
			}
			if (got.ActualCost == nil) != (tt.want.ActualCost == nil) {
				t.Fatalf("ActualCost presence = %v, want %v", got.ActualCost != nil, tt.want.ActualCost != nil)
			}
			if got.ActualCost != nil && *got.ActualCost != *tt.want.ActualCost {
				t.Errorf("ActualCost = %v, want %v", *got.ActualCost, *tt.want.ActualCost)
			}
		})
	}
}

func TestParseItemDraftDueDate(t *testing.T) {
	draft, err := ParseItemDraft(url.Values{
		"description":    {"Band"},
		"estimated_cost": {"1200"},
		"due_date":       {"2026-10-03"},
	})
	if err != nil {
		t.Fatalf("ParseItemDraft() error = %v", err)
	}
	if draft.DueDate == nil {
		t.Fatal("DueDate = nil, want set")
	}
	if got := draft.DueDate.Format("2006-01-02"); got != "2026-10-03" {
		t.Errorf("DueDate = %s, want 2026-10-03", got)
	}
	if draft.PaidDate != nil {
		t.Error("PaidDate should stay nil when not submitted")
	}
}

func TestParseItemDraftDateErrorIsTyped(t *testing.T) {
	_, err := ParseItemDraft(url.Values{
		"description":    {"Ringe"},
		"estimated_cost": {"120"},
		"due_date":       {"kein-datum"},
	})
	if !errors.Is(err, errInvalidDate) {
		t.Fatalf("err = %v; want errInvalidDate", err)
	}
}
