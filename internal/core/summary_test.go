package core

import "testing"

func money(cents int64) *Money {
	m := Money{Cents: cents}
	return &m
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name          string
		items         []BudgetItem
		wantEstimated int64
		wantActual    int64
		wantPaid      int64
	}{
		{
			name: "empty list",
		},
		{
			name: "single planned item",
			items: []BudgetItem{
				{ID: "1", Description: "Venue", EstimatedCost: Money{Cents: 100000}, Status: StatusPlanned},
			},
			wantEstimated: 100000,
			wantActual:    0,
			wantPaid:      0,
		},
		{
			name: "paid item uses actual cost when present",
			items: []BudgetItem{
				{ID: "1", EstimatedCost: Money{Cents: 50000}, ActualCost: money(45000), Status: StatusPaid},
			},
			wantEstimated: 50000,
			wantActual:    45000,
			wantPaid:      45000,
		},
		{
			name: "paid item falls back to estimated cost",
			items: []BudgetItem{
				{ID: "1", EstimatedCost: Money{Cents: 30000}, Status: StatusPaid},
			},
			wantEstimated: 30000,
			wantActual:    0,
			wantPaid:      30000,
		},
		{
			name: "non-paid items never contribute to total paid",
			items: []BudgetItem{
				{ID: "1", EstimatedCost: Money{Cents: 10000}, ActualCost: money(9000), Status: StatusBooked},
				{ID: "2", EstimatedCost: Money{Cents: 20000}, ActualCost: money(15000), Status: StatusPartiallyPaid},
			},
			wantEstimated: 30000,
			wantActual:    24000,
			wantPaid:      0,
		},
		{
			name: "actual cost of zero is distinct from absent",
			items: []BudgetItem{
				{ID: "1", EstimatedCost: Money{Cents: 5000}, ActualCost: money(0), Status: StatusPaid},
			},
			wantEstimated: 5000,
			wantActual:    0,
			wantPaid:      0, // actual cost is present, so the estimate is not used
		},
		{
			name: "mixed list",
			items: []BudgetItem{
				{ID: "1", EstimatedCost: Money{Cents: 100000}, Status: StatusPlanned},
				{ID: "2", EstimatedCost: Money{Cents: 50000}, ActualCost: money(45000), Status: StatusPaid},
				{ID: "3", EstimatedCost: Money{Cents: 20000}, ActualCost: money(21000), Status: StatusBooked},
			},
			wantEstimated: 170000,
			wantActual:    66000,
			wantPaid:      45000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.items)
			if got.TotalEstimated.Cents != tt.wantEstimated {
				t.Errorf("TotalEstimated = %d, want %d", got.TotalEstimated.Cents, tt.wantEstimated)
			}
			if got.TotalActual.Cents != tt.wantActual {
				t.Errorf("TotalActual = %d, want %d", got.TotalActual.Cents, tt.wantActual)
			}
			if got.TotalPaid.Cents != tt.wantPaid {
				t.Errorf("TotalPaid = %d, want %d", got.TotalPaid.Cents, tt.wantPaid)
			}
		})
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	a := BudgetItem{ID: "1", EstimatedCost: Money{Cents: 100000}, Status: StatusPlanned}
	b := BudgetItem{ID: "2", EstimatedCost: Money{Cents: 50000}, ActualCost: money(45000), Status: StatusPaid}
	c := BudgetItem{ID: "3", EstimatedCost: Money{Cents: 7500}, Status: StatusBooked}

	first := Summarize([]BudgetItem{a, b, c})
	second := Summarize([]BudgetItem{c, a, b})

	if first != second {
		t.Errorf("summary depends on item order: %+v vs %+v", first, second)
	}
}
