package core

// Summary aggregates a user's item list. It is derived on demand and never
// persisted.
type Summary struct {
	// TotalEstimated is the sum of every item's estimated cost.
	TotalEstimated Money
	// TotalActual sums actual costs, treating an absent actual cost as zero.
	TotalActual Money
	// TotalPaid sums, over items in the paid state, the actual cost when
	// present and the estimated cost otherwise.
	TotalPaid Money
}

// Summarize computes the summary for a list of items. The result is
// independent of list order.
func Summarize(items []BudgetItem) Summary {
	var s Summary
	for _, it := range items {
		s.TotalEstimated.Cents += it.EstimatedCost.Cents
		if it.ActualCost != nil {
			s.TotalActual.Cents += it.ActualCost.Cents
		}
		if it.Status == StatusPaid {
			if it.ActualCost != nil {
				s.TotalPaid.Cents += it.ActualCost.Cents
			} else {
				s.TotalPaid.Cents += it.EstimatedCost.Cents
			}
		}
	}
	return s
}
