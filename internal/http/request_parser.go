// Package http provides the HTTP server and handler implementations.
//
// This file implements parsing and validation of form submissions. It
// consolidates the repeated pattern of extracting a budget item draft from
// an HTMX form post.

package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
)

// ParseItemDraft extracts a budget item draft from submitted form values.
// The amount fields accept decimal notation with dot or comma separators.
// An empty actual_cost means no spending has been recorded yet, which is
// different from an explicit "0".
func ParseItemDraft(form url.Values) (core.ItemDraft, error) {
	draft := core.ItemDraft{
		Description: sanitizeInput(form.Get("description")),
		Category:    sanitizeInput(form.Get("category")),
		Notes:       sanitizeInput(form.Get("notes")),
	}

	estimated := strings.TrimSpace(form.Get("estimated_cost"))
	cents, err := core.ParseDecimalToCents(estimated)
	if err != nil {
		return core.ItemDraft{}, err
	}
	draft.EstimatedCost = core.Money{Cents: cents}

	if actual := strings.TrimSpace(form.Get("actual_cost")); actual != "" {
		cents, err := core.ParseDecimalToCents(actual)
		if err != nil {
			return core.ItemDraft{}, err
		}
		draft.ActualCost = &core.Money{Cents: cents}
	}

	status := strings.TrimSpace(form.Get("status"))
	if status == "" {
		status = string(core.StatusPlanned)
	}
	draft.Status = core.Status(status)

	paidDate, err := parseDate(form.Get("paid_date"))
	if err != nil {
		return core.ItemDraft{}, err
	}
	draft.PaidDate = paidDate

	dueDate, err := parseDate(form.Get("due_date"))
	if err != nil {
		return core.ItemDraft{}, err
	}
	draft.DueDate = dueDate

	return draft, nil
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Ungültiges Anfrageformat")
	}
	return nil
}
