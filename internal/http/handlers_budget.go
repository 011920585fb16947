package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
	applog "github.com/gottabeautomated/WILMA-Mk1/internal/log"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store"
	"github.com/gottabeautomated/WILMA-Mk1/internal/stream"
)

// itemView carries one budget item prepared for template rendering.
type itemView struct {
	ID          string
	Description string
	Category    string
	Estimated   string
	Actual      string
	// The *Input fields carry the plain form the edit fields re-submit:
	// decimal amounts without currency symbol, dates as YYYY-MM-DD.
	EstimatedInput string
	ActualInput    string
	DueDateInput   string
	PaidDateInput  string
	HasActual      bool
	Status         string
	StatusLabel    string
	Notes          string
	DueDate        string
	PaidDate       string
	CreatedAt      string
}

// listView carries the item list plus derived totals.
type listView struct {
	Items          []itemView
	Empty          bool
	TotalEstimated string
	TotalActual    string
	TotalPaid      string
}

var statusLabels = map[core.Status]string{
	core.StatusPlanned:       "Geplant",
	core.StatusBooked:        "Gebucht",
	core.StatusPartiallyPaid: "Teilweise bezahlt",
	core.StatusPaid:          "Bezahlt",
}

func buildListView(snap stream.Snapshot) listView {
	view := listView{
		Empty:          len(snap.Items) == 0,
		TotalEstimated: formatEuros(snap.Summary.TotalEstimated.Cents),
		TotalActual:    formatEuros(snap.Summary.TotalActual.Cents),
		TotalPaid:      formatEuros(snap.Summary.TotalPaid.Cents),
	}

	for _, item := range snap.Items {
		iv := itemView{
			ID:             item.ID,
			Description:    item.Description,
			Category:       item.Category,
			Estimated:      formatEuros(item.EstimatedCost.Cents),
			EstimatedInput: centsToInput(item.EstimatedCost.Cents),
			Status:         string(item.Status),
			StatusLabel:    statusLabels[item.Status],
			Notes:          item.Notes,
			CreatedAt:      item.CreatedAt.Format("02.01.2006"),
		}
		if item.ActualCost != nil {
			iv.HasActual = true
			iv.Actual = formatEuros(item.ActualCost.Cents)
			iv.ActualInput = centsToInput(item.ActualCost.Cents)
		}
		if item.DueDate != nil {
			iv.DueDate = item.DueDate.Format("02.01.2006")
			iv.DueDateInput = item.DueDate.Format("2006-01-02")
		}
		if item.PaidDate != nil {
			iv.PaidDate = item.PaidDate.Format("02.01.2006")
			iv.PaidDateInput = item.PaidDate.Format("2006-01-02")
		}
		view.Items = append(view.Items, iv)
	}

	return view
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, user store.User) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	snap, err := s.getSnapshot(r.Context(), user.ID)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load budget snapshot",
			applog.FieldError, err, applog.FieldUserID, user.ID)
		// The page still renders; the list section shows its error state.
	}

	data := struct {
		Email    string
		List     listView
		LoadErr  bool
		Statuses []core.Status
	}{
		Email:    user.Email,
		List:     buildListView(snap),
		LoadErr:  err != nil,
		Statuses: []core.Status{core.StatusPlanned, core.StatusBooked, core.StatusPartiallyPaid, core.StatusPaid},
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed", applog.FieldError, err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleBudgetList renders the item list partial, reloaded by the page
// whenever a budget:changed event arrives.
func (s *Server) handleBudgetList(w http.ResponseWriter, r *http.Request, user store.User) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	snap, err := s.getSnapshot(r.Context(), user.ID)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load budget snapshot",
			applog.FieldError, err, applog.FieldUserID, user.ID)
		_, _ = w.Write([]byte(`<section id="budget-list" class="budget-list"><div class="error">Budgetdaten konnten nicht geladen werden.</div></section>`))
		return
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="budget-list" class="budget-list"><div class="placeholder">Geschätzt: ` +
			template.HTMLEscapeString(formatEuros(snap.Summary.TotalEstimated.Cents)) + `</div></section>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "budget_list.html", buildListView(snap)); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error", applog.FieldError, err, "template", "budget_list.html")
		_, _ = w.Write([]byte(`<section id="budget-list" class="budget-list"><div class="error">Fehler beim Rendern der Liste</div></section>`))
	}
}

// handleBudgetEvents streams live snapshot updates over SSE. Each event
// carries the derived summary; the page reacts by reloading the list partial.
func (s *Server) handleBudgetEvents(w http.ResponseWriter, r *http.Request, user store.User) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.hub.Subscribe(r.Context(), user.ID)
	defer sub.Close()

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Budget event stream opened",
		applog.FieldUserID, user.ID, applog.FieldSubscribers, s.hub.SubscriberCount(user.ID))

	// Initial state so late subscribers don't wait for the next write.
	if snap, err := s.getSnapshot(r.Context(), user.ID); err == nil {
		writeBudgetEvent(w, snap)
		flusher.Flush()
	}

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			applog.FromContext(r.Context()).InfoContext(r.Context(), "Budget event stream closed", applog.FieldUserID, user.ID)
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case snap, open := <-sub.C:
			if !open {
				return
			}
			// Keep the page cache in step with what subscribers see.
			s.snapshotCache.Set(user.ID, snap)
			writeBudgetEvent(w, snap)
			flusher.Flush()
		}
	}
}

func writeBudgetEvent(w http.ResponseWriter, snap stream.Snapshot) {
	payload := struct {
		Count          int   `json:"count"`
		TotalEstimated int64 `json:"total_estimated_cents"`
		TotalActual    int64 `json:"total_actual_cents"`
		TotalPaid      int64 `json:"total_paid_cents"`
	}{
		Count:          len(snap.Items),
		TotalEstimated: snap.Summary.TotalEstimated.Cents,
		TotalActual:    snap.Summary.TotalActual.Cents,
		TotalPaid:      snap.Summary.TotalPaid.Cents,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: budget:changed\ndata: %s\n\n", data)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request, user store.User) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	draft, err := ParseItemDraft(r.PostForm)
	if err != nil {
		writeDraftError(w, err)
		return
	}

	id, err := s.budget.CreateItem(r.Context(), user.ID, draft)
	if err != nil {
		s.writeItemError(w, r, err, "Speichern des Budgetpostens fehlgeschlagen.")
		return
	}

	s.invalidateSnapshot(user.ID)

	s.slogger.LogItemChanged(r.Context(), applog.OpCreate, user.ID, id, draft.Description)

	NewHTMXResponse().
		TriggerBudgetChanged("created", id).
		TriggerFormReset().
		TriggerSuccessNotification("Budgetposten gespeichert: " + draft.Description).
		BodyHTML(`<div class="success">Budgetposten gespeichert: ` + template.HTMLEscapeString(draft.Description) + `</div>`).
		Write(w)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request, user store.User) {
	itemID := r.PathValue("id")
	if itemID == "" {
		BadRequestError("Fehlende Posten-ID").Write(w)
		return
	}

	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	draft, err := ParseItemDraft(r.PostForm)
	if err != nil {
		writeDraftError(w, err)
		return
	}

	if err := s.budget.UpdateItem(r.Context(), user.ID, itemID, draft); err != nil {
		s.writeItemError(w, r, err, "Speichern des Budgetpostens fehlgeschlagen.")
		return
	}

	s.invalidateSnapshot(user.ID)

	s.slogger.LogItemChanged(r.Context(), applog.OpUpdate, user.ID, itemID, draft.Description)

	NewHTMXResponse().
		TriggerBudgetChanged("updated", itemID).
		TriggerSuccessNotification("Budgetposten aktualisiert: " + draft.Description).
		BodyHTML(`<div class="success">Budgetposten aktualisiert</div>`).
		Write(w)
}

// handleDeleteItem removes an item, but only when the client explicitly
// confirmed. A missing confirm field leaves the collection unchanged.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request, user store.User) {
	itemID := r.PathValue("id")
	if itemID == "" {
		BadRequestError("Fehlende Posten-ID").Write(w)
		return
	}

	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	if !isConfirmed(r.PostForm.Get("confirm")) {
		BadRequestError("Löschen nicht bestätigt").Write(w)
		return
	}

	if err := s.budget.DeleteItem(r.Context(), user.ID, itemID); err != nil {
		s.writeItemError(w, r, err, "Löschen fehlgeschlagen.")
		return
	}

	s.invalidateSnapshot(user.ID)

	s.slogger.LogItemChanged(r.Context(), applog.OpDelete, user.ID, itemID, "")

	NewHTMXResponse().
		TriggerBudgetChanged("deleted", itemID).
		TriggerSuccessNotification("Budgetposten gelöscht").
		BodyHTML(`<div class="success">Budgetposten gelöscht</div>`).
		Write(w)
}

// writeDraftError reports a form-parse failure. Bad dates get their own
// message; every other parse error is a bad amount.
func writeDraftError(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidDate) {
		UnprocessableEntityError("Ungültiges Datum (Format JJJJ-MM-TT)").Write(w)
		return
	}
	UnprocessableEntityError("Ungültiger Betrag").Write(w)
}

func isConfirmed(v string) bool {
	switch v {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// writeItemError maps service errors to user-facing messages. Validation
// failures become 422s, a missing item becomes a 404, everything else is a
// generic 500 with the provided fallback text.
func (s *Server) writeItemError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrEmptyDescription):
		UnprocessableEntityError("Beschreibung darf nicht leer sein").Write(w)
	case errors.Is(err, core.ErrDescriptionTooLong):
		UnprocessableEntityError("Beschreibung ist zu lang (maximal 200 Zeichen)").Write(w)
	case errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError("Ungültiger Betrag").Write(w)
	case errors.Is(err, core.ErrInvalidStatus):
		UnprocessableEntityError("Ungültiger Status").Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError("Budgetposten nicht gefunden").Write(w)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Budget item operation failed",
			applog.FieldError, err, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
		InternalServerError(fallback).Write(w)
	}
}
