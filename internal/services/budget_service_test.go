package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gottabeautomated/WILMA-Mk1/internal/amqp"
	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store/memory"
	"github.com/gottabeautomated/WILMA-Mk1/internal/stream"
)

func newService() (*BudgetService, *stream.Hub) {
	hub := stream.NewHub()
	return NewBudgetService(memory.New(), hub, nil), hub
}

func validDraft() core.ItemDraft {
	return core.ItemDraft{
		Description:   "Venue",
		Category:      "Location",
		EstimatedCost: core.Money{Cents: 100000},
		Status:        core.StatusPlanned,
	}
}

func TestCreateItemPublishesSnapshot(t *testing.T) {
	svc, hub := newService()
	ctx := context.Background()

	sub := hub.Subscribe(ctx, "alice")
	defer sub.Close()

	id, err := svc.CreateItem(ctx, "alice", validDraft())
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if id == "" {
		t.Fatal("CreateItem returned empty id")
	}

	select {
	case snap := <-sub.C:
		if len(snap.Items) != 1 || snap.Items[0].ID != id {
			t.Errorf("snapshot items = %+v, want the created item", snap.Items)
		}
		if snap.Summary.TotalEstimated.Cents != 100000 {
			t.Errorf("TotalEstimated = %d, want 100000", snap.Summary.TotalEstimated.Cents)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published after create")
	}
}

func TestCreateItemRejectsInvalidDraft(t *testing.T) {
	svc, _ := newService()

	draft := validDraft()
	draft.Description = ""
	if _, err := svc.CreateItem(context.Background(), "alice", draft); !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("CreateItem error = %v, want ErrEmptyDescription", err)
	}

	snap, err := svc.Snapshot(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Items) != 0 {
		t.Errorf("invalid draft was stored: %+v", snap.Items)
	}
}

func TestUpdateItemPreservesIdentity(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, "alice", validDraft())
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	before, _ := svc.Snapshot(ctx, "alice")
	createdAt := before.Items[0].CreatedAt

	actual := core.Money{Cents: 95000}
	updated := validDraft()
	updated.Description = "Venue (signed)"
	updated.ActualCost = &actual
	updated.Status = core.StatusPaid
	if err := svc.UpdateItem(ctx, "alice", id, updated); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	after, _ := svc.Snapshot(ctx, "alice")
	item := after.Items[0]
	if item.ID != id {
		t.Errorf("ID changed on edit: %q -> %q", id, item.ID)
	}
	if !item.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt changed on edit: %v -> %v", createdAt, item.CreatedAt)
	}
	if item.Description != "Venue (signed)" || item.Status != core.StatusPaid {
		t.Errorf("draft fields not applied: %+v", item)
	}
	if after.Summary.TotalPaid.Cents != 95000 {
		t.Errorf("TotalPaid = %d, want 95000", after.Summary.TotalPaid.Cents)
	}
}

func TestUpdateMissingItem(t *testing.T) {
	svc, _ := newService()
	err := svc.UpdateItem(context.Background(), "alice", "no-such-item", validDraft())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateItem error = %v, want ErrNotFound", err)
	}
}

func TestDeleteItemPublishesSnapshot(t *testing.T) {
	svc, hub := newService()
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, "alice", validDraft())
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	sub := hub.Subscribe(ctx, "alice")
	defer sub.Close()

	if err := svc.DeleteItem(ctx, "alice", id); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	select {
	case snap := <-sub.C:
		if len(snap.Items) != 0 {
			t.Errorf("snapshot after delete = %+v, want empty", snap.Items)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published after delete")
	}
}

func TestDeleteMissingItem(t *testing.T) {
	svc, _ := newService()
	err := svc.DeleteItem(context.Background(), "alice", "no-such-item")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteItem error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotScenario(t *testing.T) {
	// A single planned item: estimated counts, actual and paid stay zero.
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.CreateItem(ctx, "alice", validDraft()); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	snap, err := svc.Snapshot(ctx, "alice")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	sum := snap.Summary
	if sum.TotalEstimated.Cents != 100000 || sum.TotalActual.Cents != 0 || sum.TotalPaid.Cents != 0 {
		t.Errorf("summary = %+v, want estimated=100000 actual=0 paid=0", sum)
	}
}

func TestHandleChangeMessageRefreshesSubscribers(t *testing.T) {
	hub := stream.NewHub()
	st := memory.New()
	svc := NewBudgetService(st, hub, nil)
	ctx := context.Background()

	// Simulate a write that happened on another instance.
	if _, err := st.InsertItem(ctx, "alice", validDraft()); err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	sub := hub.Subscribe(ctx, "alice")
	defer sub.Close()

	if err := svc.HandleChangeMessage(ctx, amqp.NewItemChangedMessage("alice", "x", amqp.OpCreated)); err != nil {
		t.Fatalf("HandleChangeMessage: %v", err)
	}

	select {
	case snap := <-sub.C:
		if len(snap.Items) != 1 {
			t.Errorf("snapshot items = %d, want 1", len(snap.Items))
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot after remote change")
	}
}
