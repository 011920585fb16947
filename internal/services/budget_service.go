package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gottabeautomated/WILMA-Mk1/internal/amqp"
	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
	"github.com/gottabeautomated/WILMA-Mk1/internal/log"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store"
	"github.com/gottabeautomated/WILMA-Mk1/internal/stream"
)

// BudgetService orchestrates item writes across storage, the local snapshot
// hub and the optional cross-instance change channel. Views never mutate
// their state optimistically: every successful write ends with a fresh
// snapshot pushed through the hub, and the views render whatever arrives.
type BudgetService struct {
	items      store.ItemStore
	hub        *stream.Hub
	amqpClient *amqp.Client
}

func NewBudgetService(items store.ItemStore, hub *stream.Hub, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		items:      items,
		hub:        hub,
		amqpClient: amqpClient,
	}
}

// Snapshot materializes the user's current collection: list, normalize every
// record at this single boundary, derive the summary.
func (s *BudgetService) Snapshot(ctx context.Context, userID string) (stream.Snapshot, error) {
	records, err := s.items.ListItems(ctx, userID)
	if err != nil {
		return stream.Snapshot{}, fmt.Errorf("list items: %w", err)
	}
	items := core.NormalizeAll(records)
	return stream.Snapshot{Items: items, Summary: core.Summarize(items)}, nil
}

// CreateItem validates and stores a new item, then pushes the updated
// snapshot to the user's subscribers.
func (s *BudgetService) CreateItem(ctx context.Context, userID string, draft core.ItemDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", err
	}

	id, err := s.items.InsertItem(ctx, userID, draft)
	if err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}

	s.broadcast(ctx, userID, id, amqp.OpCreated)
	return id, nil
}

// UpdateItem applies the draft to an existing item. The store preserves the
// item's id and creation timestamp; only draft fields and the modification
// stamp change.
func (s *BudgetService) UpdateItem(ctx context.Context, userID, itemID string, draft core.ItemDraft) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	if err := s.items.UpdateItem(ctx, userID, itemID, draft); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update item: %w", err)
	}

	s.broadcast(ctx, userID, itemID, amqp.OpUpdated)
	return nil
}

// DeleteItem removes an item. Confirmation is the caller's responsibility;
// this method assumes the user already confirmed.
func (s *BudgetService) DeleteItem(ctx context.Context, userID, itemID string) error {
	if err := s.items.RemoveItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("remove item: %w", err)
	}

	s.broadcast(ctx, userID, itemID, amqp.OpDeleted)
	return nil
}

// HandleChangeMessage reacts to a change made on another instance by
// refreshing this instance's subscribers for the affected user.
func (s *BudgetService) HandleChangeMessage(ctx context.Context, msg *amqp.ItemChangedMessage) error {
	return s.refresh(ctx, msg.UserID)
}

// broadcast refreshes local subscribers and, when a broker is configured,
// announces the change to other instances. The write already succeeded, so
// failures here are logged and never surfaced to the user.
func (s *BudgetService) broadcast(ctx context.Context, userID, itemID, op string) {
	if err := s.refresh(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to refresh subscribers after write",
			log.FieldUserID, userID, log.FieldItemID, itemID, log.FieldOperation, op, log.FieldError, err)
	}

	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishItemChanged(ctx, amqp.NewItemChangedMessage(userID, itemID, op)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change notification",
			log.FieldUserID, userID, log.FieldItemID, itemID, log.FieldOperation, op, log.FieldError, err)
	}
}

func (s *BudgetService) refresh(ctx context.Context, userID string) error {
	if s.hub == nil {
		return nil
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	s.hub.Publish(userID, snap)
	return nil
}

// Close closes the AMQP connection if one was configured.
func (s *BudgetService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp client: %w", err)
		}
	}
	return nil
}
