// Package store defines the ports for durable storage. Items live under a
// per-user namespace: every operation takes the owning user's id as an
// explicit argument, and no call ever crosses that boundary.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
)

var (
	// ErrNotFound is returned when the addressed record does not exist in
	// the caller's namespace.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned by CreateUser when the address is already
	// registered.
	ErrEmailTaken = errors.New("email already registered")
)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

type (
	// ItemStore persists budget items. ListItems returns raw records in
	// createdAt-descending order; normalization is the caller's job so that
	// it happens in exactly one place.
	ItemStore interface {
		// ListItems returns the user's full item set, newest first.
		ListItems(ctx context.Context, userID string) ([]core.Record, error)

		// InsertItem stores a new item, assigning its id and creation
		// timestamp from the store's clock, and returns the new id.
		InsertItem(ctx context.Context, userID string, draft core.ItemDraft) (string, error)

		// UpdateItem overwrites the draft fields of an existing item and
		// stamps a new modification timestamp. The item's id and creation
		// timestamp are preserved verbatim.
		UpdateItem(ctx context.Context, userID, itemID string, draft core.ItemDraft) error

		// RemoveItem deletes the item from the user's namespace.
		RemoveItem(ctx context.Context, userID, itemID string) error
	}

	// UserStore persists accounts and their session tokens.
	UserStore interface {
		CreateUser(ctx context.Context, email string, passwordHash []byte) (User, error)
		UserByEmail(ctx context.Context, email string) (User, error)

		SaveSession(ctx context.Context, token, userID string, expiresAt time.Time) error
		UserBySession(ctx context.Context, token string) (User, error)
		DeleteSession(ctx context.Context, token string) error
	}
)
