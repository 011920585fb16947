// Package sqlite implements the store ports on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store"
)

type Repository struct {
	db *sql.DB

	// now is the store clock used for created_at/modified_at stamps.
	now func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListItems implements store.ItemStore.
func (r *Repository) ListItems(ctx context.Context, userID string) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, category, estimated_cost_cents, actual_cost_cents,
		       status, created_at, modified_at, paid_date, due_date, notes
		FROM budget_items
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget items: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var (
			rec        core.Record
			category   sql.NullString
			estimated  sql.NullInt64
			actual     sql.NullInt64
			status     sql.NullString
			createdAt  sql.NullTime
			modifiedAt sql.NullTime
			paidDate   sql.NullTime
			dueDate    sql.NullTime
			notes      sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Description, &category, &estimated, &actual,
			&status, &createdAt, &modifiedAt, &paidDate, &dueDate, &notes); err != nil {
			return nil, fmt.Errorf("scan budget item: %w", err)
		}
		rec.Category = category.String
		rec.Status = status.String
		rec.Notes = notes.String
		if estimated.Valid {
			v := estimated.Int64
			rec.EstimatedCost = &v
		}
		if actual.Valid {
			v := actual.Int64
			rec.ActualCost = &v
		}
		if createdAt.Valid {
			t := createdAt.Time
			rec.CreatedAt = &t
		}
		if modifiedAt.Valid {
			t := modifiedAt.Time
			rec.ModifiedAt = &t
		}
		if paidDate.Valid {
			t := paidDate.Time
			rec.PaidDate = &t
		}
		if dueDate.Valid {
			t := dueDate.Time
			rec.DueDate = &t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget items: %w", err)
	}
	return records, nil
}

// InsertItem implements store.ItemStore. The id and both timestamps come from
// the store, never from the caller.
func (r *Repository) InsertItem(ctx context.Context, userID string, draft core.ItemDraft) (string, error) {
	id := uuid.New().String()
	now := r.now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_items
			(id, user_id, description, category, estimated_cost_cents, actual_cost_cents,
			 status, created_at, modified_at, paid_date, due_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, draft.Description, nullString(draft.Category),
		draft.EstimatedCost.Cents, nullMoney(draft.ActualCost),
		string(draft.Status), now, now,
		nullTime(draft.PaidDate), nullTime(draft.DueDate), nullString(draft.Notes))
	if err != nil {
		return "", fmt.Errorf("insert budget item: %w", err)
	}

	slog.InfoContext(ctx, "Budget item saved",
		"item_id", id,
		"description", draft.Description,
		"estimated_cents", draft.EstimatedCost.Cents,
		"status", draft.Status)

	return id, nil
}

// UpdateItem implements store.ItemStore. created_at is deliberately absent
// from the SET list.
func (r *Repository) UpdateItem(ctx context.Context, userID, itemID string, draft core.ItemDraft) error {
	now := r.now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE budget_items
		SET description = ?, category = ?, estimated_cost_cents = ?, actual_cost_cents = ?,
		    status = ?, modified_at = ?, paid_date = ?, due_date = ?, notes = ?
		WHERE user_id = ? AND id = ?`,
		draft.Description, nullString(draft.Category),
		draft.EstimatedCost.Cents, nullMoney(draft.ActualCost),
		string(draft.Status), now,
		nullTime(draft.PaidDate), nullTime(draft.DueDate), nullString(draft.Notes),
		userID, itemID)
	if err != nil {
		return fmt.Errorf("update budget item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update budget item rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Budget item updated", "item_id", itemID, "status", draft.Status)
	return nil
}

// RemoveItem implements store.ItemStore.
func (r *Repository) RemoveItem(ctx context.Context, userID, itemID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budget_items WHERE user_id = ? AND id = ?`, userID, itemID)
	if err != nil {
		return fmt.Errorf("delete budget item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget item rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Budget item deleted", "item_id", itemID)
	return nil
}

// CreateUser implements store.UserStore.
func (r *Repository) CreateUser(ctx context.Context, email string, passwordHash []byte) (store.User, error) {
	u := store.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.User{}, store.ErrEmailTaken
		}
		return store.User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return u, nil
}

// UserByEmail implements store.UserStore.
func (r *Repository) UserByEmail(ctx context.Context, email string) (store.User, error) {
	var u store.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, nil
}

// SaveSession implements store.UserStore.
func (r *Repository) SaveSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt.UTC(), r.now().UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UserBySession implements store.UserStore.
func (r *Repository) UserBySession(ctx context.Context, token string) (store.User, error) {
	var u store.User
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`, token, r.now().UTC()).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("select user by session: %w", err)
	}
	return u, nil
}

// DeleteSession implements store.UserStore.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullMoney(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Cents, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// isUniqueViolation detects the sqlite unique-constraint error without
// depending on driver-internal error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}
