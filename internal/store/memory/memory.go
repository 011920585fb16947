// Package memory is an in-memory store implementation. It backs the default
// data backend for local development and doubles as the fake in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
	"github.com/gottabeautomated/WILMA-Mk1/internal/store"
)

type session struct {
	userID    string
	expiresAt time.Time
}

type Store struct {
	mu       sync.Mutex
	items    map[string][]core.Record // keyed by user id
	users    map[string]store.User    // keyed by user id
	byEmail  map[string]string        // email -> user id
	sessions map[string]session       // token -> session

	// now is swappable so tests can control the store clock.
	now func() time.Time
}

func New() *Store {
	return &Store{
		items:    make(map[string][]core.Record),
		users:    make(map[string]store.User),
		byEmail:  make(map[string]string),
		sessions: make(map[string]session),
		now:      time.Now,
	}
}

// SetClock replaces the store clock. Test helper.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ListItems implements store.ItemStore.
func (s *Store) ListItems(_ context.Context, userID string) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append([]core.Record(nil), s.items[userID]...)
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := timeOf(records[i]), timeOf(records[j])
		if ti.Equal(tj) {
			return records[i].ID > records[j].ID
		}
		return ti.After(tj)
	})
	return records, nil
}

func timeOf(r core.Record) time.Time {
	if r.CreatedAt == nil {
		return time.Time{}
	}
	return *r.CreatedAt
}

// InsertItem implements store.ItemStore.
func (s *Store) InsertItem(_ context.Context, userID string, draft core.ItemDraft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec := recordFromDraft(draft)
	rec.ID = uuid.New().String()
	rec.CreatedAt = &now
	rec.ModifiedAt = &now
	s.items[userID] = append(s.items[userID], rec)
	return rec.ID, nil
}

// UpdateItem implements store.ItemStore.
func (s *Store) UpdateItem(_ context.Context, userID, itemID string, draft core.ItemDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.items[userID]
	for i := range records {
		if records[i].ID != itemID {
			continue
		}
		now := s.now().UTC()
		rec := recordFromDraft(draft)
		rec.ID = records[i].ID
		rec.CreatedAt = records[i].CreatedAt
		rec.ModifiedAt = &now
		records[i] = rec
		return nil
	}
	return store.ErrNotFound
}

// RemoveItem implements store.ItemStore.
func (s *Store) RemoveItem(_ context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.items[userID]
	for i := range records {
		if records[i].ID == itemID {
			s.items[userID] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func recordFromDraft(d core.ItemDraft) core.Record {
	rec := core.Record{
		Description: d.Description,
		Category:    d.Category,
		Status:      string(d.Status),
		Notes:       d.Notes,
		PaidDate:    d.PaidDate,
		DueDate:     d.DueDate,
	}
	estimated := d.EstimatedCost.Cents
	rec.EstimatedCost = &estimated
	if d.ActualCost != nil {
		actual := d.ActualCost.Cents
		rec.ActualCost = &actual
	}
	return rec
}

// CreateUser implements store.UserStore.
func (s *Store) CreateUser(_ context.Context, email string, passwordHash []byte) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return store.User{}, store.ErrEmailTaken
	}
	u := store.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: append([]byte(nil), passwordHash...),
		CreatedAt:    s.now().UTC(),
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return u, nil
}

// UserByEmail implements store.UserStore.
func (s *Store) UserByEmail(_ context.Context, email string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return s.users[id], nil
}

// SaveSession implements store.UserStore.
func (s *Store) SaveSession(_ context.Context, token, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = session{userID: userID, expiresAt: expiresAt}
	return nil
}

// UserBySession implements store.UserStore.
func (s *Store) UserBySession(_ context.Context, token string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || s.now().After(sess.expiresAt) {
		return store.User{}, store.ErrNotFound
	}
	u, ok := s.users[sess.userID]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

// DeleteSession implements store.UserStore.
func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}
