// Package stream distributes live snapshots of a user's budget to its open
// views. Each write re-materializes the full item list and pushes it through
// the hub; views never patch state incrementally, they replace it with
// whatever snapshot arrives next.
package stream

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gottabeautomated/WILMA-Mk1/internal/core"
	"github.com/gottabeautomated/WILMA-Mk1/internal/log"
)

// Snapshot is one full materialization of a user's collection plus its
// derived summary.
type Snapshot struct {
	Items   []core.BudgetItem
	Summary core.Summary
}

// Subscription is a standing feed of snapshots for one user. C is closed on
// teardown. The channel holds a single slot with latest-wins semantics: a
// slow consumer skips intermediate snapshots but always converges on the
// newest one, in publish order.
type Subscription struct {
	C <-chan Snapshot

	hub    *Hub
	userID string
	ch     chan Snapshot
	once   sync.Once
}

// Close tears the subscription down. Safe to call more than once, and a
// no-op after the owning context already ended.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.userID, s)
		close(s.ch)
	})
}

// Hub fans snapshots out to per-user subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a standing subscription for the given user. It is torn
// down when ctx ends or Close is called, whichever comes first, so an
// abandoned view cannot leak its feed.
func (h *Hub) Subscribe(ctx context.Context, userID string) *Subscription {
	ch := make(chan Snapshot, 1)
	sub := &Subscription{C: ch, hub: h, userID: userID, ch: ch}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub
}

// Publish delivers a snapshot to every subscriber of that user. Other users'
// subscribers never see it.
func (h *Hub) Publish(userID string, snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[userID] {
		// Replace a pending stale snapshot instead of blocking.
		select {
		case sub.ch <- snap:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}

// SubscriberCount reports how many subscriptions a user currently has.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) remove(userID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[userID]
	if set == nil {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, userID)
	}
	slog.Debug("Subscription closed", log.FieldUserID, userID, "remaining", len(set))
}
