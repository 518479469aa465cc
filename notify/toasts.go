package notify

import (
	"sync"
	"time"
)

// DefaultToastLimit bounds the queue when NewToasts is given no limit.
const DefaultToastLimit = 5

// Toasts keeps the most recent notifications for display. The oldest
// entry is dropped when the queue is full.
type Toasts struct {
	mu    sync.Mutex
	limit int
	ttl   time.Duration
	items []Notification
}

// NewToasts creates a queue holding at most limit notifications, each
// visible for ttl. A ttl <= 0 keeps them until dismissed.
func NewToasts(limit int, ttl time.Duration) *Toasts {
	if limit <= 0 {
		limit = DefaultToastLimit
	}
	return &Toasts{limit: limit, ttl: ttl}
}

// Handle is a Handler that queues n.
func (t *Toasts) Handle(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, n)
	if over := len(t.items) - t.limit; over > 0 {
		t.items = append([]Notification(nil), t.items[over:]...)
	}
}

// Visible returns the toasts still showing at now, oldest first, and
// forgets expired ones.
func (t *Toasts) Visible(now time.Time) []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ttl > 0 {
		kept := t.items[:0]
		for _, n := range t.items {
			if now.Sub(n.At) < t.ttl {
				kept = append(kept, n)
			}
		}
		t.items = kept
	}
	return append([]Notification(nil), t.items...)
}

// Dismiss drops the oldest toast.
func (t *Toasts) Dismiss() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.items) > 0 {
		t.items = t.items[1:]
	}
}

// Len reports how many toasts are queued.
func (t *Toasts) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
