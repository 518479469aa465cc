// Package notify is the single top level notification channel. Wizards,
// API calls and background jobs publish topic addressed notifications;
// renderers subscribe with patterns and show them as toasts.
package notify

import (
	"sort"
	"sync"
	"time"
)

// Level is the severity shown to the user.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one user facing message.
type Notification struct {
	Topic   string
	Level   Level
	Title   string
	Message string
	Err     error
	At      time.Time
}

// Handler receives matching notifications.
type Handler func(Notification)

// Subscription cancels a handler.
type Subscription interface {
	Unsubscribe()
}

type entry struct {
	id      uint64
	pattern string
	handler Handler
}

type subscription struct {
	center *Center
	id     uint64
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.center.remove(s.id) })
}

// Center routes notifications to subscribers whose pattern matches the
// topic. Every matching handler is called once, in subscription order.
type Center struct {
	mu      sync.RWMutex
	entries []entry
	nextID  uint64
	match   func(pattern, topic string) bool
	now     func() time.Time
}

// Option configures a Center.
type Option func(*Center)

// WithMatcher replaces the topic matcher.
func WithMatcher(fn func(pattern, topic string) bool) Option {
	return func(c *Center) {
		if fn != nil {
			c.match = fn
		}
	}
}

// WithClock sets the time stamped on notifications without one.
func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCenter creates an empty center.
func NewCenter(opts ...Option) *Center {
	c := &Center{match: Match, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Subscribe registers handler for pattern.
func (c *Center) Subscribe(pattern string, handler Handler) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.entries = append(c.entries, entry{id: c.nextID, pattern: pattern, handler: handler})
	return &subscription{center: c, id: c.nextID}
}

// Publish delivers n to every matching handler and reports how many
// received it. Handlers run outside the lock and may subscribe or publish.
func (c *Center) Publish(n Notification) int {
	if n.At.IsZero() {
		n.At = c.now()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}
	handlers := c.matching(n.Topic)
	for _, h := range handlers {
		h(n)
	}
	return len(handlers)
}

// Patterns lists the subscribed patterns, sorted and deduplicated.
func (c *Center) Patterns() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool, len(c.entries))
	var out []string
	for _, e := range c.entries {
		if !seen[e.pattern] {
			seen[e.pattern] = true
			out = append(out, e.pattern)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Center) matching(topic string) []Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Handler
	for _, e := range c.entries {
		if e.handler != nil && c.match(e.pattern, topic) {
			out = append(out, e.handler)
		}
	}
	return out
}

func (c *Center) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]entry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}
