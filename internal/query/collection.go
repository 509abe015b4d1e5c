// Package query holds the in-memory catalog collections consumers browse:
// search by display name, filter by group, and change notification.
package query

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Entry is a record that can be listed, searched and grouped.
type Entry interface {
	DisplayName() string
	Group() string
}

// Criteria combines a search text and a group filter. Empty fields do not filter.
type Criteria struct {
	Text  string
	Group string
}

// Collection is an ordered set of records replaced wholesale on each load.
// Readers always see a complete snapshot.
type Collection[T Entry] struct {
	mu        sync.RWMutex
	items     []T
	observers map[int]func([]T)
	nextID    int
}

// NewCollection returns an empty collection.
func NewCollection[T Entry]() *Collection[T] {
	return &Collection[T]{observers: make(map[int]func([]T))}
}

// Replace swaps in a new snapshot and notifies subscribers.
func (c *Collection[T]) Replace(items []T) {
	snapshot := append([]T(nil), items...)

	c.mu.Lock()
	c.items = snapshot
	observers := make([]func([]T), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(append([]T(nil), snapshot...))
	}
}

// All returns a copy of the current snapshot in source order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Search returns records whose display name contains text, ignoring case.
// An empty or blank text returns every record.
func (c *Collection[T]) Search(text string) []T {
	return c.Query(Criteria{Text: text})
}

// Filter returns records in the given group. An empty group returns every record.
func (c *Collection[T]) Filter(group string) []T {
	return c.Query(Criteria{Group: group})
}

// Query returns the records that satisfy both the text and the group criteria.
func (c *Collection[T]) Query(q Criteria) []T {
	c.mu.RLock()
	items := c.items
	c.mu.RUnlock()

	text := strings.TrimSpace(q.Text)
	if text == "" && q.Group == "" {
		return append([]T(nil), items...)
	}

	// a Caser keeps state and is not safe for concurrent use
	fold := cases.Fold()
	needle := fold.String(text)

	out := make([]T, 0, len(items))
	for _, item := range items {
		if q.Group != "" && item.Group() != q.Group {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(item.DisplayName()), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Groups returns the distinct groups present, in first-seen order.
func (c *Collection[T]) Groups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var groups []string
	for _, item := range c.items {
		g := item.Group()
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	return groups
}

// Subscribe registers fn to receive each new snapshot and returns a function that removes it.
func (c *Collection[T]) Subscribe(fn func([]T)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}
