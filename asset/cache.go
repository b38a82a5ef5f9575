// Package asset resolves the images referenced by a document.
//
// A Cache maps an image source to its resolution state. Entries move from
// Pending (absent) to Resolved or Failed exactly once. A Resolver fills a
// cache concurrently and hands back a Task the caller can wait on or cancel.
package asset

import (
	"sort"
	"sync"
)

// State is the resolution state of an image source.
type State uint8

const (
	StatePending State = iota
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// ReasonCancelled is the failure reason recorded for images whose resolution
// was cancelled.
const ReasonCancelled = "cancelled"

// Entry is the cached outcome for one source.
type Entry struct {
	Source string
	State  State
	MIME   string
	Bytes  []byte
	Width  int
	Height int
	Reason string
}

// Cancelled reports whether the entry failed because resolution was
// cancelled.
func (e Entry) Cancelled() bool {
	return e.State == StateFailed && e.Reason == ReasonCancelled
}

// Cache is a write-once map from image source to Entry. It is safe for
// concurrent use. A nil *Cache reads as empty and drops writes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Lookup returns the entry for src. Unknown sources read as Pending.
func (c *Cache) Lookup(src string) Entry {
	if c == nil {
		return Entry{Source: src}
	}
	c.mu.RLock()
	e, ok := c.entries[src]
	c.mu.RUnlock()
	if !ok {
		return Entry{Source: src}
	}
	return e
}

// Put records a final entry. It reports false, leaving the cache unchanged,
// when the source already has a final state or e is still pending.
func (c *Cache) Put(e Entry) bool {
	if c == nil || e.State == StatePending {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]Entry)
	}
	if _, ok := c.entries[e.Source]; ok {
		return false
	}
	c.entries[e.Source] = e
	return true
}

// Len returns the number of final entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a copy of all final entries ordered by source.
func (c *Cache) Entries() []Entry {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
