package builder

import (
	"sort"
	"sync"
)

// ChangeKind identifies a pending remote write.
type ChangeKind string

const (
	ChangeCreateLayout ChangeKind = "layout.create"
	ChangeUpdateLayout ChangeKind = "layout.update"
	ChangeCreateBlock  ChangeKind = "block.create"
	ChangeUpdateBlock  ChangeKind = "block.update"
	ChangeDeleteBlock  ChangeKind = "block.delete"
)

const layoutOutboxKey = "\x00layout"

// PendingChange is a local mutation not yet acknowledged by the Repository.
// It carries the full latest state of its target, so coalesced changes
// converge on the last local edit.
type PendingChange struct {
	Kind   ChangeKind `json:"kind"`
	Layout Layout     `json:"layout,omitempty"`
	Block  Block      `json:"block,omitempty"`
	seq    uint64
}

func (c PendingChange) key() string {
	switch c.Kind {
	case ChangeCreateLayout, ChangeUpdateLayout:
		return layoutOutboxKey
	default:
		return c.Block.ID
	}
}

// Outbox collects pending remote writes, one entry per target. Later changes
// are coalesced into earlier ones:
//
//	create + update = create (latest state)
//	create + delete = nothing
//	update + update = update (latest state)
//	update + delete = delete
type Outbox struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]PendingChange
}

// NewOutbox builds an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{entries: map[string]PendingChange{}}
}

// Record adds a change, coalescing it with any pending change for the same target.
func (o *Outbox) Record(change PendingChange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	change.seq = o.seq
	change.Layout = change.Layout.Clone()
	change.Block = change.Block.Clone()
	o.mergeLocked(change)
}

// Drain removes and returns every pending change. A layout create is always
// first; the rest follow the order they were last touched.
func (o *Outbox) Drain() []PendingChange {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.sortedLocked()
	o.entries = map[string]PendingChange{}
	return out
}

// Pending returns the pending changes without removing them.
func (o *Outbox) Pending() []PendingChange {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sortedLocked()
}

// Requeue puts failed changes back. Each failed change is treated as older
// than anything recorded since it was drained.
func (o *Outbox) Requeue(changes []PendingChange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, failed := range changes {
		newer, ok := o.entries[failed.key()]
		if !ok {
			o.entries[failed.key()] = failed
			continue
		}
		delete(o.entries, failed.key())
		o.entries[failed.key()] = failed
		o.mergeLocked(newer)
	}
}

// Len reports the number of pending changes.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// Reset drops every pending change.
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = map[string]PendingChange{}
}

func (o *Outbox) mergeLocked(change PendingChange) {
	key := change.key()
	prev, ok := o.entries[key]
	if !ok {
		o.entries[key] = change
		return
	}
	switch {
	case prev.Kind == ChangeCreateBlock && change.Kind == ChangeDeleteBlock:
		delete(o.entries, key)
	case prev.Kind == ChangeCreateBlock || prev.Kind == ChangeCreateLayout:
		change.Kind = prev.Kind
		o.entries[key] = change
	default:
		o.entries[key] = change
	}
}

func (o *Outbox) sortedLocked() []PendingChange {
	out := make([]PendingChange, 0, len(o.entries))
	for _, change := range o.entries {
		out = append(out, change)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Kind == ChangeCreateLayout) != (out[j].Kind == ChangeCreateLayout) {
			return out[i].Kind == ChangeCreateLayout
		}
		return out[i].seq < out[j].seq
	})
	return out
}
