// Package ledger implements the persisted identity ledger: the idempotency
// map from supplier item identifiers to the remote (product, variant) ids
// they already materialized as. The ledger is the single source of truth for
// "does this item already exist remotely."
package ledger

import (
	"sort"
	"sync"
)

// Entry is the remote identity of one reconciled item.
type Entry struct {
	ProductID int64 `bson:"product_id" json:"product_id"`
	VariantID int64 `bson:"variant_id" json:"variant_id"`
}

// Ledger is the shared, mutably-accessed identity map for one reconciliation
// run. All access is guarded; it is the only cross-worker mutable structure.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string]Entry)}
}

// FromMap creates a ledger seeded with existing entries.
func FromMap(entries map[string]Entry) *Ledger {
	l := &Ledger{entries: make(map[string]Entry, len(entries))}
	for k, v := range entries {
		l.entries[k] = v
	}
	return l
}

// Get returns the entry for an identifier and whether it exists.
func (l *Ledger) Get(identifier string) (Entry, bool) {
	l.mu.RLock()
	entry, ok := l.entries[identifier]
	l.mu.RUnlock()
	return entry, ok
}

// Known reports whether the identifier has a remote representation. Once an
// identifier is present it is never reprocessed as new, unless force-refresh
// removed it first.
func (l *Ledger) Known(identifier string) bool {
	_, ok := l.Get(identifier)
	return ok
}

// Record sets the entry for an identifier.
func (l *Ledger) Record(identifier string, productID, variantID int64) {
	l.mu.Lock()
	l.entries[identifier] = Entry{ProductID: productID, VariantID: variantID}
	l.mu.Unlock()
}

// Drop removes a stale entry so the item is re-treated as new. Used when the
// ledger references a variant that no longer exists remotely.
func (l *Ledger) Drop(identifier string) {
	l.mu.Lock()
	delete(l.entries, identifier)
	l.mu.Unlock()
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Snapshot returns a copy of all entries.
func (l *Ledger) Snapshot() map[string]Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Entry, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Merge copies all entries from other into l. Existing identifiers keep
// their current entry: an identifier must never flip to a different remote
// identity mid-run.
func (l *Ledger) Merge(other map[string]Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range other {
		if _, exists := l.entries[k]; !exists {
			l.entries[k] = v
		}
	}
}

// Reverse builds the product → variant → identifier reverse map persisted
// alongside the forward document.
func (l *Ledger) Reverse() map[int64]map[int64]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int64]map[int64]string)
	for identifier, entry := range l.entries {
		variants, ok := out[entry.ProductID]
		if !ok {
			variants = make(map[int64]string)
			out[entry.ProductID] = variants
		}
		variants[entry.VariantID] = identifier
	}
	return out
}

// Identifiers returns all identifiers in sorted order, for deterministic
// logging and tests.
func (l *Ledger) Identifiers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.entries))
	for k := range l.entries {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}
