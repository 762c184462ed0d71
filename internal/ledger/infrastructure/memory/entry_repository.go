package memory

import (
	"context"
	"sync"
	"time"

	ledger "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/ledger/domain"
)

// EntryRepository is an in-memory ledger store. It enforces the
// (origin tag, due date) uniqueness invariant the same way the Postgres
// store does, so projector tests exercise the real write contract.
type EntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*ledger.Entry
	byKey   map[string]string
}

// NewEntryRepository constructs a repository.
func NewEntryRepository() *EntryRepository {
	return &EntryRepository{
		entries: make(map[string]*ledger.Entry),
		byKey:   make(map[string]string),
	}
}

func dedupKey(originTag string, due time.Time) string {
	return originTag + "|" + due.UTC().Format("2006-01-02")
}

// Write persists an entry, rejecting duplicates of the de-duplication key.
func (r *EntryRepository) Write(ctx context.Context, entry *ledger.Entry) (*ledger.Entry, error) {
	_ = ctx
	if entry == nil {
		return nil, ledger.ErrNilEntry
	}
	if !entry.Direction.Valid() {
		return nil, ledger.ErrInvalidDirection
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.OriginTag != "" {
		key := dedupKey(entry.OriginTag, entry.EffectiveDueDate())
		if _, exists := r.byKey[key]; exists {
			return nil, ledger.ErrDuplicateEntry
		}
		r.byKey[key] = entry.ID
	}
	copy := *entry
	r.entries[entry.ID] = &copy
	stored := copy
	return &stored, nil
}

// FindByOriginAndDueDate returns the entry for a de-duplication key, or nil.
func (r *EntryRepository) FindByOriginAndDueDate(ctx context.Context, originTag string, dueDate time.Time) (*ledger.Entry, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[dedupKey(originTag, dueDate)]
	if !ok {
		return nil, nil
	}
	entry := r.entries[id]
	if entry == nil {
		return nil, nil
	}
	copy := *entry
	return &copy, nil
}

// ListByOrigin returns all entries carrying an origin tag, for assertions.
func (r *EntryRepository) ListByOrigin(ctx context.Context, originTag string) ([]*ledger.Entry, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*ledger.Entry
	for _, entry := range r.entries {
		if entry.OriginTag == originTag {
			copy := *entry
			result = append(result, &copy)
		}
	}
	return result, nil
}

// Len returns the number of stored entries.
func (r *EntryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
