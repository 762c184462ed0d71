package memory

import (
	"context"
	"sync"
	"time"

	recurrence "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/domain"
)

// Repository is an in-memory recurrence store.
type Repository struct {
	mu   sync.RWMutex
	data map[string]*recurrence.Recurrence
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]*recurrence.Recurrence)}
}

// Save stores or replaces a recurrence.
func (r *Repository) Save(ctx context.Context, rec *recurrence.Recurrence) error {
	_ = ctx
	if rec == nil {
		return recurrence.ErrNilRecurrence
	}
	copy := *rec
	r.mu.Lock()
	r.data[rec.ID] = &copy
	r.mu.Unlock()
	return nil
}

// GetByID loads a recurrence, nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*recurrence.Recurrence, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec := r.data[id]
	if rec == nil {
		return nil, nil
	}
	copy := *rec
	return &copy, nil
}

// ListActive returns recurrences that are neither paused nor soft-deleted.
func (r *Repository) ListActive(ctx context.Context) ([]*recurrence.Recurrence, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*recurrence.Recurrence
	for _, rec := range r.data {
		if rec.Active() {
			copy := *rec
			result = append(result, &copy)
		}
	}
	return result, nil
}

// SaveNextOccurrence advances the stored projection cursor.
func (r *Repository) SaveNextOccurrence(ctx context.Context, id string, next time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.data[id]
	if rec == nil {
		return recurrence.ErrNotFound
	}
	cursor := next
	rec.NextOccurrence = &cursor
	rec.UpdatedAt = time.Now().UTC()
	return nil
}
