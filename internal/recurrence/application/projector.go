package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/calendar"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing"
	ledger "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/ledger/domain"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/observability/metrics"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/application/events"
	recurrence "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/domain"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// EntryFinder is the ledger lookup backing the idempotence check.
type EntryFinder interface {
	FindByOriginAndDueDate(ctx context.Context, originTag string, dueDate time.Time) (*ledger.Entry, error)
}

// EntryWriter persists forecast entries. The store enforces the
// (origin tag, due date) uniqueness invariant at write time.
type EntryWriter interface {
	Write(ctx context.Context, entry *ledger.Entry) (*ledger.Entry, error)
}

// RecurrenceRepository provides the recurrences to project.
type RecurrenceRepository interface {
	GetByID(ctx context.Context, id string) (*recurrence.Recurrence, error)
	ListActive(ctx context.Context) ([]*recurrence.Recurrence, error)
	SaveNextOccurrence(ctx context.Context, id string, next time.Time) error
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// SweepResult summarizes one recurrence's projection sweep.
type SweepResult struct {
	RecurrenceID string
	Emitted      int
	Skipped      int
	Cursor       time.Time
}

// Projector expands recurrence definitions into forecast ledger entries up
// to a bounded horizon. It is stateless between calls: each sweep reads the
// ledger through the finder and re-checks existing entries before writing,
// so concurrent duplicate sweeps converge on the same result.
type Projector struct {
	recurrences RecurrenceRepository
	entries     EntryFinder
	writer      EntryWriter
	bus         EventPublisher
	retrier     *eventing.Retrier
	cfg         Config
	clock       Clock
}

// ProjectorOption configures a projector.
type ProjectorOption func(*Projector)

// WithRetrier routes writes through a retrying channel.
func WithRetrier(retrier *eventing.Retrier) ProjectorOption {
	return func(p *Projector) { p.retrier = retrier }
}

// NewProjector constructs a projector.
func NewProjector(recurrences RecurrenceRepository, entries EntryFinder, writer EntryWriter, bus EventPublisher, cfg Config, clock Clock, opts ...ProjectorOption) (*Projector, error) {
	if recurrences == nil {
		return nil, errors.New("projector: nil recurrence repository")
	}
	if entries == nil {
		return nil, errors.New("projector: nil entry finder")
	}
	if writer == nil {
		return nil, errors.New("projector: nil entry writer")
	}
	if clock == nil {
		return nil, errors.New("projector: nil clock")
	}
	if cfg.HorizonDays <= 0 || cfg.HorizonMonths <= 0 || cfg.MaxOccurrences <= 0 {
		return nil, errors.New("projector: horizon bounds must be positive")
	}
	p := &Projector{
		recurrences: recurrences,
		entries:     entries,
		writer:      writer,
		bus:         bus,
		cfg:         cfg,
		clock:       clock,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ExpandByID sweeps a single recurrence loaded from the repository.
func (p *Projector) ExpandByID(ctx context.Context, id string) (SweepResult, error) {
	rec, err := p.recurrences.GetByID(ctx, id)
	if err != nil {
		return SweepResult{RecurrenceID: id}, err
	}
	if rec == nil {
		return SweepResult{RecurrenceID: id}, fmt.Errorf("recurrence %s: %w", id, recurrence.ErrNotFound)
	}
	return p.ExpandRecurrence(ctx, rec)
}

// ExpandRecurrence runs one projection sweep: it advances from the
// recurrence's last known occurrence and writes the forecast entries that
// are missing, skipping due dates that already have one. The first write
// failure aborts the sweep so no date is silently skipped.
func (p *Projector) ExpandRecurrence(ctx context.Context, rec *recurrence.Recurrence) (SweepResult, error) {
	start := p.clock.Now()
	observed := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSweep(observed, p.clock.Now().Sub(start))
	}()

	if rec == nil {
		observed = metrics.ResultError
		return SweepResult{}, recurrence.ErrNilRecurrence
	}
	result := SweepResult{RecurrenceID: rec.ID}
	if !rec.Active() {
		observed = metrics.ResultSkipped
		return result, nil
	}
	if !rec.Frequency.Valid() {
		observed = metrics.ResultError
		return result, fmt.Errorf("recurrence %s: frequency %q: %w", rec.ID, rec.Frequency, recurrence.ErrUnsupportedFrequency)
	}

	cursor := rec.Cursor()
	if cursor.IsZero() {
		observed = metrics.ResultError
		return result, fmt.Errorf("recurrence %s: %w", rec.ID, recurrence.ErrMissingStartDate)
	}

	now := p.clock.Now().UTC()
	horizon := p.horizon(now)
	originTag := rec.OriginTag()

	for cursor.Before(horizon) && result.Emitted < p.cfg.MaxOccurrences {
		if rec.Ended(cursor) {
			break
		}

		existing, err := p.entries.FindByOriginAndDueDate(ctx, originTag, cursor)
		if err != nil {
			observed = metrics.ResultError
			return result, fmt.Errorf("recurrence %s: lookup %s: %w", rec.ID, cursor.Format("2006-01-02"), err)
		}
		if existing != nil {
			result.Skipped++
		} else {
			entry := p.buildEntry(rec, cursor, now)
			if err := p.write(ctx, entry); err != nil {
				observed = metrics.ResultError
				metrics.AddSweepEntries(result.Emitted)
				metrics.AddSweepSkips(result.Skipped)
				return result, fmt.Errorf("recurrence %s: project %s: %w", rec.ID, cursor.Format("2006-01-02"), err)
			}
			if p.bus != nil {
				if err := p.bus.Publish(ctx, events.EntryProjected{
					RecurrenceID: rec.ID,
					EntryID:      entry.ID,
					DueDate:      entry.DueDate,
					Amount:       entry.Amount,
					Direction:    string(entry.Direction),
					OccurredAt:   now,
				}); err != nil {
					observed = metrics.ResultError
					return result, fmt.Errorf("recurrence %s: publish %s: %w", rec.ID, cursor.Format("2006-01-02"), err)
				}
			}
			result.Emitted++
		}

		cursor = calendar.Advance(cursor, rec.Frequency)
	}

	if err := p.recurrences.SaveNextOccurrence(ctx, rec.ID, cursor); err != nil {
		observed = metrics.ResultError
		return result, fmt.Errorf("recurrence %s: save cursor: %w", rec.ID, err)
	}
	result.Cursor = cursor

	metrics.AddSweepEntries(result.Emitted)
	metrics.AddSweepSkips(result.Skipped)
	return result, nil
}

// ExpandAll sweeps every active recurrence sequentially. One recurrence's
// failure does not block the others; the failures are joined and returned
// together so the caller can decide whether to retry the whole sweep.
func (p *Projector) ExpandAll(ctx context.Context) ([]SweepResult, error) {
	active, err := p.recurrences.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("projector: list active: %w", err)
	}

	results := make([]SweepResult, 0, len(active))
	var failures []error
	for _, rec := range active {
		result, err := p.ExpandRecurrence(ctx, rec)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(failures...)
}

// horizon returns the tighter of the day-count and month-count bounds.
func (p *Projector) horizon(now time.Time) time.Time {
	byDays := now.AddDate(0, 0, p.cfg.HorizonDays)
	byMonths := calendar.AddMonths(now, p.cfg.HorizonMonths)
	if byMonths.Before(byDays) {
		return byMonths
	}
	return byDays
}

func (p *Projector) buildEntry(rec *recurrence.Recurrence, due, now time.Time) *ledger.Entry {
	return &ledger.Entry{
		ID:          uuid.NewString(),
		Direction:   rec.Direction,
		Amount:      rec.Amount,
		Description: rec.Description,
		AccountID:   rec.AccountID,
		CategoryID:  rec.CategoryID,
		Date:        due,
		DueDate:     due,
		Status:      ledger.StatusForecast,
		OriginTag:   rec.OriginTag(),
		CreatedAt:   now,
	}
}

func (p *Projector) write(ctx context.Context, entry *ledger.Entry) error {
	op := func(ctx context.Context) error {
		_, err := p.writer.Write(ctx, entry)
		return err
	}
	if p.retrier == nil {
		return op(ctx)
	}
	return p.retrier.Do(ctx, op)
}
