package billing

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveCompetencyBeforeClosingDay(t *testing.T) {
	c, err := ResolveCompetency(date(2025, time.September, 10), 15)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.String() != "2025-09" {
		t.Fatalf("expected 2025-09, got %s", c)
	}
}

func TestResolveCompetencyAfterClosingDay(t *testing.T) {
	c, err := ResolveCompetency(date(2025, time.September, 20), 15)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.String() != "2025-10" {
		t.Fatalf("expected 2025-10, got %s", c)
	}
}

func TestResolveCompetencyOnClosingDayStaysInMonth(t *testing.T) {
	c, err := ResolveCompetency(date(2025, time.September, 15), 15)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.String() != "2025-09" {
		t.Fatalf("expected 2025-09, got %s", c)
	}
}

func TestResolveCompetencyDecemberRollsToJanuary(t *testing.T) {
	c, err := ResolveCompetency(date(2025, time.December, 28), 15)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.String() != "2026-01" {
		t.Fatalf("expected 2026-01, got %s", c)
	}
}

func TestResolveCompetencyRejectsBadClosingDay(t *testing.T) {
	for _, day := range []int{0, -1, 32} {
		if _, err := ResolveCompetency(date(2025, time.March, 5), day); !errors.Is(err, ErrInvalidClosingDay) {
			t.Fatalf("closing day %d: expected ErrInvalidClosingDay, got %v", day, err)
		}
	}
}

func TestParseCompetency(t *testing.T) {
	c, err := ParseCompetency("2025-09")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.Time().Equal(date(2025, time.September, 1)) {
		t.Fatalf("expected first of month, got %s", c.Time())
	}
	if _, err := ParseCompetency("2025/09"); !errors.Is(err, ErrInvalidCompetency) {
		t.Fatalf("expected ErrInvalidCompetency, got %v", err)
	}
}

func TestCompetencyAddMonths(t *testing.T) {
	c, _ := ParseCompetency("2025-11")
	if got := c.AddMonths(2).String(); got != "2026-01" {
		t.Fatalf("expected 2026-01, got %s", got)
	}
}

func TestCompetencyDueDateClampsShortMonth(t *testing.T) {
	c, _ := ParseCompetency("2025-02")
	due, err := c.DueDate(31)
	if err != nil {
		t.Fatalf("due date: %v", err)
	}
	if !due.Equal(date(2025, time.February, 28)) {
		t.Fatalf("expected 2025-02-28, got %s", due)
	}
}
