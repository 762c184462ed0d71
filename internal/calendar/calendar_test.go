package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvanceWeekly(t *testing.T) {
	got := Advance(date(2025, time.March, 28), FrequencyWeekly)
	want := date(2025, time.April, 4)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAdvanceMonthlyPreservesDay(t *testing.T) {
	got := Advance(date(2025, time.March, 10), FrequencyMonthly)
	want := date(2025, time.April, 10)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAdvanceMonthlyClampsToShortMonth(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"jan31 to feb28", date(2025, time.January, 31), date(2025, time.February, 28)},
		{"jan31 to leap feb29", date(2024, time.January, 31), date(2024, time.February, 29)},
		{"mar31 to apr30", date(2025, time.March, 31), date(2025, time.April, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Advance(tc.in, FrequencyMonthly)
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestAdvanceMonthlyFromDay31Sweep(t *testing.T) {
	// A monthly series started on the 31st must clamp each short month
	// instead of overflowing into the next one.
	cursor := date(2025, time.January, 31)
	want := []time.Time{
		date(2025, time.February, 28),
		date(2025, time.March, 28),
		date(2025, time.April, 28),
	}
	for i, w := range want {
		cursor = Advance(cursor, FrequencyMonthly)
		if !cursor.Equal(w) {
			t.Fatalf("step %d: expected %s, got %s", i+1, w, cursor)
		}
	}
}

func TestAdvanceYearlyClampsLeapDay(t *testing.T) {
	got := Advance(date(2024, time.February, 29), FrequencyYearly)
	want := date(2025, time.February, 28)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAddMonthsDecemberRollover(t *testing.T) {
	got := AddMonths(date(2025, time.December, 15), 1)
	want := date(2026, time.January, 15)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAddMonthsClampsTo30DayMonth(t *testing.T) {
	got := AddMonths(date(2025, time.January, 31), 3)
	want := date(2025, time.April, 30)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAddMonthsMultipleSteps(t *testing.T) {
	got := AddMonths(date(2025, time.October, 31), 4)
	want := date(2026, time.February, 28)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseFrequency(t *testing.T) {
	if _, ok := ParseFrequency("monthly"); !ok {
		t.Fatalf("monthly should parse")
	}
	if _, ok := ParseFrequency("daily"); ok {
		t.Fatalf("daily is not a supported frequency")
	}
	if _, ok := ParseFrequency(""); ok {
		t.Fatalf("empty frequency should not parse")
	}
}
