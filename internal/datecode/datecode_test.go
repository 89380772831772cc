package datecode

import (
	"testing"
	"time"
)

func TestDecodeDayOfYearFirstDay(t *testing.T) {
	got := DecodeDayOfYear("2024001")
	if !got.Valid {
		t.Fatalf("expected valid day")
	}
	if got.String() != "2024-01-01" {
		t.Fatalf("expected 2024-01-01, got %s", got)
	}
}

func TestDecodeDayOfYearLeapYearEnd(t *testing.T) {
	if got := DecodeDayOfYear("2024366").String(); got != "2024-12-31" {
		t.Fatalf("expected 2024-12-31, got %s", got)
	}
}

func TestDecodeDayOfYearRollsOver(t *testing.T) {
	if got := DecodeDayOfYear("2023366").String(); got != "2024-01-01" {
		t.Fatalf("expected 2024-01-01, got %s", got)
	}
	if got := DecodeDayOfYear("2023400").String(); got != "2024-02-04" {
		t.Fatalf("expected 2024-02-04, got %s", got)
	}
}

func TestDecodeDayOfYearMidYear(t *testing.T) {
	if got := DecodeDayOfYear("2025100").String(); got != "2025-04-10" {
		t.Fatalf("expected 2025-04-10, got %s", got)
	}
}

func TestDecodeDayOfYearShortDayWidth(t *testing.T) {
	// Day digits have no fixed width beyond the seven character minimum.
	if got := DecodeDayOfYear("2024032").String(); got != "2024-02-01" {
		t.Fatalf("expected 2024-02-01, got %s", got)
	}
	if got := DecodeDayOfYear("20240032").String(); got != "2024-02-01" {
		t.Fatalf("expected 2024-02-01 for padded day, got %s", got)
	}
}

func TestDecodeDayOfYearInvalid(t *testing.T) {
	for _, code := range []string{"", "abc", "202", "202400", "abcd001", "2024abc", "2024-01", "2024 01", "20x4100"} {
		got := DecodeDayOfYear(code)
		if got.Valid {
			t.Fatalf("expected %q to be invalid, got %s", code, got.Time)
		}
		if got.String() != Placeholder {
			t.Fatalf("expected placeholder for %q, got %q", code, got.String())
		}
	}
}

func TestDecodeDayOfYearIgnoresLocalZone(t *testing.T) {
	got := DecodeDayOfYear("2024060")
	if got.Time.Location() != time.UTC {
		t.Fatalf("expected UTC midnight, got %s", got.Time.Location())
	}
	if got.Time.Hour() != 0 || got.Time.Minute() != 0 {
		t.Fatalf("expected midnight, got %s", got.Time)
	}
}

func TestRegionMatchesOffset(t *testing.T) {
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, Region).Zone()
	if offset != 19800 {
		t.Fatalf("expected +05:30 offset, got %d seconds", offset)
	}
}

func TestFreshnessDaysSameDay(t *testing.T) {
	today := time.Date(2025, time.April, 10, 17, 45, 0, 0, time.UTC)
	days, ok := FreshnessDays("2025100", today)
	if !ok || days != 0 {
		t.Fatalf("expected 0 days, got %d (ok=%v)", days, ok)
	}
}

func TestFreshnessDaysOneDayPast(t *testing.T) {
	today := time.Date(2025, time.April, 11, 0, 5, 0, 0, time.UTC)
	days, ok := FreshnessDays("2025100", today)
	if !ok || days != 1 {
		t.Fatalf("expected 1 day, got %d (ok=%v)", days, ok)
	}
}

func TestFreshnessDaysFutureClamped(t *testing.T) {
	today := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	days, ok := FreshnessDays("2025100", today)
	if !ok || days != 0 {
		t.Fatalf("expected clamp to 0, got %d (ok=%v)", days, ok)
	}
}

func TestFreshnessDaysUsesTodaysOwnCalendar(t *testing.T) {
	// 23:30 at UTC-08:00 is already the next day in UTC; the local calendar wins.
	zone := time.FixedZone("UTC-8", -8*60*60)
	today := time.Date(2025, time.April, 12, 23, 30, 0, 0, zone)
	days, ok := FreshnessDays("2025100", today)
	if !ok || days != 2 {
		t.Fatalf("expected 2 days, got %d (ok=%v)", days, ok)
	}
}

func TestFreshnessDaysAcrossYears(t *testing.T) {
	today := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	days, ok := FreshnessDays("2024001", today)
	if !ok || days != 366 {
		t.Fatalf("expected 366 days, got %d (ok=%v)", days, ok)
	}
}

func TestFreshnessDaysInvalid(t *testing.T) {
	if _, ok := FreshnessDays("abc", time.Now()); ok {
		t.Fatalf("expected invalid freshness")
	}
	if got := Freshness("abc", time.Now()); got != Placeholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestFreshnessFormats(t *testing.T) {
	today := time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC)
	if got := Freshness("2025100", today); got != "10d" {
		t.Fatalf("expected 10d, got %q", got)
	}
}
