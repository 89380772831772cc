// Package datecode decodes packed "YYYYDDD" manufacture and expiry codes.
package datecode

import (
	"math"
	"strconv"
	"time"
)

// RegionalOffset is the fixed civil-time offset of the survey region.
// Decoded dates are expressed in this calendar regardless of the local zone.
const RegionalOffset = 5*time.Hour + 30*time.Minute

// Layout is the textual form of a decoded date.
const Layout = "2006-01-02"

// Placeholder is rendered in place of a date or freshness that cannot be decoded.
const Placeholder = "N/A"

const (
	minCodeLen = 7
	yearDigits = 4
	secsPerDay = 24 * 60 * 60
)

// Region is the fixed zone matching RegionalOffset.
var Region = time.FixedZone("UTC+05:30", int(RegionalOffset/time.Second))

// Day is a calendar day decoded from a code. The zero value is the invalid sentinel.
type Day struct {
	// Time is midnight UTC of the decoded calendar day.
	Time  time.Time
	Valid bool
}

// String returns the day as YYYY-MM-DD, or Placeholder when invalid.
func (d Day) String() string {
	if !d.Valid {
		return Placeholder
	}
	return d.Time.Format(Layout)
}

// DecodeDayOfYear converts a "YYYYDDD" code into a calendar day. The first four
// characters are the year and the rest the 1-based day of that year. Days past
// the end of the year roll into the following year. It never fails loudly: a
// short or non-numeric code yields the invalid Day.
func DecodeDayOfYear(code string) Day {
	if len(code) < minCodeLen {
		return Day{}
	}
	year, ok := parseDigits(code[:yearDigits])
	if !ok {
		return Day{}
	}
	day, ok := parseDigits(code[yearDigits:])
	if !ok {
		return Day{}
	}
	utc := time.Date(year, time.January, day, 0, 0, 0, 0, time.UTC)
	return Day{Time: calendarDay(utc.In(Region)), Valid: true}
}

// FreshnessDays returns the whole days elapsed from the manufacture code's day
// to today's calendar day. A manufacture day in the future yields 0. The bool
// is false when the code cannot be decoded.
func FreshnessDays(mfgCode string, today time.Time) (int, bool) {
	mfg := DecodeDayOfYear(mfgCode)
	if !mfg.Valid {
		return 0, false
	}
	start := calendarDay(today)
	days := int(math.Round(float64(start.Unix()-mfg.Time.Unix()) / secsPerDay))
	if days < 0 {
		days = 0
	}
	return days, true
}

// Freshness formats FreshnessDays for display.
func Freshness(mfgCode string, today time.Time) string {
	days, ok := FreshnessDays(mfgCode, today)
	if !ok {
		return Placeholder
	}
	return strconv.Itoa(days) + "d"
}

// calendarDay keeps the calendar date of t in its own location as midnight UTC.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
