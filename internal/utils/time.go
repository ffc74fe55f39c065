package utils

import (
	"fmt"
	"time"
)

// DayLayout is the key format for calendar days.
const DayLayout = "2006-01-02"

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Sunday starting t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// DayKey formats t as the calendar day it falls on in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// DaysBetween counts calendar days from a to b. Only the dates matter, so DST
// shifts never turn one day into 23 or 25 hours.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// ParseDay parses a day given as 2006-01-02 or 02/01/06 in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{DayLayout, "02/01/06"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("Failed to parse date %q (use 2006-01-02 or 02/01/06)", s)
}

// FormatLocal returns t formatted in loc.
func FormatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Mon, 02 Jan 2006 15:04")
}
