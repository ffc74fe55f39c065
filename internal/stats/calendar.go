package stats

import (
	"fmt"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
)

// CalendarCell is one square of a month view. Padding cells are Blank.
type CalendarCell struct {
	Blank    bool
	Date     time.Time
	Sessions []models.PracticeSession
	Minutes  int
}

// Calendar is a month laid out as Sunday-first weeks of exactly seven cells.
type Calendar struct {
	Year  int
	Month time.Month
	Weeks [][]CalendarCell
}

// CalendarGrid lays out the month, placing each session on the local day it falls on.
func CalendarGrid(year int, month time.Month, loc *time.Location, sessions []models.PracticeSession) (*Calendar, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d: %w", month, models.ErrInvalidRecord)
	}
	if err := validate(sessions); err != nil {
		return nil, err
	}

	byDay := make(map[string][]models.PracticeSession)
	for _, s := range sessions {
		key := utils.DayKey(s.Date, loc)
		byDay[key] = append(byDay[key], s)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lead := int(first.Weekday())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	rows := (lead + daysInMonth + 6) / 7

	cells := make([]CalendarCell, rows*7)
	for i := range cells {
		day := i - lead + 1
		if day < 1 || day > daysInMonth {
			cells[i].Blank = true
			continue
		}
		date := time.Date(year, month, day, 0, 0, 0, 0, loc)
		daySessions := byDay[date.Format(utils.DayLayout)]
		cells[i].Date = date
		cells[i].Sessions = daySessions
		for _, s := range daySessions {
			cells[i].Minutes += s.TotalDuration
		}
	}

	cal := &Calendar{Year: year, Month: month}
	for i := 0; i < len(cells); i += 7 {
		cal.Weeks = append(cal.Weeks, cells[i:i+7])
	}
	return cal, nil
}
