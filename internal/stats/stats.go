// Package stats derives the figures shown by the dashboard, history and calendar
// from sessions already fetched from the store. Nothing here touches storage.
//
// Every function is deterministic in its arguments. Day boundaries and the
// Sunday-first week are taken in the location of the reference time passed in.
package stats

import (
	"fmt"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
)

// Point is one bar of a chart.
type Point struct {
	Label   string
	Start   time.Time
	Minutes int
}

// validate rejects sessions the aggregations cannot place or sum.
func validate(sessions []models.PracticeSession) error {
	for i := range sessions {
		if err := sessions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SumBetween adds up the total duration of sessions dated in [start, end).
func SumBetween(sessions []models.PracticeSession, start, end time.Time) (int, error) {
	if err := validate(sessions); err != nil {
		return 0, err
	}
	return sumBetween(sessions, start, end), nil
}

func sumBetween(sessions []models.PracticeSession, start, end time.Time) int {
	total := 0
	for _, s := range sessions {
		if !s.Date.Before(start) && s.Date.Before(end) {
			total += s.TotalDuration
		}
	}
	return total
}

// minutesByDay totals session durations per local calendar day.
func minutesByDay(sessions []models.PracticeSession, loc *time.Location) map[string]int {
	out := make(map[string]int)
	for _, s := range sessions {
		out[utils.DayKey(s.Date, loc)] += s.TotalDuration
	}
	return out
}

// DailySeries returns one point per day of the current week, Sunday first.
func DailySeries(sessions []models.PracticeSession, now time.Time) ([]Point, error) {
	if err := validate(sessions); err != nil {
		return nil, err
	}

	start := utils.StartOfWeek(now)
	points := make([]Point, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		points = append(points, Point{
			Label:   day.Format("Mon"),
			Start:   day,
			Minutes: sumBetween(sessions, day, day.AddDate(0, 0, 1)),
		})
	}
	return points, nil
}

// WeeklySeries returns the trailing weeks ending with the current one, oldest first.
func WeeklySeries(sessions []models.PracticeSession, now time.Time, weeks int) ([]Point, error) {
	if weeks <= 0 {
		return nil, fmt.Errorf("week count must be positive, got %d: %w", weeks, models.ErrInvalidRecord)
	}
	if err := validate(sessions); err != nil {
		return nil, err
	}

	current := utils.StartOfWeek(now)
	points := make([]Point, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		start := current.AddDate(0, 0, -7*i)
		end := start.AddDate(0, 0, 7)
		points = append(points, Point{
			Label:   fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.AddDate(0, 0, -1).Format("Jan 2")),
			Start:   start,
			Minutes: sumBetween(sessions, start, end),
		})
	}
	return points, nil
}

// TrailingSeries returns one point per day for the last days days, ending today.
func TrailingSeries(sessions []models.PracticeSession, now time.Time, days int) ([]Point, error) {
	if days <= 0 {
		return nil, fmt.Errorf("day count must be positive, got %d: %w", days, models.ErrInvalidRecord)
	}
	if err := validate(sessions); err != nil {
		return nil, err
	}

	byDay := minutesByDay(sessions, now.Location())
	today := utils.StartOfDay(now)
	points := make([]Point, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		points = append(points, Point{
			Label:   day.Format("Jan 02"),
			Start:   day,
			Minutes: byDay[day.Format(utils.DayLayout)],
		})
	}
	return points, nil
}

// HeatCell is one day of the activity heat map. Blank cells only pad the first week.
type HeatCell struct {
	Date      time.Time
	Minutes   int
	Intensity int // 0 (nothing) to 4.
	Blank     bool
}

// Intensity buckets practiced minutes for the heat map.
func Intensity(minutes int) int {
	switch {
	case minutes <= 0:
		return 0
	case minutes < 30:
		return 1
	case minutes < 60:
		return 2
	case minutes < 90:
		return 3
	default:
		return 4
	}
}

// HeatMap covers today and the days days before it, grouped into Sunday-first weeks.
// The first week is padded with blanks before its first day and the last one after today.
func HeatMap(sessions []models.PracticeSession, now time.Time, days int) ([][]HeatCell, error) {
	if days < 0 {
		return nil, fmt.Errorf("day count cannot be negative, got %d: %w", days, models.ErrInvalidRecord)
	}
	if err := validate(sessions); err != nil {
		return nil, err
	}

	byDay := minutesByDay(sessions, now.Location())
	today := utils.StartOfDay(now)
	first := today.AddDate(0, 0, -days)

	var cells []HeatCell
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, HeatCell{Blank: true})
	}
	for day := first; !day.After(today); day = day.AddDate(0, 0, 1) {
		minutes := byDay[day.Format(utils.DayLayout)]
		cells = append(cells, HeatCell{Date: day, Minutes: minutes, Intensity: Intensity(minutes)})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, HeatCell{Blank: true})
	}

	weeks := make([][]HeatCell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks, nil
}
