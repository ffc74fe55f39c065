package stats

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
)

// Wednesday, 2026-03-11, mid-afternoon.
var now = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)

func session(date time.Time, minutes int) models.PracticeSession {
	return models.PracticeSession{
		ID:            date.Format(time.RFC3339),
		Date:          date,
		TotalDuration: minutes,
		Items: []models.PracticeSessionItem{
			{Name: "Item", Category: models.DefaultCategory, DurationInMinutes: minutes},
		},
	}
}

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name string
		days []int
		want int
	}{
		{name: "no sessions", days: nil, want: 0},
		{name: "today and two before", days: []int{0, 1, 2}, want: 3},
		{name: "gap before today", days: []int{2, 3}, want: 0},
		{name: "gap inside", days: []int{0, 1, 3}, want: 2},
		{name: "starts yesterday", days: []int{1, 2, 3, 4}, want: 4},
		{name: "several sessions one day", days: []int{0, 0, 0, 1}, want: 2},
		{name: "only today", days: []int{0}, want: 1},
		{name: "unordered input", days: []int{2, 0, 1}, want: 3},
		{name: "newest day in the future", days: []int{-2, 0, 1}, want: 0},
		{name: "only tomorrow", days: []int{-1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sessions []models.PracticeSession
			for _, d := range tt.days {
				sessions = append(sessions, session(daysAgo(d), 10))
			}
			got, err := CurrentStreak(sessions, now)
			if err != nil {
				t.Fatalf("CurrentStreak() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CurrentStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentStreakUsesLocalDays(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	localNow := time.Date(2026, 3, 11, 10, 0, 0, 0, loc)

	// 01:00 UTC on the 11th is still the 10th at UTC-3.
	sessions := []models.PracticeSession{
		session(time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC), 10),
		session(time.Date(2026, 3, 9, 20, 0, 0, 0, loc), 10),
	}
	got, err := CurrentStreak(sessions, localNow)
	if err != nil {
		t.Fatalf("CurrentStreak() unexpected error: %v", err)
	}
	if got != 2 {
		t.Errorf("CurrentStreak() = %d, want 2", got)
	}
}

func TestLongestStreak(t *testing.T) {
	var sessions []models.PracticeSession
	for _, d := range []int{0, 5, 6, 7, 8, 12, 13} {
		sessions = append(sessions, session(daysAgo(d), 10))
	}
	// Future sessions never count.
	sessions = append(sessions, session(now.AddDate(0, 0, 1), 10))

	got, err := LongestStreak(sessions, now)
	if err != nil {
		t.Fatalf("LongestStreak() unexpected error: %v", err)
	}
	if got != 4 {
		t.Errorf("LongestStreak() = %d, want 4", got)
	}
}

func TestInvalidSessionsAreReported(t *testing.T) {
	bad := []models.PracticeSession{{ID: "no-date", TotalDuration: 10}}

	if _, err := CurrentStreak(bad, now); !errors.Is(err, models.ErrInvalidRecord) {
		t.Errorf("CurrentStreak() expected ErrInvalidRecord, got %v", err)
	}
	if _, err := Categories(bad); !errors.Is(err, models.ErrInvalidRecord) {
		t.Errorf("Categories() expected ErrInvalidRecord, got %v", err)
	}
	if _, err := WeeklyGoal(bad, now, models.DefaultSettings()); !errors.Is(err, models.ErrInvalidRecord) {
		t.Errorf("WeeklyGoal() expected ErrInvalidRecord, got %v", err)
	}
}

func TestSumBetweenIsHalfOpen(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	sessions := []models.PracticeSession{
		session(start, 10),
		session(start.Add(23*time.Hour), 5),
		session(end, 100),
	}

	got, err := SumBetween(sessions, start, end)
	if err != nil {
		t.Fatalf("SumBetween() unexpected error: %v", err)
	}
	if got != 15 {
		t.Errorf("SumBetween() = %d, want 15", got)
	}
}

func TestDailySeries(t *testing.T) {
	sessions := []models.PracticeSession{
		session(time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC), 20),  // Sunday
		session(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), 30), // Wednesday
		session(time.Date(2026, 3, 11, 20, 0, 0, 0, time.UTC), 5),
		session(time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC), 99), // previous Saturday
	}

	points, err := DailySeries(sessions, now)
	if err != nil {
		t.Fatalf("DailySeries() unexpected error: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	if points[0].Label != "Sun" || points[6].Label != "Sat" {
		t.Errorf("unexpected labels %s..%s", points[0].Label, points[6].Label)
	}
	want := []int{20, 0, 0, 35, 0, 0, 0}
	for i, w := range want {
		if points[i].Minutes != w {
			t.Errorf("day %d: expected %d minutes, got %d", i, w, points[i].Minutes)
		}
	}
}

func TestWeeklySeries(t *testing.T) {
	sessions := []models.PracticeSession{
		session(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 40), // this week
		session(time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC), 25), // three weeks back, Sunday
		session(time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC), 99), // outside the window
	}

	points, err := WeeklySeries(sessions, now, 4)
	if err != nil {
		t.Fatalf("WeeklySeries() unexpected error: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	if points[0].Label != "Feb 15 - Feb 21" {
		t.Errorf("unexpected first label %q", points[0].Label)
	}
	if points[3].Label != "Mar 8 - Mar 14" {
		t.Errorf("unexpected last label %q", points[3].Label)
	}
	if points[0].Minutes != 25 || points[3].Minutes != 40 {
		t.Errorf("unexpected totals %d / %d", points[0].Minutes, points[3].Minutes)
	}

	if _, err := WeeklySeries(sessions, now, 0); !errors.Is(err, models.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for zero weeks, got %v", err)
	}
}

func TestTrailingSeries(t *testing.T) {
	sessions := []models.PracticeSession{
		session(daysAgo(0), 10),
		session(daysAgo(29), 20),
		session(daysAgo(30), 99),
	}

	points, err := TrailingSeries(sessions, now, 30)
	if err != nil {
		t.Fatalf("TrailingSeries() unexpected error: %v", err)
	}
	if len(points) != 30 {
		t.Fatalf("expected 30 points, got %d", len(points))
	}
	if points[0].Minutes != 20 || points[29].Minutes != 10 {
		t.Errorf("unexpected ends %d / %d", points[0].Minutes, points[29].Minutes)
	}
	if points[29].Label != "Mar 11" {
		t.Errorf("expected last label Mar 11, got %s", points[29].Label)
	}
}

func TestHeatMap(t *testing.T) {
	sessions := []models.PracticeSession{
		session(daysAgo(0), 95),
		session(daysAgo(1), 45),
	}

	weeks, err := HeatMap(sessions, now, 90)
	if err != nil {
		t.Fatalf("HeatMap() unexpected error: %v", err)
	}

	days := 0
	for _, week := range weeks {
		if len(week) != 7 {
			t.Fatalf("expected 7 cells per week, got %d", len(week))
		}
		for _, cell := range week {
			if !cell.Blank {
				days++
			}
		}
	}
	if days != 91 {
		t.Errorf("expected 91 days, got %d", days)
	}

	// 2026-03-11 is a Wednesday: index 3 of the last week.
	last := weeks[len(weeks)-1]
	if last[3].Intensity != 4 || last[2].Intensity != 2 {
		t.Errorf("unexpected intensities %d / %d", last[3].Intensity, last[2].Intensity)
	}
	if !last[4].Blank {
		t.Error("expected days after today to be blank")
	}
	if !weeks[0][0].Blank && weeks[0][0].Date.Weekday() != time.Sunday {
		t.Error("first week is not Sunday aligned")
	}
}

func TestIntensity(t *testing.T) {
	tests := map[int]int{0: 0, 1: 1, 29: 1, 30: 2, 59: 2, 60: 3, 89: 3, 90: 4, 300: 4}
	for minutes, want := range tests {
		if got := Intensity(minutes); got != want {
			t.Errorf("Intensity(%d) = %d, want %d", minutes, got, want)
		}
	}
}

func TestCategories(t *testing.T) {
	sessions := []models.PracticeSession{
		{
			ID:   "s1",
			Date: now,
			Items: []models.PracticeSessionItem{
				{Name: "C major", Category: "Scales", DurationInMinutes: 20},
				{Name: "Op. 10", Category: "Etude", DurationInMinutes: 15},
			},
		},
		{
			ID:   "s2",
			Date: now,
			Items: []models.PracticeSessionItem{
				{Name: "G major", Category: "Scales", DurationInMinutes: 10},
			},
		},
	}

	byCategory, err := CategoryMinutes(sessions)
	if err != nil {
		t.Fatalf("CategoryMinutes() unexpected error: %v", err)
	}
	if len(byCategory) != 2 || byCategory["Scales"] != 30 || byCategory["Etude"] != 15 {
		t.Errorf("CategoryMinutes() = %v, want Scales:30 Etude:15", byCategory)
	}

	first, err := Categories(sessions)
	if err != nil {
		t.Fatalf("Categories() unexpected error: %v", err)
	}
	second, _ := Categories(sessions)
	if len(first) != 2 || first[0].Name != "Etude" || first[1].Name != "Scales" {
		t.Fatalf("unexpected order: %+v", first)
	}
	for i := range first {
		if first[i].Color != second[i].Color {
			t.Errorf("color of %s changed between calls", first[i].Name)
		}
		if !strings.HasPrefix(first[i].Color, "#") || len(first[i].Color) != 7 {
			t.Errorf("expected hex color, got %q", first[i].Color)
		}
	}
	if first[0].Color == first[1].Color {
		t.Error("expected distinct colors")
	}
}

func TestCalendarGrid(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		lead      int
		days      int
		wantWeeks int
	}{
		// April 2026 starts on a Wednesday and has 30 days.
		{name: "april 2026", year: 2026, month: time.April, lead: 3, days: 30, wantWeeks: 5},
		// February 2026 starts on a Sunday and has 28 days.
		{name: "february 2026", year: 2026, month: time.February, lead: 0, days: 28, wantWeeks: 4},
		// August 2026 starts on a Saturday and has 31 days.
		{name: "august 2026", year: 2026, month: time.August, lead: 6, days: 31, wantWeeks: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal, err := CalendarGrid(tt.year, tt.month, time.UTC, nil)
			if err != nil {
				t.Fatalf("CalendarGrid() unexpected error: %v", err)
			}
			if len(cal.Weeks) != tt.wantWeeks {
				t.Fatalf("expected %d weeks, got %d", tt.wantWeeks, len(cal.Weeks))
			}

			for i := 0; i < tt.lead; i++ {
				if !cal.Weeks[0][i].Blank {
					t.Errorf("cell %d of first week should be blank", i)
				}
			}
			if first := cal.Weeks[0][tt.lead]; first.Blank || first.Date.Day() != 1 {
				t.Errorf("day 1 not at column %d", tt.lead)
			}

			trailing := tt.wantWeeks*7 - tt.lead - tt.days
			last := cal.Weeks[len(cal.Weeks)-1]
			for i := 7 - trailing; i < 7; i++ {
				if !last[i].Blank {
					t.Errorf("cell %d of last week should be blank", i)
				}
			}
		})
	}
}

func TestCalendarGridPlacesSessionsByLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	sessions := []models.PracticeSession{
		// 02:00 UTC on April 2nd is April 1st locally.
		session(time.Date(2026, 4, 2, 2, 0, 0, 0, time.UTC), 25),
		session(time.Date(2026, 4, 1, 12, 0, 0, 0, loc), 15),
	}

	cal, err := CalendarGrid(2026, time.April, loc, sessions)
	if err != nil {
		t.Fatalf("CalendarGrid() unexpected error: %v", err)
	}
	april1 := cal.Weeks[0][3]
	if len(april1.Sessions) != 2 || april1.Minutes != 40 {
		t.Errorf("expected 2 sessions / 40 minutes on April 1, got %d / %d", len(april1.Sessions), april1.Minutes)
	}
	if april2 := cal.Weeks[0][4]; len(april2.Sessions) != 0 {
		t.Errorf("expected no sessions on April 2, got %d", len(april2.Sessions))
	}

	if _, err := CalendarGrid(2026, 13, loc, nil); !errors.Is(err, models.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for month 13, got %v", err)
	}
}

func TestWeeklyGoal(t *testing.T) {
	sessions := []models.PracticeSession{
		session(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), 100),
		session(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 50),
		session(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), 500), // last week
	}

	tests := []struct {
		name    string
		goal    int
		want    int
		wantSet bool
	}{
		{name: "half way", goal: 300, want: 50, wantSet: true},
		{name: "rounded", goal: 450, want: 33, wantSet: true},
		{name: "capped", goal: 100, want: 100, wantSet: true},
		{name: "no goal", goal: 0, want: 0, wantSet: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal, err := WeeklyGoal(sessions, now, models.UserSettings{WeeklyGoalInMinutes: tt.goal})
			if err != nil {
				t.Fatalf("WeeklyGoal() unexpected error: %v", err)
			}
			if goal.Percent != tt.want || goal.Set != tt.wantSet {
				t.Errorf("WeeklyGoal() = %+v, want %d%% set=%v", goal, tt.want, tt.wantSet)
			}
			if goal.Minutes != 150 {
				t.Errorf("expected 150 minutes this week, got %d", goal.Minutes)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	sessions := []models.PracticeSession{
		session(daysAgo(0), 30),
		session(daysAgo(1), 20),
		session(daysAgo(10), 25),
	}

	sum, err := Summarize(sessions, now, models.DefaultSettings())
	if err != nil {
		t.Fatalf("Summarize() unexpected error: %v", err)
	}
	if sum.TotalSessions != 3 || sum.TotalMinutes != 75 || sum.AverageSessionMinutes != 25 {
		t.Errorf("unexpected totals: %+v", sum)
	}
	if sum.CurrentStreak != 2 || sum.LongestStreak != 2 {
		t.Errorf("unexpected streaks: %d / %d", sum.CurrentStreak, sum.LongestStreak)
	}
	if sum.Today.Minutes != 30 || sum.Today.Percent != 50 {
		t.Errorf("unexpected daily goal: %+v", sum.Today)
	}

	empty, err := Summarize(nil, now, models.UserSettings{})
	if err != nil {
		t.Fatalf("Summarize(nil) unexpected error: %v", err)
	}
	if empty.AverageSessionMinutes != 0 || empty.Week.Set {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}
