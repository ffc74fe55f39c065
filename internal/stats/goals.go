package stats

import (
	"math"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
)

// Goal is progress toward a minute target. Set is false when no target is configured,
// in which case Percent is 0.
type Goal struct {
	Minutes int
	Target  int
	Percent int
	Set     bool
}

func progress(minutes, target int) Goal {
	g := Goal{Minutes: minutes, Target: target}
	if target <= 0 {
		return g
	}
	g.Set = true
	g.Percent = int(math.Min(100, math.Round(100*float64(minutes)/float64(target))))
	return g
}

// WeeklyGoal measures this week's practice against the weekly goal.
func WeeklyGoal(sessions []models.PracticeSession, now time.Time, settings models.UserSettings) (Goal, error) {
	if err := validate(sessions); err != nil {
		return Goal{}, err
	}
	start := utils.StartOfWeek(now)
	return progress(sumBetween(sessions, start, start.AddDate(0, 0, 7)), settings.WeeklyGoalInMinutes), nil
}

// DailyGoal measures today's practice against the daily goal.
func DailyGoal(sessions []models.PracticeSession, now time.Time, settings models.UserSettings) (Goal, error) {
	if err := validate(sessions); err != nil {
		return Goal{}, err
	}
	start := utils.StartOfDay(now)
	return progress(sumBetween(sessions, start, start.AddDate(0, 0, 1)), settings.DailyGoalInMinutes), nil
}

// Summary holds the headline numbers of the dashboard and history views.
type Summary struct {
	TotalSessions         int
	TotalMinutes          int
	AverageSessionMinutes int
	CurrentStreak         int
	LongestStreak         int
	Today                 Goal
	Week                  Goal
}

func Summarize(sessions []models.PracticeSession, now time.Time, settings models.UserSettings) (*Summary, error) {
	if err := validate(sessions); err != nil {
		return nil, err
	}

	sum := &Summary{TotalSessions: len(sessions)}
	for _, s := range sessions {
		sum.TotalMinutes += s.TotalDuration
	}
	if sum.TotalSessions > 0 {
		sum.AverageSessionMinutes = int(math.Round(float64(sum.TotalMinutes) / float64(sum.TotalSessions)))
	}

	var err error
	if sum.CurrentStreak, err = CurrentStreak(sessions, now); err != nil {
		return nil, err
	}
	if sum.LongestStreak, err = LongestStreak(sessions, now); err != nil {
		return nil, err
	}
	if sum.Today, err = DailyGoal(sessions, now, settings); err != nil {
		return nil, err
	}
	if sum.Week, err = WeeklyGoal(sessions, now, settings); err != nil {
		return nil, err
	}
	return sum, nil
}
