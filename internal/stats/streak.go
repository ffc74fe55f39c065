package stats

import (
	"sort"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
)

// practiceDays returns the distinct local days holding a session, newest first.
func practiceDays(sessions []models.PracticeSession, loc *time.Location) []time.Time {
	seen := make(map[string]bool)
	var days []time.Time
	for _, s := range sessions {
		day := utils.StartOfDay(s.Date.In(loc))
		key := day.Format(utils.DayLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// CurrentStreak counts consecutive practice days ending today or yesterday.
// A streak is not broken just because nothing has been logged yet today. The newest
// practice day must be today or yesterday, so a session dated in the future yields 0.
func CurrentStreak(sessions []models.PracticeSession, now time.Time) (int, error) {
	if err := validate(sessions); err != nil {
		return 0, err
	}

	days := practiceDays(sessions, now.Location())
	if len(days) == 0 {
		return 0, nil
	}
	if gap := utils.DaysBetween(days[0], now); gap != 0 && gap != 1 {
		return 0, nil
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if utils.DaysBetween(days[i], days[i-1]) != 1 {
			break
		}
		streak++
	}
	return streak, nil
}

// LongestStreak is the longest run of consecutive practice days up to now.
// Days after today are left out.
func LongestStreak(sessions []models.PracticeSession, now time.Time) (int, error) {
	if err := validate(sessions); err != nil {
		return 0, err
	}

	today := utils.StartOfDay(now)
	var days []time.Time
	for _, day := range practiceDays(sessions, now.Location()) {
		if !day.After(today) {
			days = append(days, day)
		}
	}
	longest, run := 0, 0
	for i := range days {
		if i > 0 && utils.DaysBetween(days[i], days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest, nil
}
