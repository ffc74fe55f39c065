package models

import (
	"strings"
	"time"
)

// DefaultCategories are given to every new user.
var DefaultCategories = []string{"General", "Technique", "Repertoire", "Sight Reading"}

// DefaultCategory is used for session items that carry no category of their own.
const DefaultCategory = "General"

type User struct {
	UID         string       `json:"uid" toml:"uid"`
	Email       string       `json:"email" toml:"email"`
	DisplayName string       `json:"display_name" toml:"display_name"`
	Categories  []string     `json:"categories" toml:"categories"`
	Settings    UserSettings `json:"settings" toml:"settings"`
	CreatedAt   time.Time    `json:"created_at" toml:"created_at"`
}

type UserSettings struct {
	DailyGoalInMinutes     int `json:"daily_goal_in_minutes" toml:"daily_goal_in_minutes"`
	WeeklyGoalInMinutes    int `json:"weekly_goal_in_minutes" toml:"weekly_goal_in_minutes"`
	DefaultSessionDuration int `json:"default_session_duration" toml:"default_session_duration"`
}

// DefaultSettings returns the settings a user starts with.
func DefaultSettings() UserSettings {
	return UserSettings{
		DailyGoalInMinutes:     60,
		WeeklyGoalInMinutes:    300,
		DefaultSessionDuration: 30,
	}
}

// NewUser is the input for creating a user record.
type NewUser struct {
	Email        string
	DisplayName  string
	PasswordHash string
}

// UserUpdate holds the fields to merge into a user. Nil fields are left alone.
type UserUpdate struct {
	DisplayName *string
	Categories  []string
	Settings    *UserSettings
}

// NormalizeEmail trims and lowercases an email so lookups are case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCategories trims names, drops empties and removes duplicates, keeping first-seen order.
func NormalizeCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// HasCategory reports whether the user already has the category.
func (u *User) HasCategory(name string) bool {
	name = strings.TrimSpace(name)
	for _, c := range u.Categories {
		if c == name {
			return true
		}
	}
	return false
}
