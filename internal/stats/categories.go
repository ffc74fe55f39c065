package stats

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/misterclayt0n/practicebuddy/internal/models"
)

// CategoryTotal is the practiced time of one category with its chart color.
type CategoryTotal struct {
	Name    string
	Minutes int
	Color   string // Hex, e.g. "#e05c5c".
}

// CategoryMinutes sums item durations per category across all sessions.
func CategoryMinutes(sessions []models.PracticeSession) (map[string]int, error) {
	if err := validate(sessions); err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for _, s := range sessions {
		for _, item := range s.Items {
			out[item.Category] += item.DurationInMinutes
		}
	}
	return out, nil
}

// Categories returns the per-category totals sorted by name, each colored by its
// position so a given category set always renders with the same colors.
func Categories(sessions []models.PracticeSession) ([]CategoryTotal, error) {
	byCategory, err := CategoryMinutes(sessions)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	totals := make([]CategoryTotal, 0, len(names))
	for i, name := range names {
		totals = append(totals, CategoryTotal{
			Name:    name,
			Minutes: byCategory[name],
			Color:   CategoryColor(i),
		})
	}
	return totals, nil
}

// CategoryColor steps the hue by the golden angle (137°) per index.
func CategoryColor(index int) string {
	hue := float64((index * 137) % 360)
	return colorful.Hsl(hue, 0.7, 0.6).Hex()
}
