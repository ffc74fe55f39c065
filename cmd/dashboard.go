package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/misterclayt0n/practicebuddy/internal/stats"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

const (
	barWidth     = 30
	heatMapDays  = 90
	trendDays    = 30
	weeklyPoints = 4
)

// heatColors follow stats.Intensity, from no practice to 1h30+.
var heatColors = []lipgloss.Color{"#2d333b", "#0e4429", "#006d32", "#26a641", "#39d353"}

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"status"},
	Short:   "Show streaks, goal progress, weekly charts, categories and the activity heat map",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		sessions, err := st.ListSessions(cmd.Context(), user.UID)
		if err != nil {
			return fmt.Errorf("failed to retrieve sessions: %w", err)
		}

		t := now()
		summary, err := stats.Summarize(sessions, t, user.Settings)
		if err != nil {
			return err
		}

		printBoxedHeader("PRACTICE DASHBOARD")
		printMetric("Total sessions", summary.TotalSessions)
		printMetric("Total practice", utils.FormatMinutes(summary.TotalMinutes))
		printMetric("Average session", utils.FormatMinutes(summary.AverageSessionMinutes))
		printMetric("Current streak", pluralDays(summary.CurrentStreak))
		printMetric("Longest streak", pluralDays(summary.LongestStreak))
		fmt.Println()

		printGoal("Today", summary.Today)
		printGoal("This week", summary.Week)
		fmt.Println()

		daily, err := stats.DailySeries(sessions, t)
		if err != nil {
			return err
		}
		printSection("This week")
		printBars(daily, "#7aa2f7")

		weekly, err := stats.WeeklySeries(sessions, t, weeklyPoints)
		if err != nil {
			return err
		}
		printSection(fmt.Sprintf("Last %d weeks", weeklyPoints))
		printBars(weekly, "#bb9af7")

		trend, err := stats.TrailingSeries(sessions, t, trendDays)
		if err != nil {
			return err
		}
		printSection(fmt.Sprintf("Last %d days", trendDays))
		fmt.Printf("  %s\n  %s → %s\n\n", sparkline(trend), trend[0].Label, trend[len(trend)-1].Label)

		categories, err := stats.Categories(sessions)
		if err != nil {
			return err
		}
		if len(categories) > 0 {
			printSection("Categories")
			points := make([]stats.Point, len(categories))
			for i, c := range categories {
				points[i] = stats.Point{Label: c.Name, Minutes: c.Minutes}
			}
			peak := maxMinutes(points)
			for _, c := range categories {
				bar := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(strings.Repeat("█", scale(c.Minutes, peak)))
				fmt.Printf("  %-16s %s %s\n", truncate(c.Name, 16), bar, utils.FormatMinutes(c.Minutes))
			}
			fmt.Println()
		}

		heat, err := stats.HeatMap(sessions, t, heatMapDays)
		if err != nil {
			return err
		}
		printSection("Activity")
		printHeatMap(heat)

		return nil
	},
}

// printBoxedHeader prints the title in a Unicode box with a fixed width.
func printBoxedHeader(title string) {
	width := 40
	cyanBold := color.New(color.FgCyan, color.Bold).SprintFunc()
	border := strings.Repeat("═", width)
	fmt.Println(cyanBold("╔" + border + "╗"))
	fmt.Println(cyanBold("║" + padCenter(title, width) + "║"))
	fmt.Println(cyanBold("╚" + border + "╝"))
}

func padCenter(s string, width int) string {
	if len(s) >= width {
		return s
	}
	padding := (width - len(s)) / 2
	return strings.Repeat(" ", padding) + s + strings.Repeat(" ", width-len(s)-padding)
}

// printMetric prints a label and value using bold yellow for the label.
func printMetric(label string, value interface{}) {
	yellowBold := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Printf("  %s: %v\n", yellowBold(label), value)
}

func printSection(title string) {
	fmt.Println(color.New(color.FgGreen, color.Bold).Sprint(title + ":"))
}

func printGoal(label string, g stats.Goal) {
	if !g.Set {
		printMetric(label+" goal", fmt.Sprintf("%s (no goal set)", utils.FormatMinutes(g.Minutes)))
		return
	}
	filled := g.Percent * barWidth / 100
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(heatColors[0]).Render(strings.Repeat("░", barWidth-filled))
	printMetric(label+" goal", fmt.Sprintf("%s %3d%% (%s / %s)",
		bar, g.Percent, utils.FormatMinutes(g.Minutes), utils.FormatMinutes(g.Target)))
}

func printBars(points []stats.Point, hex string) {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	peak := maxMinutes(points)
	for _, p := range points {
		fmt.Printf("  %-15s %s %s\n", p.Label, style.Render(strings.Repeat("█", scale(p.Minutes, peak))), utils.FormatMinutes(p.Minutes))
	}
	fmt.Println()
}

// printHeatMap prints one row per weekday and one column per week.
func printHeatMap(weeks [][]stats.HeatCell) {
	labels := []string{"Sun", "", "Tue", "", "Thu", "", "Sat"}
	for day := 0; day < 7; day++ {
		var b strings.Builder
		for _, week := range weeks {
			cell := week[day]
			if cell.Blank {
				b.WriteString("  ")
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(heatColors[cell.Intensity]).Render("■") + " ")
		}
		fmt.Printf("  %-3s %s\n", labels[day], b.String())
	}

	var legend strings.Builder
	for _, c := range heatColors {
		legend.WriteString(lipgloss.NewStyle().Foreground(c).Render("■") + " ")
	}
	fmt.Printf("\n      Less %sMore\n", legend.String())
}

func sparkline(points []stats.Point) string {
	ticks := []rune("▁▂▃▄▅▆▇█")
	peak := maxMinutes(points)
	var b strings.Builder
	for _, p := range points {
		if peak == 0 {
			b.WriteRune(ticks[0])
			continue
		}
		b.WriteRune(ticks[p.Minutes*(len(ticks)-1)/peak])
	}
	return b.String()
}

func maxMinutes(points []stats.Point) int {
	peak := 0
	for _, p := range points {
		if p.Minutes > peak {
			peak = p.Minutes
		}
	}
	return peak
}

// scale maps minutes onto the bar width; any practice gets at least one block.
func scale(minutes, peak int) int {
	if peak == 0 || minutes <= 0 {
		return 0
	}
	n := minutes * barWidth / peak
	if n == 0 {
		n = 1
	}
	return n
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
