package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/stats"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

var (
	filterDay         string
	filterCategory    string
	filterSpontaneous bool
)

// historyCmd shows the session history grouped by day.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display session history, optionally filtered by day and/or category",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		sessions, err := st.ListSessions(cmd.Context(), user.UID)
		if err != nil {
			return fmt.Errorf("failed to retrieve sessions: %w", err)
		}

		if filterDay != "" {
			day, err := utils.ParseDay(filterDay, loc)
			if err != nil {
				return err
			}
			key := day.Format(utils.DayLayout)
			sessions = filterSessions(sessions, func(s models.PracticeSession) bool {
				return utils.DayKey(s.Date, loc) == key
			})
		}

		// Case insensitive match on any item's category.
		if filterCategory != "" {
			sessions = filterSessions(sessions, func(s models.PracticeSession) bool {
				for _, item := range s.Items {
					if strings.EqualFold(item.Category, filterCategory) {
						return true
					}
				}
				return false
			})
		}

		if filterSpontaneous {
			sessions = filterSessions(sessions, func(s models.PracticeSession) bool { return s.IsSpontaneous })
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		summary, err := stats.Summarize(sessions, now(), user.Settings)
		if err != nil {
			return err
		}
		printMetric("Sessions", summary.TotalSessions)
		printMetric("Total time", utils.FormatMinutes(summary.TotalMinutes))
		printMetric("Average session", utils.FormatMinutes(summary.AverageSessionMinutes))
		fmt.Println()

		// Group sessions by local day.
		grouped := make(map[string][]models.PracticeSession)
		for _, s := range sessions {
			day := utils.DayKey(s.Date, loc)
			grouped[day] = append(grouped[day], s)
		}

		var days []string
		for d := range grouped {
			days = append(days, d)
		}
		sort.Strings(days)

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		for _, d := range days {
			dayDate, _ := utils.ParseDay(d, loc)
			fmt.Printf("%s\n", cyan(dayDate.Format("Mon, 02 Jan 2006")))

			sList := grouped[d]
			sort.SliceStable(sList, func(i, j int) bool {
				return sList[i].Date.Before(sList[j].Date)
			})
			for _, s := range sList {
				names := make([]string, 0, len(s.Items))
				for _, item := range s.Items {
					names = append(names, item.Name)
				}
				kind := ""
				if s.IsSpontaneous {
					kind = " (spontaneous)"
				}
				fmt.Printf("  %s %s %7s  %s%s\n",
					faint(shortID(s.ID)),
					s.Date.In(loc).Format("15:04"),
					utils.FormatMinutes(s.TotalDuration),
					strings.Join(names, ", "),
					kind,
				)
				if s.Notes != "" {
					fmt.Printf("      📝 %s\n", s.Notes)
				}
			}
		}

		return nil
	},
}

func filterSessions(sessions []models.PracticeSession, keep func(models.PracticeSession) bool) []models.PracticeSession {
	var filtered []models.PracticeSession
	for _, s := range sessions {
		if keep(s) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&filterDay, "day", "d", "", "Filter by day (e.g. 2026-02-07 or 07/02/26)")
	historyCmd.Flags().StringVarP(&filterCategory, "category", "c", "", "Filter by item category (case insensitive)")
	historyCmd.Flags().BoolVarP(&filterSpontaneous, "spontaneous", "s", false, "Only spontaneous sessions")
}
