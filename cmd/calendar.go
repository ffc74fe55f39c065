package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/misterclayt0n/practicebuddy/internal/stats"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

// details is a flag to enable verbose session details.
var details bool

// intensityColors colors a day by how long was practiced on it (see stats.Intensity).
var intensityColors = []*color.Color{
	color.New(color.Faint),
	color.New(color.FgGreen),
	color.New(color.FgHiGreen),
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgHiRed, color.Bold),
}

// calendarCmd prints the month grid. Days with practice are colored by how long was
// practiced and marked with an asterisk; today is underlined.
var calendarCmd = &cobra.Command{
	Use:   "calendar [month] [year]",
	Short: "Display a calendar of practice days, colored by practice time",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		// Determine month and year (default to current month/year).
		today := now()
		month := today.Month()
		year := today.Year()
		if len(args) >= 1 {
			m, err := strconv.Atoi(args[0])
			if err != nil || m < 1 || m > 12 {
				return fmt.Errorf("invalid month: %s", args[0])
			}
			month = time.Month(m)
		}
		if len(args) == 2 {
			y, err := strconv.Atoi(args[1])
			if err != nil || y < 1 {
				return fmt.Errorf("invalid year: %s", args[1])
			}
			year = y
		}

		sessions, err := st.ListSessions(cmd.Context(), user.UID)
		if err != nil {
			return fmt.Errorf("failed to get sessions: %w", err)
		}

		cal, err := stats.CalendarGrid(year, month, loc, sessions)
		if err != nil {
			return err
		}

		header := fmt.Sprintf("%s %d", month.String(), year)
		fmt.Println(centerText(header, 21))
		fmt.Println("Su Mo Tu We Th Fr Sa")

		todayKey := today.Format(utils.DayLayout)
		monthMinutes := 0
		for _, week := range cal.Weeks {
			for _, cell := range week {
				if cell.Blank {
					fmt.Print("   ")
					continue
				}
				monthMinutes += cell.Minutes

				dayStr := fmt.Sprintf("%2d", cell.Date.Day())
				c := intensityColors[stats.Intensity(cell.Minutes)]
				if len(cell.Sessions) > 0 {
					dayStr = c.Sprint(dayStr) + "*"
				} else {
					dayStr = c.Sprint(dayStr) + " "
				}
				if cell.Date.Format(utils.DayLayout) == todayKey {
					dayStr = color.New(color.Underline).Sprint(dayStr)
				}
				fmt.Print(dayStr)
			}
			fmt.Println()
		}
		fmt.Println()

		fmt.Printf("Practiced %s this month.\n\n", utils.FormatMinutes(monthMinutes))

		fmt.Println("Legend:")
		for i, label := range []string{"< 30m", "30m - 1h", "1h - 1h30", "1h30+"} {
			fmt.Printf("  %s: %s\n", intensityColors[i+1].Sprint("██"), label)
		}

		if details {
			fmt.Println("\nSession Details:")
			for _, week := range cal.Weeks {
				for _, cell := range week {
					if cell.Blank || len(cell.Sessions) == 0 {
						continue
					}
					fmt.Printf("\n%s:\n", cell.Date.Format("Mon, 02 Jan 2006"))
					for _, s := range cell.Sessions {
						names := make([]string, 0, len(s.Items))
						for _, item := range s.Items {
							names = append(names, item.Name)
						}
						fmt.Printf("  Session %s at %s, %s: %s\n",
							shortID(s.ID), s.Date.In(loc).Format("15:04"),
							utils.FormatMinutes(s.TotalDuration), strings.Join(names, ", "))
					}
				}
			}
		}

		return nil
	},
}

// centerText centers the given string in a field of the specified width.
func centerText(s string, width int) string {
	if len(s) >= width {
		return s
	}
	padding := (width - len(s)) / 2
	return strings.Repeat(" ", padding) + s
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().BoolVarP(&details, "details", "v", false, "Print additional session details")
}
