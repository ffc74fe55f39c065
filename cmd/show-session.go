package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

var showSessionCmd = &cobra.Command{
	Use:   "show-session [session]",
	Short: "Show a recorded session (the latest when no id is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		s, err := resolveSession(cmd.Context(), user, ref)
		if err != nil {
			return err
		}

		printSession(s)
		return nil
	},
}

func printSession(s *models.PracticeSession) {
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	kind := "Routine session"
	if s.IsSpontaneous {
		kind = "Spontaneous session"
	}
	fmt.Printf("%s\n", green(kind))
	fmt.Printf("\n%s %s\n", red("Date:"), utils.FormatLocal(s.Date, loc))
	fmt.Printf("%s %s\n", cyan("ID:"), s.ID)
	fmt.Printf("%s %s\n", red("Duration:"), utils.FormatMinutes(s.TotalDuration))
	if s.Notes != "" {
		fmt.Printf("%s %s\n", cyan("Notes:"), s.Notes)
	}
	fmt.Println()

	tableIndent := "   "
	numColWidth := 4
	nameColWidth := 30
	categoryColWidth := 16
	durationColWidth := 10

	border := func(left, mid, right string) string {
		return tableIndent + left +
			strings.Repeat("─", numColWidth) + mid +
			strings.Repeat("─", nameColWidth) + mid +
			strings.Repeat("─", categoryColWidth) + mid +
			strings.Repeat("─", durationColWidth) + right
	}
	row := func(num, name, category, duration string) string {
		return fmt.Sprintf(tableIndent+"│%-*s│%-*s│%-*s│%*s│",
			numColWidth, num,
			nameColWidth, truncate(name, nameColWidth),
			categoryColWidth, truncate(category, categoryColWidth),
			durationColWidth, duration,
		)
	}

	fmt.Println(border("┌", "┬", "┐"))
	fmt.Println(row("#", "Item", "Category", "Duration"))
	fmt.Println(border("├", "┼", "┤"))
	for i, item := range s.Items {
		fmt.Println(row(fmt.Sprint(i+1), item.Name, item.Category, utils.FormatMinutes(item.DurationInMinutes)))
	}
	fmt.Println(border("└", "┴", "┘"))

	for i, item := range s.Items {
		if item.Notes == "" && len(item.Sections) == 0 {
			continue
		}
		fmt.Printf("\n%s\n", cyan(fmt.Sprintf("%d. %s", i+1, item.Name)))
		for _, sec := range item.Sections {
			fmt.Printf("   • %s %s\n", sec.Name, yellow(utils.FormatMinutes(sec.DurationInMinutes)))
		}
		if item.Notes != "" {
			fmt.Printf("   %s %s\n", green("Notes:"), item.Notes)
		}
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func init() {
	rootCmd.AddCommand(showSessionCmd)
}
