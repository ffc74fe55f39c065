package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

var createRoutineCmd = &cobra.Command{
	Use:   "create-routine [file]",
	Short: "Create a new routine from a TOML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		def, err := utils.ParseRoutineFromTOML(args[0])
		if err != nil {
			return fmt.Errorf("Failed to read routine: %w", err)
		}

		id, err := st.CreateRoutine(cmd.Context(), user.UID, def.Input())
		if err != nil {
			return fmt.Errorf("Failed to create routine: %w", err)
		}

		fmt.Printf("✅ Routine '%s' created (%s)\n", def.Name, shortID(id))
		return nil
	},
}

var listRoutinesCmd = &cobra.Command{
	Use:   "list-routines",
	Short: "List your routines",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		routines, err := st.ListRoutines(cmd.Context(), user.UID)
		if err != nil {
			return err
		}
		if len(routines) == 0 {
			fmt.Println("No routines yet. Create one with 'buddy create-routine <file.toml>'.")
			return nil
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		for _, r := range routines {
			fmt.Printf("%s  %-28s %7s  %s\n",
				cyan(shortID(r.ID)), r.Name, utils.FormatMinutes(r.DurationInMinutes), faint(lastPracticed(&r)))
		}
		return nil
	},
}

var showRoutineCmd = &cobra.Command{
	Use:   "show-routine [routine]",
	Short: "Show a routine and its sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		r, err := resolveRoutine(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		title := r.Name
		if r.IsInactive {
			title += " (deleted)"
		}
		fmt.Printf("%s %s\n", cyan("Routine:"), title)
		fmt.Printf("%s %s\n", cyan("ID:"), r.ID)
		if r.Description != "" {
			fmt.Printf("%s %s\n", cyan("Description:"), r.Description)
		}
		fmt.Printf("%s %s\n", cyan("Duration:"), utils.FormatMinutes(r.DurationInMinutes))
		fmt.Printf("%s %s\n\n", cyan("Last practiced:"), lastPracticed(r))

		for i, s := range r.Sections {
			fmt.Printf("%d. %s %s\n", i+1, s.Name, yellow(utils.FormatMinutes(s.DurationInMinutes)))
			if s.Notes != "" {
				fmt.Printf("   📝 %s\n", s.Notes)
			}
		}
		return nil
	},
}

func lastPracticed(r *models.Routine) string {
	if r.LastPracticed == nil {
		return "never practiced"
	}
	return "last practiced " + utils.FormatLocal(*r.LastPracticed, loc)
}

func init() {
	rootCmd.AddCommand(createRoutineCmd)
	rootCmd.AddCommand(listRoutinesCmd)
	rootCmd.AddCommand(showRoutineCmd)
}
