package cmd

import (
	"fmt"

	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

var (
	updateRoutineFile        string
	updateRoutineName        string
	updateRoutineDescription string
	updateRoutineRestore     bool
)

var updateRoutineCmd = &cobra.Command{
	Use:   "update-routine [routine]",
	Short: "Update a routine without touching the sessions recorded from it",
	Long: `Update a routine by id, id prefix or name.

With --file the routine takes the name, description and sections of the TOML
definition. --name and --description override single fields. Sessions already
recorded keep the routine as it was when they were logged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		r, err := resolveRoutine(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}

		var upd models.RoutineUpdate
		if updateRoutineFile != "" {
			def, err := utils.ParseRoutineFromTOML(updateRoutineFile)
			if err != nil {
				return fmt.Errorf("Failed to read routine: %w", err)
			}
			in := def.Input()
			upd.Name = &in.Name
			upd.Description = &in.Description
			upd.Sections = &in.Sections
		}
		if cmd.Flags().Changed("name") {
			upd.Name = &updateRoutineName
		}
		if cmd.Flags().Changed("description") {
			upd.Description = &updateRoutineDescription
		}
		if updateRoutineRestore {
			active := false
			upd.IsInactive = &active
		}

		if upd == (models.RoutineUpdate{}) {
			return fmt.Errorf("Nothing to update (use --file, --name, --description or --restore)")
		}

		if err := st.UpdateRoutine(cmd.Context(), r.ID, upd); err != nil {
			return fmt.Errorf("Failed to update routine: %w", err)
		}

		fmt.Println("✅ Routine updated successfully")
		return nil
	},
}

func init() {
	updateRoutineCmd.Flags().StringVarP(&updateRoutineFile, "file", "f", "", "TOML definition replacing name, description and sections")
	updateRoutineCmd.Flags().StringVar(&updateRoutineName, "name", "", "New name")
	updateRoutineCmd.Flags().StringVar(&updateRoutineDescription, "description", "", "New description")
	updateRoutineCmd.Flags().BoolVar(&updateRoutineRestore, "restore", false, "Bring back a deleted routine (needs the full id)")
	rootCmd.AddCommand(updateRoutineCmd)
}
