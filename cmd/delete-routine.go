package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteRoutineCmd = &cobra.Command{
	Use:   "delete-routine [routine]",
	Short: "Delete a routine (its recorded sessions are kept)",
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
		if err := st.DeleteRoutine(cmd.Context(), r.ID); err != nil {
			return fmt.Errorf("Failed to delete routine: %w", err)
		}

		fmt.Printf("✅ Routine '%s' deleted. Restore it with 'buddy update-routine %s --restore'.\n", r.Name, r.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteRoutineCmd)
}
