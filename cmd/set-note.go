package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	noteItem int
	noteText string
)

var setNoteCmd = &cobra.Command{
	Use:   "set-note [session]",
	Short: "Set the notes of a recorded session or one of its items",
	Long: `Set the notes of a session (the latest when no id is given).

With --item N the note goes to the Nth item as listed by show-session.
An empty --note clears the notes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := requireUser(ctx)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("note") {
			return fmt.Errorf("--note is required")
		}

		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		s, err := resolveSession(ctx, user, ref)
		if err != nil {
			return err
		}

		if noteItem == 0 {
			if err := st.UpdateSessionNotes(ctx, s.ID, noteText); err != nil {
				return fmt.Errorf("Failed to set session notes: %w", err)
			}
			fmt.Println("✅ Session notes updated")
			return nil
		}

		if noteItem < 1 || noteItem > len(s.Items) {
			return fmt.Errorf("Invalid item index: %d (session has %d items)", noteItem, len(s.Items))
		}
		item := s.Items[noteItem-1]
		if err := st.UpdateSessionItemNotes(ctx, s.ID, item.ID, noteText); err != nil {
			return fmt.Errorf("Failed to set item notes: %w", err)
		}

		fmt.Printf("✅ Notes updated for '%s'\n", item.Name)
		return nil
	},
}

func init() {
	setNoteCmd.Flags().IntVarP(&noteItem, "item", "i", 0, "Item number (1-based), omit for the whole session")
	setNoteCmd.Flags().StringVarP(&noteText, "note", "n", "", "The note text")
	rootCmd.AddCommand(setNoteCmd)
}
