package cmd

import (
	"fmt"

	"github.com/misterclayt0n/practicebuddy/internal/storage"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

var (
	sessionRoutines []string
	sessionDate     string
	sessionNotes    string
	sessionDuration int
)

var logSessionCmd = &cobra.Command{
	Use:   "log-session",
	Short: "Record a practice session of one or more routines",
	Example: `  buddy log-session --routine scales --routine "bach partita"
  buddy log-session -r scales --date 2026-03-10 --notes "slow practice"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := requireUser(ctx)
		if err != nil {
			return err
		}
		if len(sessionRoutines) == 0 {
			return fmt.Errorf("At least one --routine is required (see 'buddy list-routines')")
		}

		date, err := parseDate(sessionDate)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(sessionRoutines))
		for _, ref := range sessionRoutines {
			r, err := resolveRoutine(ctx, user, ref)
			if err != nil {
				return err
			}
			if r.IsInactive {
				return fmt.Errorf("Routine '%s' is deleted", r.Name)
			}
			ids = append(ids, r.ID)
		}

		id, err := storage.CreateRoutineSession(ctx, st, user.UID, date, sessionDuration, sessionNotes, ids)
		if err != nil {
			return fmt.Errorf("Failed to record session: %w", err)
		}

		s, err := st.GetSession(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Session recorded: %s on %s (%s)\n",
			utils.FormatMinutes(s.TotalDuration), utils.FormatLocal(s.Date, loc), shortID(id))
		return nil
	},
}

func init() {
	logSessionCmd.Flags().StringArrayVarP(&sessionRoutines, "routine", "r", nil, "Routine id, id prefix or name (repeatable)")
	logSessionCmd.Flags().StringVarP(&sessionDate, "date", "d", "", "When it happened: 2006-01-02, '2006-01-02 15:04' or 02/01/06 (default now)")
	logSessionCmd.Flags().StringVarP(&sessionNotes, "notes", "n", "", "Session notes")
	logSessionCmd.Flags().IntVar(&sessionDuration, "duration", 0, "Total minutes, must match the routines when given")
	rootCmd.AddCommand(logSessionCmd)
}
