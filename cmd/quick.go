package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/storage"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

var quickItems []string

var quickCmd = &cobra.Command{
	Use:   "quick",
	Short: "Record a spontaneous session without a saved routine",
	Long: `Record a spontaneous session made of throwaway items.

Each --item is name:category:minutes. The category and minutes may be left
out: "name:minutes" files the item under General, and a bare name uses your
default session duration. Unknown categories are added to your list.`,
	Example: `  buddy quick --item "Long tones:Technique:15" --item "Improv:20"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := requireUser(ctx)
		if err != nil {
			return err
		}
		if len(quickItems) == 0 {
			return fmt.Errorf("At least one --item is required")
		}

		date, err := parseDate(sessionDate)
		if err != nil {
			return err
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		entries := make([]models.AdHocEntry, 0, len(quickItems))
		for _, raw := range quickItems {
			entry, err := parseAdHocItem(raw, user.Settings.DefaultSessionDuration)
			if err != nil {
				return err
			}
			if entry.Category != "" && !user.HasCategory(entry.Category) {
				if err := st.AddCategory(ctx, user.UID, entry.Category); err != nil {
					return fmt.Errorf("Failed to add category: %w", err)
				}
				user.Categories = append(user.Categories, entry.Category)
				fmt.Printf("%s %s\n", yellow("New category:"), entry.Category)
			}
			entries = append(entries, entry)
		}

		id, err := storage.CreateSpontaneousSession(ctx, st, user.UID, date, sessionDuration, sessionNotes, entries)
		if err != nil {
			return fmt.Errorf("Failed to record session: %w", err)
		}

		s, err := st.GetSession(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Spontaneous session recorded: %s, %d item(s) (%s)\n",
			utils.FormatMinutes(s.TotalDuration), len(s.Items), shortID(id))
		return nil
	},
}

// parseAdHocItem reads name[:category][:minutes]. The name itself may contain colons
// when all three parts are given.
func parseAdHocItem(s string, defaultMinutes int) (models.AdHocEntry, error) {
	parts := strings.Split(s, ":")
	field := func(i int) string { return strings.TrimSpace(parts[i]) }

	entry := models.AdHocEntry{DurationInMinutes: defaultMinutes}
	n := len(parts)
	switch {
	case n == 1:
		entry.Name = field(0)
	case n == 2:
		entry.Name = field(0)
		if m, err := strconv.Atoi(field(1)); err == nil {
			entry.DurationInMinutes = m
		} else {
			entry.Category = field(1)
		}
	default:
		m, err := strconv.Atoi(field(n - 1))
		if err != nil {
			return models.AdHocEntry{}, fmt.Errorf("Invalid minutes in item %q: %s", s, field(n-1))
		}
		entry.DurationInMinutes = m
		entry.Category = field(n - 2)
		entry.Name = strings.TrimSpace(strings.Join(parts[:n-2], ":"))
	}

	if entry.Name == "" {
		return models.AdHocEntry{}, fmt.Errorf("Item %q has no name", s)
	}
	if entry.DurationInMinutes < 0 {
		return models.AdHocEntry{}, fmt.Errorf("Item %q has negative minutes", s)
	}
	return entry, nil
}

func init() {
	quickCmd.Flags().StringArrayVarP(&quickItems, "item", "i", nil, "Item as name:category:minutes (repeatable)")
	quickCmd.Flags().StringVarP(&sessionDate, "date", "d", "", "When it happened: 2006-01-02, '2006-01-02 15:04' or 02/01/06 (default now)")
	quickCmd.Flags().StringVarP(&sessionNotes, "notes", "n", "", "Session notes")
	quickCmd.Flags().IntVar(&sessionDuration, "duration", 0, "Total minutes, must match the items when given")
	rootCmd.AddCommand(quickCmd)
}
