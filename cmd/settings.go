package cmd

import (
	"fmt"
	"strings"

	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/spf13/cobra"
)

var (
	settingsDailyGoal       int
	settingsWeeklyGoal      int
	settingsDefaultDuration int
	settingsName            string
	settingsCategories      string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change goals, default duration, display name and categories",
	Example: `  buddy settings
  buddy settings --weekly-goal 420 --daily-goal 0
  buddy settings --categories "Technique,Repertoire,Ear Training"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var upd models.UserUpdate
		settings := user.Settings
		changed := false

		if flags.Changed("daily-goal") {
			settings.DailyGoalInMinutes = settingsDailyGoal
			changed = true
		}
		if flags.Changed("weekly-goal") {
			settings.WeeklyGoalInMinutes = settingsWeeklyGoal
			changed = true
		}
		if flags.Changed("default-duration") {
			settings.DefaultSessionDuration = settingsDefaultDuration
			changed = true
		}
		if changed {
			upd.Settings = &settings
		}
		if flags.Changed("name") {
			upd.DisplayName = &settingsName
			changed = true
		}
		if flags.Changed("categories") {
			upd.Categories = models.NormalizeCategories(strings.Split(settingsCategories, ","))
			if len(upd.Categories) == 0 {
				return fmt.Errorf("At least one category is required")
			}
			changed = true
		}

		if !changed {
			fmt.Printf("Settings for %s:\n", displayName(user))
			printSettings(user)
			return nil
		}

		if err := st.UpdateUser(cmd.Context(), user.UID, upd); err != nil {
			return fmt.Errorf("Failed to update settings: %w", err)
		}

		updated, err := st.GetUser(cmd.Context(), user.UID)
		if err != nil {
			return err
		}
		fmt.Println("✅ Settings updated")
		printSettings(updated)
		return nil
	},
}

var addCategoryCmd = &cobra.Command{
	Use:   "add-category [name]",
	Short: "Add a practice category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		name := strings.TrimSpace(args[0])
		if user.HasCategory(name) {
			fmt.Printf("Category '%s' already exists\n", name)
			return nil
		}
		if err := st.AddCategory(cmd.Context(), user.UID, name); err != nil {
			return fmt.Errorf("Failed to add category: %w", err)
		}

		fmt.Printf("✅ Category '%s' added\n", name)
		return nil
	},
}

func init() {
	settingsCmd.Flags().IntVar(&settingsDailyGoal, "daily-goal", 0, "Daily goal in minutes (0 for none)")
	settingsCmd.Flags().IntVar(&settingsWeeklyGoal, "weekly-goal", 0, "Weekly goal in minutes (0 for none)")
	settingsCmd.Flags().IntVar(&settingsDefaultDuration, "default-duration", 0, "Default minutes for quick items")
	settingsCmd.Flags().StringVar(&settingsName, "name", "", "Display name")
	settingsCmd.Flags().StringVar(&settingsCategories, "categories", "", "Comma separated list replacing your categories")
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(addCategoryCmd)
}
