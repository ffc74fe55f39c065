package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

var (
	accountEmail    string
	accountPassword string
	accountName     string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials(cmd)
		if err != nil {
			return err
		}

		user, err := authSvc.SignUp(cmd.Context(), email, password, accountName)
		if err != nil {
			if errors.Is(err, models.ErrDuplicateEmail) {
				return fmt.Errorf("An account with %s already exists (use 'buddy login')", models.NormalizeEmail(email))
			}
			return fmt.Errorf("Failed to sign up: %w", err)
		}

		fmt.Printf("✅ Welcome, %s! Your account is ready.\n", displayName(user))
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials(cmd)
		if err != nil {
			return err
		}

		user, err := authSvc.SignIn(cmd.Context(), email, password)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCredentials) {
				return fmt.Errorf("Wrong email or password")
			}
			return fmt.Errorf("Failed to log in: %w", err)
		}

		fmt.Printf("✅ Logged in as %s\n", displayName(user))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authSvc.SignOut(); err != nil {
			return err
		}
		fmt.Println("✅ Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user and their settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s %s <%s>\n", cyan("User:"), displayName(user), user.Email)
		fmt.Printf("%s %s\n", cyan("Since:"), user.CreatedAt.In(loc).Format("02 Jan 2006"))
		printSettings(user)
		return nil
	},
}

// credentials takes email and password from flags, prompting for whatever is missing.
func credentials(cmd *cobra.Command) (string, string, error) {
	email, password := accountEmail, accountPassword
	p := newPrompter(cmd)
	var err error
	if email == "" {
		if email, err = p.line("Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = p.secret("Password: "); err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}

func displayName(u *models.User) string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	return u.Email
}

func printSettings(u *models.User) {
	yellow := color.New(color.FgYellow).SprintFunc()
	goal := func(m int) string {
		if m <= 0 {
			return "not set"
		}
		return utils.FormatMinutes(m)
	}

	fmt.Printf("  Daily goal:       %s\n", yellow(goal(u.Settings.DailyGoalInMinutes)))
	fmt.Printf("  Weekly goal:      %s\n", yellow(goal(u.Settings.WeeklyGoalInMinutes)))
	fmt.Printf("  Default duration: %s\n", yellow(utils.FormatMinutes(u.Settings.DefaultSessionDuration)))
	fmt.Printf("  Categories:       %s\n", strings.Join(u.Categories, ", "))
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVarP(&accountEmail, "email", "e", "", "Account email")
		c.Flags().StringVarP(&accountPassword, "password", "p", "", "Account password (prompted when empty)")
	}
	signupCmd.Flags().StringVarP(&accountName, "name", "n", "", "Display name")

	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
