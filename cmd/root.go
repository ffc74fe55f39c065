package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/auth"
	"github.com/misterclayt0n/practicebuddy/internal/config"
	"github.com/misterclayt0n/practicebuddy/internal/logger"
	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/storage"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debugMode  bool

	// Set up by PersistentPreRunE for every command.
	cfg     *config.Config
	st      storage.Store
	authSvc *auth.Service
	loc     *time.Location
)

var rootCmd = &cobra.Command{
	Use:          "buddy",
	Short:        "Practice tracker for musicians: routines, sessions, streaks and goals",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return setup()
	},
}

func Execute() error {
	defer teardown()

	err := rootCmd.Execute()
	if err != nil {
		logger.Error("command failed", "err", err)
	}
	return err
}

func setup() error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfigFrom(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Debug:     debugMode || cfg.Log.Debug,
		ConfigDir: cfg.Dir,
	}); err != nil {
		return fmt.Errorf("Failed to initialize logger: %w", err)
	}

	if loc, err = cfg.Location(); err != nil {
		return err
	}

	st, err = storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("Failed to open database: %w", err)
	}
	authSvc = auth.NewService(st, cfg.Dir)

	logger.Debug("store opened", "backend", cfg.DB.Backend)
	return nil
}

func teardown() {
	if st != nil {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}
}

// now is the current time on the configured calendar.
func now() time.Time {
	return time.Now().In(loc)
}

// requireUser returns the signed in user or a hint to log in.
func requireUser(ctx context.Context) (*models.User, error) {
	user, err := authSvc.Current(ctx)
	if errors.Is(err, models.ErrNotAuthenticated) {
		return nil, fmt.Errorf("Not logged in (run 'buddy login' or 'buddy signup')")
	}
	return user, err
}

// resolveRoutine finds one of the user's routines by id, id prefix or name.
// Inactive routines only match by full id.
func resolveRoutine(ctx context.Context, user *models.User, ref string) (*models.Routine, error) {
	if r, err := st.GetRoutine(ctx, ref); err == nil {
		if r.UserID != user.UID {
			return nil, fmt.Errorf("routine %s: %w", ref, models.ErrNotFound)
		}
		return r, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	routines, err := st.ListRoutines(ctx, user.UID)
	if err != nil {
		return nil, err
	}

	var matches []models.Routine
	for _, r := range routines {
		if strings.EqualFold(r.Name, ref) || strings.HasPrefix(r.ID, ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("routine '%s': %w", ref, models.ErrNotFound)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("'%s' matches %d routines, use the id", ref, len(matches))
	}
}

// resolveSession finds one of the user's sessions by id prefix. An empty ref picks the latest.
func resolveSession(ctx context.Context, user *models.User, ref string) (*models.PracticeSession, error) {
	sessions, err := st.ListSessions(ctx, user.UID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("No sessions recorded yet")
	}
	if ref == "" {
		return &sessions[len(sessions)-1], nil
	}

	var match *models.PracticeSession
	for i := range sessions {
		if strings.HasPrefix(sessions[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("'%s' matches more than one session, use more characters", ref)
			}
			match = &sessions[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("session %s: %w", ref, models.ErrNotFound)
	}
	return match, nil
}

// parseDate reads a --date flag on the configured calendar; empty means now.
// A bare day is placed at noon so it cannot slip to a neighbouring day.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return now(), nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "02/01/06 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	day, err := utils.ParseDay(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(12 * time.Hour), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/practicebuddy/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Log debug output to stderr")
}
