package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/misterclayt0n/practicebuddy/internal/logger"
	"github.com/misterclayt0n/practicebuddy/internal/models"
)

// ExportToFile writes a snapshot of st as TOML to outputPath.
func ExportToFile(ctx context.Context, st Store, outputPath string) error {
	snap, err := st.Export(ctx)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(snap); err != nil {
		return fmt.Errorf("encoding TOML: %w", err)
	}

	// Make the output path absolute relative to the current directory.
	outputPath, err = filepath.Abs(outputPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	logger.Info("store exported", "path", outputPath, "users", len(snap.Users), "sessions", len(snap.Sessions))
	return nil
}

// ImportFromFile replaces the contents of st with the snapshot stored at filePath.
func ImportFromFile(ctx context.Context, st Store, filePath string) error {
	snap, err := ReadSnapshot(filePath)
	if err != nil {
		return err
	}
	if err := st.Import(ctx, snap); err != nil {
		return err
	}

	logger.Info("store imported", "path", filePath, "users", len(snap.Users), "sessions", len(snap.Sessions))
	return nil
}

// ReadSnapshot decodes a TOML snapshot file.
func ReadSnapshot(filePath string) (*Snapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("Reading file %s: %w", filePath, err)
	}

	var snap Snapshot
	if _, err := toml.Decode(string(data), &snap); err != nil {
		return nil, fmt.Errorf("Decoding TOML: %w: %w", models.ErrStoreUnavailable, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// DefaultExportPath returns where an export goes when no path is given.
func DefaultExportPath(configDir string) string {
	return filepath.Join(configDir, "db_dump.toml")
}

// Validate checks that the snapshot is self-consistent before it replaces a store.
func (snap *Snapshot) Validate() error {
	if snap.Version > SnapshotVersion {
		return fmt.Errorf("snapshot version %d is newer than supported (%d): %w", snap.Version, SnapshotVersion, models.ErrInvalidRecord)
	}

	users := make(map[string]bool, len(snap.Users))
	emails := make(map[string]bool, len(snap.Users))
	for _, u := range snap.Users {
		if u.User.UID == "" || users[u.User.UID] {
			return fmt.Errorf("snapshot has a missing or duplicate user id: %w", models.ErrInvalidRecord)
		}
		email := models.NormalizeEmail(u.User.Email)
		if emails[email] {
			return fmt.Errorf("%s: %w", email, models.ErrDuplicateEmail)
		}
		users[u.User.UID] = true
		emails[email] = true
	}

	routines := make(map[string]bool, len(snap.Routines))
	sections := make(map[string]bool)
	for _, r := range snap.Routines {
		if err := claimID("routine", r.ID, routines); err != nil {
			return err
		}
		if !users[r.UserID] {
			return fmt.Errorf("routine %s belongs to unknown user %s: %w", r.ID, r.UserID, models.ErrInvalidRecord)
		}
		if err := models.ValidateSections(r.Sections); err != nil {
			return err
		}
		for _, sec := range r.Sections {
			// Empty section ids are assigned on import.
			if sec.ID == "" {
				continue
			}
			if err := claimID("section", sec.ID, sections); err != nil {
				return err
			}
		}
	}

	sessions := make(map[string]bool, len(snap.Sessions))
	items := make(map[string]bool)
	for i := range snap.Sessions {
		s := &snap.Sessions[i]
		if err := claimID("session", s.ID, sessions); err != nil {
			return err
		}
		if !users[s.UserID] {
			return fmt.Errorf("session %s belongs to unknown user %s: %w", s.ID, s.UserID, models.ErrInvalidRecord)
		}
		if err := s.Validate(); err != nil {
			return err
		}

		sum := 0
		for _, item := range s.Items {
			if err := claimID("session item", item.ID, items); err != nil {
				return err
			}
			sum += item.DurationInMinutes
		}
		if s.TotalDuration != sum {
			return fmt.Errorf("session %s total %d does not match its items (%d): %w", s.ID, s.TotalDuration, sum, models.ErrInvalidRecord)
		}
	}
	return nil
}

// claimID records id in seen, rejecting empty and repeated ids.
func claimID(kind, id string, seen map[string]bool) error {
	if id == "" {
		return fmt.Errorf("snapshot has a %s without an id: %w", kind, models.ErrInvalidRecord)
	}
	if seen[id] {
		return fmt.Errorf("snapshot has a duplicate %s id %s: %w", kind, id, models.ErrInvalidRecord)
	}
	seen[id] = true
	return nil
}

// Export reads every record, password hashes included.
func (s *SQLStore) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Version: SnapshotVersion}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, email, display_name, password_hash, daily_goal, weekly_goal, default_session_duration, created_at
         FROM users ORDER BY rowid`)
	if err != nil {
		return nil, unavailable("Failed to query users", err)
	}
	for rows.Next() {
		var rec UserRecord
		var createdAt string
		if err := rows.Scan(
			&rec.User.UID,
			&rec.User.Email,
			&rec.User.DisplayName,
			&rec.PasswordHash,
			&rec.User.Settings.DailyGoalInMinutes,
			&rec.User.Settings.WeeklyGoalInMinutes,
			&rec.User.Settings.DefaultSessionDuration,
			&createdAt,
		); err != nil {
			rows.Close()
			return nil, unavailable("Failed to scan user", err)
		}
		if rec.User.CreatedAt, err = parseTime(createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("user %s has a malformed created_at: %w", rec.User.UID, models.ErrInvalidRecord)
		}
		snap.Users = append(snap.Users, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, unavailable("Failed to read users", err)
	}
	rows.Close()

	for i := range snap.Users {
		if snap.Users[i].User.Categories, err = loadCategories(ctx, s.DB, snap.Users[i].User.UID); err != nil {
			return nil, err
		}
	}

	rows, err = s.DB.QueryContext(ctx, `SELECT `+routineColumns+` FROM routines ORDER BY rowid`)
	if err != nil {
		return nil, unavailable("Failed to query routines", err)
	}
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			rows.Close()
			return nil, unavailable("Failed to scan routine", err)
		}
		snap.Routines = append(snap.Routines, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, unavailable("Failed to read routines", err)
	}
	rows.Close()

	sections, err := loadSections(ctx, s.DB,
		`SELECT routine_id, id, name, notes, duration_in_minutes
         FROM routine_sections ORDER BY routine_id, order_index`)
	if err != nil {
		return nil, err
	}
	for i := range snap.Routines {
		snap.Routines[i].Sections = sections[snap.Routines[i].ID]
		if snap.Routines[i].Sections == nil {
			snap.Routines[i].Sections = []models.RoutineSection{}
		}
	}

	rows, err = s.DB.QueryContext(ctx, `SELECT `+sessionColumns+` FROM practice_sessions ORDER BY rowid`)
	if err != nil {
		return nil, unavailable("Failed to query sessions", err)
	}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, unavailable("Failed to scan session", err)
		}
		snap.Sessions = append(snap.Sessions, session)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, unavailable("Failed to read sessions", err)
	}
	rows.Close()

	items, err := loadItems(ctx, s.DB,
		`SELECT session_id, id, source_id, name, category, duration_in_minutes, notes, sections
         FROM session_items ORDER BY session_id, order_index`)
	if err != nil {
		return nil, err
	}
	for i := range snap.Sessions {
		snap.Sessions[i].Items = items[snap.Sessions[i].ID]
	}

	return snap, nil
}

// Import deletes every row and rebuilds the database from snap in one transaction.
func (s *SQLStore) Import(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("Begin transaction", err)
	}
	defer tx.Rollback()

	// Children first so foreign keys never dangle.
	for _, table := range []string{"session_items", "practice_sessions", "routine_sections", "routines", "user_categories", "users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return unavailable(fmt.Sprintf("Deleting rows from %s", table), err)
		}
	}

	for _, rec := range snap.Users {
		u := rec.User
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, display_name, password_hash, daily_goal, weekly_goal, default_session_duration, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			u.UID,
			models.NormalizeEmail(u.Email),
			u.DisplayName,
			rec.PasswordHash,
			u.Settings.DailyGoalInMinutes,
			u.Settings.WeeklyGoalInMinutes,
			u.Settings.DefaultSessionDuration,
			formatTime(u.CreatedAt),
		)
		if err != nil {
			return unavailable(fmt.Sprintf("Inserting user %s", u.UID), err)
		}
		if err := replaceCategories(ctx, tx, u.UID, models.NormalizeCategories(u.Categories)); err != nil {
			return err
		}
	}

	for i := range snap.Routines {
		r := snap.Routines[i]
		r.Sections = assignSectionIDs(r.Sections)
		r.DurationInMinutes = models.SectionsDuration(r.Sections)
		if err := insertRoutine(ctx, tx, &r); err != nil {
			return err
		}
	}

	for i := range snap.Sessions {
		if err := insertSession(ctx, tx, &snap.Sessions[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("Commit transaction", err)
	}
	return nil
}
