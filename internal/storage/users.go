package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
)

func (s *SQLStore) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)
	if email == "" || in.PasswordHash == "" {
		return nil, fmt.Errorf("email and password are required: %w", models.ErrInvalidRecord)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	exists, err := emailExists(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", email, models.ErrDuplicateEmail)
	}

	user := &models.User{
		UID:         generateID(),
		Email:       email,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Categories:  append([]string(nil), models.DefaultCategories...),
		Settings:    models.DefaultSettings(),
		CreatedAt:   time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, daily_goal, weekly_goal, default_session_duration, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.UID,
		user.Email,
		user.DisplayName,
		in.PasswordHash,
		user.Settings.DailyGoalInMinutes,
		user.Settings.WeeklyGoalInMinutes,
		user.Settings.DefaultSessionDuration,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", email, models.ErrDuplicateEmail)
		}
		return nil, unavailable("Failed to create user", err)
	}

	if err := replaceCategories(ctx, tx, user.UID, user.Categories); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("Failed to commit transaction", err)
	}

	s.log.User(user.UID).Info("user created")
	return user, nil
}

func (s *SQLStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	var createdAt string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, display_name, daily_goal, weekly_goal, default_session_duration, created_at
         FROM users WHERE id = ?`,
		uid,
	).Scan(
		&user.UID,
		&user.Email,
		&user.DisplayName,
		&user.Settings.DailyGoalInMinutes,
		&user.Settings.WeeklyGoalInMinutes,
		&user.Settings.DefaultSessionDuration,
		&createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("user", uid)
		}
		return nil, unavailable("Failed to query user", err)
	}

	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("user %s has a malformed created_at: %w", uid, models.ErrInvalidRecord)
	}

	user.Categories, err = loadCategories(ctx, s.DB, uid)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetCredentials(ctx context.Context, email string) (string, string, error) {
	email = models.NormalizeEmail(email)

	var uid, hash string
	err := s.DB.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users WHERE email = ?",
		email,
	).Scan(&uid, &hash)
	if err != nil {
		if isNoRows(err) {
			return "", "", notFound("user", email)
		}
		return "", "", unavailable("Failed to query user", err)
	}
	return uid, hash, nil
}

func (s *SQLStore) UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := userExists(ctx, tx, uid); err != nil {
		return err
	}

	if upd.DisplayName != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET display_name = ? WHERE id = ?",
			strings.TrimSpace(*upd.DisplayName), uid,
		); err != nil {
			return unavailable("Failed to update display name", err)
		}
	}

	if upd.Settings != nil {
		if err := validateSettings(*upd.Settings); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET daily_goal = ?, weekly_goal = ?, default_session_duration = ?
             WHERE id = ?`,
			upd.Settings.DailyGoalInMinutes,
			upd.Settings.WeeklyGoalInMinutes,
			upd.Settings.DefaultSessionDuration,
			uid,
		); err != nil {
			return unavailable("Failed to update settings", err)
		}
	}

	if upd.Categories != nil {
		if err := replaceCategories(ctx, tx, uid, models.NormalizeCategories(upd.Categories)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("Failed to commit transaction", err)
	}
	return nil
}

// AddCategory appends a category to the user's list. Adding an existing name is a no-op.
func (s *SQLStore) AddCategory(ctx context.Context, uid, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category name is required: %w", models.ErrInvalidRecord)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := userExists(ctx, tx, uid); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_categories (user_id, name, position)
         SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM user_categories WHERE user_id = ?
         ON CONFLICT (user_id, name) DO NOTHING`,
		uid, name, uid,
	)
	if err != nil {
		return unavailable("Failed to add category", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("Failed to commit transaction", err)
	}
	return nil
}

func loadCategories(ctx context.Context, q querier, uid string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM user_categories WHERE user_id = ? ORDER BY position",
		uid,
	)
	if err != nil {
		return nil, unavailable("Failed to query categories", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, unavailable("Failed to scan category", err)
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("Failed to read categories", err)
	}
	return categories, nil
}

func replaceCategories(ctx context.Context, q querier, uid string, categories []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM user_categories WHERE user_id = ?", uid); err != nil {
		return unavailable("Failed to clear categories", err)
	}
	for i, name := range categories {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO user_categories (user_id, name, position) VALUES (?, ?, ?)",
			uid, name, i,
		); err != nil {
			return unavailable("Failed to insert category", err)
		}
	}
	return nil
}

func validateSettings(s models.UserSettings) error {
	if s.DailyGoalInMinutes < 0 || s.WeeklyGoalInMinutes < 0 || s.DefaultSessionDuration < 0 {
		return fmt.Errorf("goals and durations cannot be negative: %w", models.ErrInvalidRecord)
	}
	return nil
}
