package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
)

func (s *SQLStore) CreateRoutine(ctx context.Context, userID string, in models.RoutineInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", unavailable("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := userExists(ctx, tx, userID); err != nil {
		return "", err
	}

	routine := models.Routine{
		ID:          generateID(),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Sections:    assignSectionIDs(in.Sections),
		CreatedAt:   time.Now().UTC(),
	}
	routine.DurationInMinutes = models.SectionsDuration(routine.Sections)

	if err := insertRoutine(ctx, tx, &routine); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", unavailable("Failed to commit transaction", err)
	}

	s.log.User(userID).Debug("routine created", "id", routine.ID, "sections", len(routine.Sections))
	return routine.ID, nil
}

func insertRoutine(ctx context.Context, q querier, r *models.Routine) error {
	var lastPracticed any
	if r.LastPracticed != nil {
		lastPracticed = formatTime(*r.LastPracticed)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO routines (id, user_id, name, description, duration_in_minutes, last_practiced, is_inactive, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		r.Name,
		r.Description,
		r.DurationInMinutes,
		lastPracticed,
		utils.BoolToInt(r.IsInactive),
		formatTime(r.CreatedAt),
	)
	if err != nil {
		return unavailable("Failed to create routine", err)
	}
	return insertSections(ctx, q, r.ID, r.Sections)
}

func insertSections(ctx context.Context, q querier, routineID string, sections []models.RoutineSection) error {
	for i, section := range sections {
		_, err := q.ExecContext(ctx,
			`INSERT INTO routine_sections (id, routine_id, name, notes, duration_in_minutes, order_index)
             VALUES (?, ?, ?, ?, ?, ?)`,
			section.ID,
			routineID,
			section.Name,
			section.Notes,
			section.DurationInMinutes,
			i,
		)
		if err != nil {
			return unavailable("Failed to create routine section", err)
		}
	}
	return nil
}

const routineColumns = `id, user_id, name, description, duration_in_minutes, last_practiced, is_inactive, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoutine(row rowScanner) (models.Routine, error) {
	var r models.Routine
	var lastPracticed sql.NullString
	var isInactive int
	var createdAt string

	if err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Name,
		&r.Description,
		&r.DurationInMinutes,
		&lastPracticed,
		&isInactive,
		&createdAt,
	); err != nil {
		return r, err
	}

	r.IsInactive = isInactive != 0
	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return r, fmt.Errorf("routine %s has a malformed created_at: %w", r.ID, models.ErrInvalidRecord)
	}
	if lastPracticed.Valid && lastPracticed.String != "" {
		t, err := parseTime(lastPracticed.String)
		if err != nil {
			return r, fmt.Errorf("routine %s has a malformed last_practiced: %w", r.ID, models.ErrInvalidRecord)
		}
		r.LastPracticed = &t
	}
	return r, nil
}

func (s *SQLStore) GetRoutine(ctx context.Context, id string) (*models.Routine, error) {
	r, err := scanRoutine(s.DB.QueryRowContext(ctx,
		`SELECT `+routineColumns+` FROM routines WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("routine", id)
		}
		return nil, unavailable("Failed to query routine", err)
	}

	sections, err := loadSections(ctx, s.DB,
		`SELECT routine_id, id, name, notes, duration_in_minutes
         FROM routine_sections WHERE routine_id = ? ORDER BY order_index`, id)
	if err != nil {
		return nil, err
	}
	r.Sections = sections[id]
	if r.Sections == nil {
		r.Sections = []models.RoutineSection{}
	}
	return &r, nil
}

// ListRoutines returns the user's routines that are not soft-deleted, in insertion order.
func (s *SQLStore) ListRoutines(ctx context.Context, userID string) ([]models.Routine, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+routineColumns+` FROM routines
         WHERE user_id = ? AND is_inactive = 0
         ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, unavailable("Failed to query routines", err)
	}

	routines := []models.Routine{}
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			rows.Close()
			return nil, unavailable("Failed to scan routine", err)
		}
		routines = append(routines, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, unavailable("Failed to read routines", err)
	}
	// Release the connection before the section query.
	rows.Close()

	sections, err := loadSections(ctx, s.DB,
		`SELECT rs.routine_id, rs.id, rs.name, rs.notes, rs.duration_in_minutes
         FROM routine_sections rs
         JOIN routines r ON r.id = rs.routine_id
         WHERE r.user_id = ?
         ORDER BY rs.routine_id, rs.order_index`, userID)
	if err != nil {
		return nil, err
	}
	for i := range routines {
		routines[i].Sections = sections[routines[i].ID]
		if routines[i].Sections == nil {
			routines[i].Sections = []models.RoutineSection{}
		}
	}
	return routines, nil
}

// loadSections runs a section query and groups the rows by routine id, keeping row order.
func loadSections(ctx context.Context, q querier, query string, args ...any) (map[string][]models.RoutineSection, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("Failed to query routine sections", err)
	}
	defer rows.Close()

	out := make(map[string][]models.RoutineSection)
	for rows.Next() {
		var routineID string
		var section models.RoutineSection
		if err := rows.Scan(
			&routineID,
			&section.ID,
			&section.Name,
			&section.Notes,
			&section.DurationInMinutes,
		); err != nil {
			return nil, unavailable("Failed to scan routine section", err)
		}
		out[routineID] = append(out[routineID], section)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("Failed to read routine sections", err)
	}
	return out, nil
}

// UpdateRoutine merges the set fields of upd. Replacing the sections recomputes the duration.
func (s *SQLStore) UpdateRoutine(ctx context.Context, id string, upd models.RoutineUpdate) error {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return fmt.Errorf("routine name is required: %w", models.ErrInvalidRecord)
	}
	if upd.Sections != nil {
		if err := models.ValidateSections(*upd.Sections); err != nil {
			return err
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := routineOwner(ctx, tx, id); err != nil {
		return err
	}

	if upd.Name != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE routines SET name = ? WHERE id = ?`,
			strings.TrimSpace(*upd.Name), id); err != nil {
			return unavailable("Failed to update routine", err)
		}
	}
	if upd.Description != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE routines SET description = ? WHERE id = ?`,
			*upd.Description, id); err != nil {
			return unavailable("Failed to update routine", err)
		}
	}
	if upd.IsInactive != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE routines SET is_inactive = ? WHERE id = ?`,
			utils.BoolToInt(*upd.IsInactive), id); err != nil {
			return unavailable("Failed to update routine", err)
		}
	}
	if upd.Sections != nil {
		sections := assignSectionIDs(*upd.Sections)
		if _, err := tx.ExecContext(ctx, `DELETE FROM routine_sections WHERE routine_id = ?`, id); err != nil {
			return unavailable("Failed to clear routine sections", err)
		}
		if err := insertSections(ctx, tx, id, sections); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE routines SET duration_in_minutes = ? WHERE id = ?`,
			models.SectionsDuration(sections), id); err != nil {
			return unavailable("Failed to update routine duration", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("Failed to commit transaction", err)
	}
	return nil
}

// DeleteRoutine soft-deletes: the routine disappears from listings but past sessions keep their snapshots.
func (s *SQLStore) DeleteRoutine(ctx context.Context, id string) error {
	result, err := s.DB.ExecContext(ctx, `UPDATE routines SET is_inactive = 1 WHERE id = ?`, id)
	if err != nil {
		return unavailable("Failed to delete routine", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("Failed to delete routine", err)
	}
	if n == 0 {
		return notFound("routine", id)
	}

	s.log.Debug("routine deactivated", "id", id)
	return nil
}
