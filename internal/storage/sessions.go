package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
	"github.com/misterclayt0n/practicebuddy/internal/utils"
)

// CreateSession records a session and, for routine-backed sessions, moves each
// practiced routine's last practiced date to the session date. All or nothing.
func (s *SQLStore) CreateSession(ctx context.Context, userID string, in models.NewSession) (string, error) {
	prepared, err := in.Prepare(generateID)
	if err != nil {
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
	for _, routineID := range prepared.RoutineIDs {
		owner, err := routineOwner(ctx, tx, routineID)
		if err != nil {
			return "", err
		}
		if owner != userID {
			return "", notFound("routine", routineID)
		}
	}

	session := models.PracticeSession{
		ID:            generateID(),
		UserID:        userID,
		Date:          in.Date,
		TotalDuration: prepared.TotalDuration,
		Items:         prepared.Items,
		Notes:         in.Notes,
		IsSpontaneous: in.IsSpontaneous,
		CreatedAt:     time.Now().UTC(),
	}
	if err := insertSession(ctx, tx, &session); err != nil {
		return "", err
	}

	date := formatTime(in.Date)
	for _, routineID := range prepared.RoutineIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE routines SET last_practiced = ? WHERE id = ?`,
			date, routineID,
		); err != nil {
			return "", unavailable("Failed to update last practiced date", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", unavailable("Failed to commit transaction", err)
	}

	s.log.User(userID).Info("session recorded", "id", session.ID, "items", len(session.Items), "minutes", session.TotalDuration)
	return session.ID, nil
}

func insertSession(ctx context.Context, q querier, session *models.PracticeSession) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO practice_sessions (id, user_id, date, total_duration, notes, is_spontaneous, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		formatTime(session.Date),
		session.TotalDuration,
		session.Notes,
		utils.BoolToInt(session.IsSpontaneous),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return unavailable("Failed to create session", err)
	}

	for i, item := range session.Items {
		sections := item.Sections
		if sections == nil {
			sections = []models.RoutineSection{}
		}
		sectionsJSON, err := json.Marshal(sections)
		if err != nil {
			return fmt.Errorf("Failed to marshal sections of '%s': %w", item.Name, err)
		}

		_, err = q.ExecContext(ctx,
			`INSERT INTO session_items (id, session_id, source_id, name, category, duration_in_minutes, notes, sections, order_index)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			session.ID,
			item.SourceID,
			item.Name,
			item.Category,
			item.DurationInMinutes,
			item.Notes,
			string(sectionsJSON),
			i,
		)
		if err != nil {
			return unavailable("Failed to create session item", err)
		}
	}
	return nil
}

const sessionColumns = `id, user_id, date, total_duration, notes, is_spontaneous, created_at`

func scanSession(row rowScanner) (models.PracticeSession, error) {
	var session models.PracticeSession
	var date, createdAt string
	var isSpontaneous int

	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&date,
		&session.TotalDuration,
		&session.Notes,
		&isSpontaneous,
		&createdAt,
	); err != nil {
		return session, err
	}

	session.IsSpontaneous = isSpontaneous != 0
	var err error
	if session.Date, err = parseTime(date); err != nil {
		return session, fmt.Errorf("session %s has a malformed date: %w", session.ID, models.ErrInvalidRecord)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return session, fmt.Errorf("session %s has a malformed created_at: %w", session.ID, models.ErrInvalidRecord)
	}
	return session, nil
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (*models.PracticeSession, error) {
	session, err := scanSession(s.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM practice_sessions WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("session", id)
		}
		return nil, unavailable("Failed to query session", err)
	}

	items, err := loadItems(ctx, s.DB,
		`SELECT session_id, id, source_id, name, category, duration_in_minutes, notes, sections
         FROM session_items WHERE session_id = ? ORDER BY order_index`, id)
	if err != nil {
		return nil, err
	}
	session.Items = items[id]
	return &session, nil
}

// ListSessions returns the user's sessions in insertion order.
func (s *SQLStore) ListSessions(ctx context.Context, userID string) ([]models.PracticeSession, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM practice_sessions
         WHERE user_id = ?
         ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, unavailable("Failed to query sessions", err)
	}

	sessions := []models.PracticeSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, unavailable("Failed to scan session", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, unavailable("Failed to read sessions", err)
	}
	rows.Close()

	items, err := loadItems(ctx, s.DB,
		`SELECT si.session_id, si.id, si.source_id, si.name, si.category, si.duration_in_minutes, si.notes, si.sections
         FROM session_items si
         JOIN practice_sessions ps ON ps.id = si.session_id
         WHERE ps.user_id = ?
         ORDER BY si.session_id, si.order_index`, userID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Items = items[sessions[i].ID]
	}
	return sessions, nil
}

func loadItems(ctx context.Context, q querier, query string, args ...any) (map[string][]models.PracticeSessionItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("Failed to query session items", err)
	}
	defer rows.Close()

	out := make(map[string][]models.PracticeSessionItem)
	for rows.Next() {
		var sessionID, sectionsJSON string
		var item models.PracticeSessionItem
		if err := rows.Scan(
			&sessionID,
			&item.ID,
			&item.SourceID,
			&item.Name,
			&item.Category,
			&item.DurationInMinutes,
			&item.Notes,
			&sectionsJSON,
		); err != nil {
			return nil, unavailable("Failed to scan session item", err)
		}

		var sections []models.RoutineSection
		if err := json.Unmarshal([]byte(sectionsJSON), &sections); err != nil {
			return nil, fmt.Errorf("item %s has malformed sections: %w", item.ID, models.ErrInvalidRecord)
		}
		if len(sections) > 0 {
			item.Sections = sections
		}
		out[sessionID] = append(out[sessionID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("Failed to read session items", err)
	}
	return out, nil
}

// UpdateSessionNotes replaces the session-level notes. Nothing else on a session is mutable.
func (s *SQLStore) UpdateSessionNotes(ctx context.Context, sessionID, notes string) error {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE practice_sessions SET notes = ? WHERE id = ?`,
		notes, sessionID,
	)
	if err != nil {
		return unavailable("Failed to update session notes", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("Failed to update session notes", err)
	}
	if n == 0 {
		return notFound("session", sessionID)
	}
	return nil
}

func (s *SQLStore) UpdateSessionItemNotes(ctx context.Context, sessionID, itemID, notes string) error {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE session_items SET notes = ? WHERE session_id = ? AND id = ?`,
		notes, sessionID, itemID,
	)
	if err != nil {
		return unavailable("Failed to update item notes", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("Failed to update item notes", err)
	}
	if n == 0 {
		return notFound("session item", sessionID+"/"+itemID)
	}
	return nil
}
