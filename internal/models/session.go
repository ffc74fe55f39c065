package models

import (
	"fmt"
	"strings"
	"time"
)

type PracticeSession struct {
	ID            string                `json:"id" toml:"id"`
	UserID        string                `json:"user_id" toml:"user_id"`
	Date          time.Time             `json:"date" toml:"date"`
	TotalDuration int                   `json:"total_duration" toml:"total_duration"` // Minutes, fixed at creation.
	Items         []PracticeSessionItem `json:"items" toml:"items"`
	Notes         string                `json:"notes" toml:"notes"`
	IsSpontaneous bool                  `json:"is_spontaneous" toml:"is_spontaneous"`
	CreatedAt     time.Time             `json:"created_at" toml:"created_at"`
}

// PracticeSessionItem is a frozen copy of what was practiced. Only Notes may change
// after the session is recorded.
type PracticeSessionItem struct {
	ID                string           `json:"id" toml:"id"`
	SourceID          string           `json:"source_id,omitempty" toml:"source_id,omitempty"` // Routine id, empty for ad-hoc entries.
	Name              string           `json:"name" toml:"name"`
	Category          string           `json:"category" toml:"category"`
	DurationInMinutes int              `json:"duration_in_minutes" toml:"duration_in_minutes"`
	Notes             string           `json:"notes" toml:"notes"`
	Sections          []RoutineSection `json:"sections,omitempty" toml:"sections,omitempty"`
}

// Validate checks the fields the aggregations rely on.
func (s *PracticeSession) Validate() error {
	if s.Date.IsZero() {
		return fmt.Errorf("session %s has no date: %w", s.ID, ErrInvalidRecord)
	}
	if s.TotalDuration < 0 {
		return fmt.Errorf("session %s has a negative duration: %w", s.ID, ErrInvalidRecord)
	}
	for _, item := range s.Items {
		if item.DurationInMinutes < 0 {
			return fmt.Errorf("item '%s' of session %s has a negative duration: %w", item.Name, s.ID, ErrInvalidRecord)
		}
	}
	return nil
}

// ItemSource is what a session item can be built from: a saved routine or an ad-hoc entry.
type ItemSource interface {
	// Snapshot projects the source into a session item with the given id.
	Snapshot(id string) PracticeSessionItem
	// RoutineID is the id of the saved routine behind the source, or "".
	RoutineID() string
	isItemSource()
}

// RoutineSource records practice of a saved routine.
type RoutineSource struct {
	Routine Routine
}

func (r RoutineSource) Snapshot(id string) PracticeSessionItem {
	return PracticeSessionItem{
		ID:                id,
		SourceID:          r.Routine.ID,
		Name:              r.Routine.Name,
		Category:          DefaultCategory,
		DurationInMinutes: r.Routine.DurationInMinutes,
		Sections:          CloneSections(r.Routine.Sections),
	}
}

func (r RoutineSource) RoutineID() string { return r.Routine.ID }
func (RoutineSource) isItemSource()       {}

// AdHocEntry is a throwaway item used by spontaneous sessions.
type AdHocEntry struct {
	Name              string `json:"name" toml:"name"`
	Category          string `json:"category" toml:"category"`
	DurationInMinutes int    `json:"duration_in_minutes" toml:"duration_in_minutes"`
}

func (a AdHocEntry) Snapshot(id string) PracticeSessionItem {
	category := strings.TrimSpace(a.Category)
	if category == "" {
		category = DefaultCategory
	}
	return PracticeSessionItem{
		ID:                id,
		Name:              a.Name,
		Category:          category,
		DurationInMinutes: a.DurationInMinutes,
	}
}

func (AdHocEntry) RoutineID() string { return "" }
func (AdHocEntry) isItemSource()     {}

// NewSession is the input for recording a practice session.
// A zero TotalDuration means "sum of the items".
type NewSession struct {
	Date          time.Time
	TotalDuration int
	Notes         string
	Items         []ItemSource
	IsSpontaneous bool
}

// PreparedSession is a validated NewSession with its items projected.
type PreparedSession struct {
	Items         []PracticeSessionItem
	TotalDuration int
	RoutineIDs    []string // Routines whose last practiced date must move, in item order.
}

// Prepare validates the input and snapshots every source, using newID for item ids.
func (ns NewSession) Prepare(newID func() string) (PreparedSession, error) {
	if ns.Date.IsZero() {
		return PreparedSession{}, fmt.Errorf("session date is required: %w", ErrInvalidRecord)
	}
	if len(ns.Items) == 0 {
		return PreparedSession{}, fmt.Errorf("session needs at least one item: %w", ErrInvalidRecord)
	}

	var prepared PreparedSession
	seen := make(map[string]bool)
	sum := 0
	for _, src := range ns.Items {
		if src == nil {
			return PreparedSession{}, fmt.Errorf("nil session item: %w", ErrInvalidRecord)
		}
		item := src.Snapshot(newID())
		if strings.TrimSpace(item.Name) == "" {
			return PreparedSession{}, fmt.Errorf("session item has no name: %w", ErrInvalidRecord)
		}
		if item.DurationInMinutes < 0 {
			return PreparedSession{}, fmt.Errorf("item '%s' has a negative duration: %w", item.Name, ErrInvalidRecord)
		}
		sum += item.DurationInMinutes
		prepared.Items = append(prepared.Items, item)

		if id := src.RoutineID(); id != "" && !ns.IsSpontaneous && !seen[id] {
			seen[id] = true
			prepared.RoutineIDs = append(prepared.RoutineIDs, id)
		}
	}

	if ns.TotalDuration != 0 && ns.TotalDuration != sum {
		return PreparedSession{}, fmt.Errorf("total duration %d does not match items (%d): %w", ns.TotalDuration, sum, ErrInvalidRecord)
	}
	prepared.TotalDuration = sum
	return prepared, nil
}
