package models

import (
	"fmt"
	"strings"
	"time"
)

type RoutineSection struct {
	ID                string `json:"id" toml:"id"`
	Name              string `json:"name" toml:"name"`
	Notes             string `json:"notes" toml:"notes"`
	DurationInMinutes int    `json:"duration_in_minutes" toml:"duration_in_minutes"`
}

// Routine is the live, editable template. Sessions never point at it directly;
// they keep a PracticeSessionItem snapshot instead.
type Routine struct {
	ID                string           `json:"id" toml:"id"`
	UserID            string           `json:"user_id" toml:"user_id"`
	Name              string           `json:"name" toml:"name"`
	Description       string           `json:"description" toml:"description"`
	Sections          []RoutineSection `json:"sections" toml:"sections"`
	DurationInMinutes int              `json:"duration_in_minutes" toml:"duration_in_minutes"` // Sum of all sections.
	LastPracticed     *time.Time       `json:"last_practiced,omitempty" toml:"last_practiced,omitempty"`
	IsInactive        bool             `json:"is_inactive" toml:"is_inactive"`
	CreatedAt         time.Time        `json:"created_at" toml:"created_at"`
}

// RoutineInput is what a caller supplies to create a routine.
type RoutineInput struct {
	Name        string
	Description string
	Sections    []RoutineSection
}

// RoutineUpdate holds the fields to merge into a routine. Nil fields are left alone.
// When Sections is set the duration is recomputed from it.
type RoutineUpdate struct {
	Name        *string
	Description *string
	Sections    *[]RoutineSection
	IsInactive  *bool
}

// SectionsDuration sums the section durations.
func SectionsDuration(sections []RoutineSection) int {
	total := 0
	for _, s := range sections {
		total += s.DurationInMinutes
	}
	return total
}

// ValidateSections rejects unnamed sections and negative durations.
func ValidateSections(sections []RoutineSection) error {
	for i, s := range sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("section %d has no name: %w", i+1, ErrInvalidRecord)
		}
		if s.DurationInMinutes < 0 {
			return fmt.Errorf("section '%s' has a negative duration: %w", s.Name, ErrInvalidRecord)
		}
	}
	return nil
}

func (in RoutineInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("routine name is required: %w", ErrInvalidRecord)
	}
	return ValidateSections(in.Sections)
}

// CloneSections copies a section list so snapshots never share backing arrays with live routines.
func CloneSections(sections []RoutineSection) []RoutineSection {
	if sections == nil {
		return nil
	}
	out := make([]RoutineSection, len(sections))
	copy(out, sections)
	return out
}

//
// For TOML parsing only
//

type RoutineTOML struct {
	Name        string        `toml:"name"`
	Description string        `toml:"description"`
	Sections    []SectionTOML `toml:"section"`
}

type SectionTOML struct {
	Name     string `toml:"name"`
	Notes    string `toml:"notes,omitempty"`
	Duration int    `toml:"duration"` // Minutes.
}

// Input converts a parsed TOML routine into a RoutineInput.
func (r RoutineTOML) Input() RoutineInput {
	sections := make([]RoutineSection, 0, len(r.Sections))
	for _, s := range r.Sections {
		sections = append(sections, RoutineSection{
			Name:              s.Name,
			Notes:             s.Notes,
			DurationInMinutes: s.Duration,
		})
	}
	return RoutineInput{
		Name:        r.Name,
		Description: r.Description,
		Sections:    sections,
	}
}
