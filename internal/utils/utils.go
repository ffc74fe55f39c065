package utils

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/misterclayt0n/practicebuddy/internal/models"
)

// ParseRoutineFromTOML reads a routine definition file.
func ParseRoutineFromTOML(path string) (*models.RoutineTOML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var routine models.RoutineTOML
	if err := toml.Unmarshal(data, &routine); err != nil {
		return nil, fmt.Errorf("Invalid TOML format: %w", err)
	}

	return &routine, nil
}

func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FormatMinutes renders minutes as "1h 25m" or "40m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
