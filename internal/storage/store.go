// Package storage is the record store: users, routines, practice sessions and their
// items, scoped by owning user. Two backends implement Store: SQLStore (local SQLite
// file or a remote libsql database) and MemoryStore (in-process, optionally flushed to
// a TOML file on every write).
//
// Every method takes a context so a networked backend can be swapped in, or any Store
// wrapped, without changing callers.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/misterclayt0n/practicebuddy/internal/config"
	"github.com/misterclayt0n/practicebuddy/internal/models"
)

type Store interface {
	Close() error

	// Users
	CreateUser(ctx context.Context, in models.NewUser) (*models.User, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetCredentials(ctx context.Context, email string) (uid, passwordHash string, err error)
	UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) error
	AddCategory(ctx context.Context, uid, name string) error

	// Routines
	CreateRoutine(ctx context.Context, userID string, in models.RoutineInput) (string, error)
	GetRoutine(ctx context.Context, id string) (*models.Routine, error)
	ListRoutines(ctx context.Context, userID string) ([]models.Routine, error)
	UpdateRoutine(ctx context.Context, id string, upd models.RoutineUpdate) error
	DeleteRoutine(ctx context.Context, id string) error

	// Sessions
	CreateSession(ctx context.Context, userID string, in models.NewSession) (string, error)
	GetSession(ctx context.Context, id string) (*models.PracticeSession, error)
	ListSessions(ctx context.Context, userID string) ([]models.PracticeSession, error)
	UpdateSessionNotes(ctx context.Context, sessionID, notes string) error
	UpdateSessionItemNotes(ctx context.Context, sessionID, itemID, notes string) error

	// Portability
	Export(ctx context.Context) (*Snapshot, error)
	Import(ctx context.Context, snap *Snapshot) error
}

// SnapshotVersion is bumped whenever the Snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is a full copy of the store. It is also the on-disk format of MemoryStore.
type Snapshot struct {
	Version  int                      `toml:"version"`
	Users    []UserRecord             `toml:"users"`
	Routines []models.Routine         `toml:"routines"`
	Sessions []models.PracticeSession `toml:"sessions"`
}

type UserRecord struct {
	User         models.User `toml:"user"`
	PasswordHash string      `toml:"password_hash"`
}

// Open opens the backend selected by cfg.
func Open(cfg *config.Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.DB.Backend {
	case config.BackendMemory:
		st, err = OpenMemoryStore(cfg.DB.ConnectionString)
	case config.BackendLibSQL:
		st, err = OpenLibSQL(cfg.DB.ConnectionString, cfg.DB.AuthToken)
	case config.BackendSQLite, "":
		st, err = OpenSQLite(cfg.DB.ConnectionString)
	default:
		return nil, fmt.Errorf("unknown database backend: %s", cfg.DB.Backend)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// CreateSpontaneousSession records a session built from ad-hoc entries. Each entry becomes
// a throwaway item; no routine is touched.
func CreateSpontaneousSession(ctx context.Context, st Store, userID string, date time.Time, totalDuration int, notes string, entries []models.AdHocEntry) (string, error) {
	items := make([]models.ItemSource, 0, len(entries))
	for _, e := range entries {
		items = append(items, e)
	}
	return st.CreateSession(ctx, userID, models.NewSession{
		Date:          date,
		TotalDuration: totalDuration,
		Notes:         notes,
		Items:         items,
		IsSpontaneous: true,
	})
}

// CreateRoutineSession records practice of saved routines, looking each one up first.
func CreateRoutineSession(ctx context.Context, st Store, userID string, date time.Time, totalDuration int, notes string, routineIDs []string) (string, error) {
	items := make([]models.ItemSource, 0, len(routineIDs))
	for _, id := range routineIDs {
		routine, err := st.GetRoutine(ctx, id)
		if err != nil {
			return "", err
		}
		if routine.UserID != userID {
			return "", fmt.Errorf("routine %s: %w", id, models.ErrNotFound)
		}
		items = append(items, models.RoutineSource{Routine: *routine})
	}
	return st.CreateSession(ctx, userID, models.NewSession{
		Date:          date,
		TotalDuration: totalDuration,
		Notes:         notes,
		Items:         items,
	})
}

func generateID() string {
	return uuid.New().String()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
}

// assignSectionIDs gives fresh ids to sections that have none.
func assignSectionIDs(sections []models.RoutineSection) []models.RoutineSection {
	out := models.CloneSections(sections)
	if out == nil {
		out = []models.RoutineSection{}
	}
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = generateID()
		}
	}
	return out
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
