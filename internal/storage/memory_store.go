package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/misterclayt0n/practicebuddy/internal/config"
	"github.com/misterclayt0n/practicebuddy/internal/logger"
	"github.com/misterclayt0n/practicebuddy/internal/models"
)

// MemoryStore keeps every record in process memory. With a path it loads the file
// on open and rewrites it after each successful write.
type MemoryStore struct {
	mu   sync.RWMutex
	path string
	data Snapshot
	log  *logger.Scope
}

// NewMemoryStore returns an empty store that never touches disk.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: Snapshot{Version: SnapshotVersion},
		log:  logger.Store(config.BackendMemory),
	}
}

// OpenMemoryStore loads the TOML file at path, or starts empty if it does not exist yet.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	m := NewMemoryStore()
	m.path = path
	if path == "" {
		return m, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		m.log.Debug("starting empty", "path", path)
		return m, nil
	}

	snap, err := ReadSnapshot(path)
	if err != nil {
		if errors.Is(err, models.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, unavailable(fmt.Sprintf("Failed to load %s", path), err)
	}
	m.data = *snap
	m.data.Version = SnapshotVersion

	m.log.Debug("loaded", "path", path, "users", len(m.data.Users))
	return m, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// flush writes the data through a temp file so a crash never leaves half a file behind.
func (m *MemoryStore) flush() error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return unavailable("Failed to create store directory", err)
	}

	tmp := m.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return unavailable("Failed to write store", err)
	}
	if err := toml.NewEncoder(f).Encode(&m.data); err != nil {
		f.Close()
		return unavailable("Failed to encode store", err)
	}
	if err := f.Close(); err != nil {
		return unavailable("Failed to write store", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return unavailable("Failed to replace store", err)
	}
	return nil
}

// update runs fn under the write lock. If fn or the flush fails, the data is restored.
func (m *MemoryStore) update(fn func(d *Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := cloneSnapshot(&m.data)
	if err := fn(&m.data); err != nil {
		m.data = *before
		return err
	}
	if err := m.flush(); err != nil {
		m.data = *before
		return err
	}
	return nil
}

func (d *Snapshot) userIndex(uid string) int {
	for i := range d.Users {
		if d.Users[i].User.UID == uid {
			return i
		}
	}
	return -1
}

func (d *Snapshot) routineIndex(id string) int {
	for i := range d.Routines {
		if d.Routines[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Snapshot) sessionIndex(id string) int {
	for i := range d.Sessions {
		if d.Sessions[i].ID == id {
			return i
		}
	}
	return -1
}

//
// Users
//

func (m *MemoryStore) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)
	if email == "" || in.PasswordHash == "" {
		return nil, fmt.Errorf("email and password are required: %w", models.ErrInvalidRecord)
	}

	user := models.User{
		UID:         generateID(),
		Email:       email,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Categories:  append([]string(nil), models.DefaultCategories...),
		Settings:    models.DefaultSettings(),
		CreatedAt:   time.Now().UTC(),
	}

	err := m.update(func(d *Snapshot) error {
		for _, rec := range d.Users {
			if rec.User.Email == email {
				return fmt.Errorf("%s: %w", email, models.ErrDuplicateEmail)
			}
		}
		d.Users = append(d.Users, UserRecord{User: cloneUser(user), PasswordHash: in.PasswordHash})
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.User(user.UID).Info("user created")
	return &user, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.data.userIndex(uid)
	if i < 0 {
		return nil, notFound("user", uid)
	}
	user := cloneUser(m.data.Users[i].User)
	return &user, nil
}

func (m *MemoryStore) GetCredentials(ctx context.Context, email string) (string, string, error) {
	email = models.NormalizeEmail(email)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.data.Users {
		if rec.User.Email == email {
			return rec.User.UID, rec.PasswordHash, nil
		}
	}
	return "", "", notFound("user", email)
}

func (m *MemoryStore) UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) error {
	if upd.Settings != nil {
		if err := validateSettings(*upd.Settings); err != nil {
			return err
		}
	}

	return m.update(func(d *Snapshot) error {
		i := d.userIndex(uid)
		if i < 0 {
			return notFound("user", uid)
		}
		u := &d.Users[i].User
		if upd.DisplayName != nil {
			u.DisplayName = strings.TrimSpace(*upd.DisplayName)
		}
		if upd.Settings != nil {
			u.Settings = *upd.Settings
		}
		if upd.Categories != nil {
			u.Categories = models.NormalizeCategories(upd.Categories)
		}
		return nil
	})
}

func (m *MemoryStore) AddCategory(ctx context.Context, uid, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category name is required: %w", models.ErrInvalidRecord)
	}

	return m.update(func(d *Snapshot) error {
		i := d.userIndex(uid)
		if i < 0 {
			return notFound("user", uid)
		}
		u := &d.Users[i].User
		if !u.HasCategory(name) {
			u.Categories = append(u.Categories, name)
		}
		return nil
	})
}

//
// Routines
//

func (m *MemoryStore) CreateRoutine(ctx context.Context, userID string, in models.RoutineInput) (string, error) {
	if err := in.Validate(); err != nil {
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

	err := m.update(func(d *Snapshot) error {
		if d.userIndex(userID) < 0 {
			return notFound("user", userID)
		}
		d.Routines = append(d.Routines, routine)
		return nil
	})
	if err != nil {
		return "", err
	}

	m.log.User(userID).Debug("routine created", "id", routine.ID, "sections", len(routine.Sections))
	return routine.ID, nil
}

func (m *MemoryStore) GetRoutine(ctx context.Context, id string) (*models.Routine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.data.routineIndex(id)
	if i < 0 {
		return nil, notFound("routine", id)
	}
	r := cloneRoutine(m.data.Routines[i])
	return &r, nil
}

func (m *MemoryStore) ListRoutines(ctx context.Context, userID string) ([]models.Routine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	routines := []models.Routine{}
	for _, r := range m.data.Routines {
		if r.UserID == userID && !r.IsInactive {
			routines = append(routines, cloneRoutine(r))
		}
	}
	return routines, nil
}

func (m *MemoryStore) UpdateRoutine(ctx context.Context, id string, upd models.RoutineUpdate) error {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return fmt.Errorf("routine name is required: %w", models.ErrInvalidRecord)
	}
	if upd.Sections != nil {
		if err := models.ValidateSections(*upd.Sections); err != nil {
			return err
		}
	}

	return m.update(func(d *Snapshot) error {
		i := d.routineIndex(id)
		if i < 0 {
			return notFound("routine", id)
		}
		r := &d.Routines[i]
		if upd.Name != nil {
			r.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Description != nil {
			r.Description = *upd.Description
		}
		if upd.IsInactive != nil {
			r.IsInactive = *upd.IsInactive
		}
		if upd.Sections != nil {
			r.Sections = assignSectionIDs(*upd.Sections)
			r.DurationInMinutes = models.SectionsDuration(r.Sections)
		}
		return nil
	})
}

func (m *MemoryStore) DeleteRoutine(ctx context.Context, id string) error {
	err := m.update(func(d *Snapshot) error {
		i := d.routineIndex(id)
		if i < 0 {
			return notFound("routine", id)
		}
		d.Routines[i].IsInactive = true
		return nil
	})
	if err == nil {
		m.log.Debug("routine deactivated", "id", id)
	}
	return err
}

//
// Sessions
//

func (m *MemoryStore) CreateSession(ctx context.Context, userID string, in models.NewSession) (string, error) {
	prepared, err := in.Prepare(generateID)
	if err != nil {
		return "", err
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

	err = m.update(func(d *Snapshot) error {
		if d.userIndex(userID) < 0 {
			return notFound("user", userID)
		}
		for _, routineID := range prepared.RoutineIDs {
			i := d.routineIndex(routineID)
			if i < 0 || d.Routines[i].UserID != userID {
				return notFound("routine", routineID)
			}
		}
		for _, routineID := range prepared.RoutineIDs {
			date := in.Date
			d.Routines[d.routineIndex(routineID)].LastPracticed = &date
		}
		d.Sessions = append(d.Sessions, session)
		return nil
	})
	if err != nil {
		return "", err
	}

	m.log.User(userID).Info("session recorded", "id", session.ID, "items", len(session.Items), "minutes", session.TotalDuration)
	return session.ID, nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id string) (*models.PracticeSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.data.sessionIndex(id)
	if i < 0 {
		return nil, notFound("session", id)
	}
	s := cloneSession(m.data.Sessions[i])
	return &s, nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, userID string) ([]models.PracticeSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := []models.PracticeSession{}
	for _, s := range m.data.Sessions {
		if s.UserID == userID {
			sessions = append(sessions, cloneSession(s))
		}
	}
	return sessions, nil
}

func (m *MemoryStore) UpdateSessionNotes(ctx context.Context, sessionID, notes string) error {
	return m.update(func(d *Snapshot) error {
		i := d.sessionIndex(sessionID)
		if i < 0 {
			return notFound("session", sessionID)
		}
		d.Sessions[i].Notes = notes
		return nil
	})
}

func (m *MemoryStore) UpdateSessionItemNotes(ctx context.Context, sessionID, itemID, notes string) error {
	return m.update(func(d *Snapshot) error {
		i := d.sessionIndex(sessionID)
		if i < 0 {
			return notFound("session", sessionID)
		}
		for j := range d.Sessions[i].Items {
			if d.Sessions[i].Items[j].ID == itemID {
				d.Sessions[i].Items[j].Notes = notes
				return nil
			}
		}
		return notFound("session item", sessionID+"/"+itemID)
	})
}

//
// Portability
//

func (m *MemoryStore) Export(ctx context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneSnapshot(&m.data), nil
}

func (m *MemoryStore) Import(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	return m.update(func(d *Snapshot) error {
		*d = *cloneSnapshot(snap)
		d.Version = SnapshotVersion
		for i := range d.Users {
			d.Users[i].User.Email = models.NormalizeEmail(d.Users[i].User.Email)
			d.Users[i].User.Categories = models.NormalizeCategories(d.Users[i].User.Categories)
		}
		for i := range d.Routines {
			d.Routines[i].Sections = assignSectionIDs(d.Routines[i].Sections)
			d.Routines[i].DurationInMinutes = models.SectionsDuration(d.Routines[i].Sections)
		}
		return nil
	})
}

//
// Copies, so callers never alias stored records.
//

func cloneUser(u models.User) models.User {
	u.Categories = append([]string{}, u.Categories...)
	return u
}

func cloneRoutine(r models.Routine) models.Routine {
	r.Sections = models.CloneSections(r.Sections)
	if r.Sections == nil {
		r.Sections = []models.RoutineSection{}
	}
	if r.LastPracticed != nil {
		t := *r.LastPracticed
		r.LastPracticed = &t
	}
	return r
}

func cloneSession(s models.PracticeSession) models.PracticeSession {
	items := make([]models.PracticeSessionItem, len(s.Items))
	for i, item := range s.Items {
		item.Sections = models.CloneSections(item.Sections)
		items[i] = item
	}
	s.Items = items
	return s
}

func cloneSnapshot(snap *Snapshot) *Snapshot {
	out := &Snapshot{Version: snap.Version}
	for _, rec := range snap.Users {
		out.Users = append(out.Users, UserRecord{User: cloneUser(rec.User), PasswordHash: rec.PasswordHash})
	}
	for _, r := range snap.Routines {
		out.Routines = append(out.Routines, cloneRoutine(r))
	}
	for _, s := range snap.Sessions {
		out.Sessions = append(out.Sessions, cloneSession(s))
	}
	return out
}
