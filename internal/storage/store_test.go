package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/misterclayt0n/practicebuddy/internal/models"
)

// forEachStore runs fn against every backend, each starting empty.
func forEachStore(t *testing.T, fn func(t *testing.T, st Store)) {
	t.Helper()

	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"memory-file": func(t *testing.T) Store {
			st, err := OpenMemoryStore(filepath.Join(t.TempDir(), "store.toml"))
			if err != nil {
				t.Fatalf("failed to open memory store: %v", err)
			}
			return st
		},
		"sqlite": func(t *testing.T) Store {
			st, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("failed to open sqlite store: %v", err)
			}
			return st
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			st := open(t)
			defer st.Close()
			fn(t, st)
		})
	}
}

func mustCreateUser(t *testing.T, st Store, email string) *models.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), models.NewUser{
		Email:        email,
		DisplayName:  "Test",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func mustCreateRoutine(t *testing.T, st Store, userID, name string, minutes ...int) string {
	t.Helper()
	var sections []models.RoutineSection
	for i, m := range minutes {
		sections = append(sections, models.RoutineSection{
			Name:              name + " part " + string(rune('A'+i)),
			DurationInMinutes: m,
		})
	}
	id, err := st.CreateRoutine(context.Background(), userID, models.RoutineInput{Name: name, Sections: sections})
	if err != nil {
		t.Fatalf("failed to create routine %s: %v", name, err)
	}
	return id
}

func TestPracticeFlow(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		user := mustCreateUser(t, st, "ana@example.com")

		a := mustCreateRoutine(t, st, user.UID, "Scales", 10, 15)
		b := mustCreateRoutine(t, st, user.UID, "Etude", 20)

		day := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
		sessionID, err := CreateRoutineSession(ctx, st, user.UID, day, 0, "good one", []string{a, b})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		session, err := st.GetSession(ctx, sessionID)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if session.TotalDuration != 45 {
			t.Errorf("expected total 45, got %d", session.TotalDuration)
		}
		if len(session.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(session.Items))
		}
		if session.Items[0].Name != "Scales" || session.Items[0].DurationInMinutes != 25 {
			t.Errorf("unexpected first item: %+v", session.Items[0])
		}
		if session.Items[1].Name != "Etude" || session.Items[1].DurationInMinutes != 20 {
			t.Errorf("unexpected second item: %+v", session.Items[1])
		}
		if session.Items[0].Category != models.DefaultCategory {
			t.Errorf("expected category %s, got %s", models.DefaultCategory, session.Items[0].Category)
		}
		if !session.Date.Equal(day) {
			t.Errorf("expected date %v, got %v", day, session.Date)
		}

		for _, id := range []string{a, b} {
			r, err := st.GetRoutine(ctx, id)
			if err != nil {
				t.Fatalf("failed to get routine: %v", err)
			}
			if r.LastPracticed == nil || !r.LastPracticed.Equal(day) {
				t.Errorf("routine %s: expected last practiced %v, got %v", r.Name, day, r.LastPracticed)
			}
		}

		// Editing the routine must not reach into the recorded snapshot.
		newSections := []models.RoutineSection{
			{Name: "Major", DurationInMinutes: 10},
			{Name: "Minor", DurationInMinutes: 15},
			{Name: "Arpeggios", DurationInMinutes: 10},
		}
		if err := st.UpdateRoutine(ctx, a, models.RoutineUpdate{Sections: &newSections}); err != nil {
			t.Fatalf("failed to update routine: %v", err)
		}
		updated, err := st.GetRoutine(ctx, a)
		if err != nil {
			t.Fatalf("failed to get routine: %v", err)
		}
		if updated.DurationInMinutes != 35 {
			t.Errorf("expected recomputed duration 35, got %d", updated.DurationInMinutes)
		}
		if len(updated.Sections) != 3 || updated.Sections[2].Name != "Arpeggios" {
			t.Errorf("unexpected sections after update: %+v", updated.Sections)
		}

		session, err = st.GetSession(ctx, sessionID)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if session.Items[0].DurationInMinutes != 25 || len(session.Items[0].Sections) != 2 {
			t.Errorf("snapshot changed after routine edit: %+v", session.Items[0])
		}
	})
}

func TestRoutineSoftDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		user := mustCreateUser(t, st, "ana@example.com")
		id := mustCreateRoutine(t, st, user.UID, "Warmup", 5)
		keep := mustCreateRoutine(t, st, user.UID, "Repertoire", 30)

		sessionID, err := CreateRoutineSession(ctx, st, user.UID, time.Now(), 0, "", []string{id})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if err := st.DeleteRoutine(ctx, id); err != nil {
			t.Fatalf("failed to delete routine: %v", err)
		}

		routines, err := st.ListRoutines(ctx, user.UID)
		if err != nil {
			t.Fatalf("failed to list routines: %v", err)
		}
		if len(routines) != 1 || routines[0].ID != keep {
			t.Errorf("expected only %s listed, got %+v", keep, routines)
		}

		deleted, err := st.GetRoutine(ctx, id)
		if err != nil {
			t.Fatalf("deleted routine should still be readable: %v", err)
		}
		if !deleted.IsInactive {
			t.Error("expected deleted routine to be inactive")
		}

		session, err := st.GetSession(ctx, sessionID)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if session.Items[0].Name != "Warmup" {
			t.Errorf("session item lost after delete: %+v", session.Items[0])
		}
	})
}

func TestSpontaneousSession(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		user := mustCreateUser(t, st, "ana@example.com")
		routineID := mustCreateRoutine(t, st, user.UID, "Scales", 10)

		entries := []models.AdHocEntry{
			{Name: "Improvisation", Category: "Technique", DurationInMinutes: 15},
			{Name: "Noodling", DurationInMinutes: 5},
		}
		id, err := CreateSpontaneousSession(ctx, st, user.UID, time.Now(), 0, "jam", entries)
		if err != nil {
			t.Fatalf("failed to create spontaneous session: %v", err)
		}

		session, err := st.GetSession(ctx, id)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if !session.IsSpontaneous {
			t.Error("expected session to be spontaneous")
		}
		if session.TotalDuration != 20 {
			t.Errorf("expected total 20, got %d", session.TotalDuration)
		}
		if session.Items[0].Category != "Technique" {
			t.Errorf("expected category Technique, got %s", session.Items[0].Category)
		}
		if session.Items[1].Category != models.DefaultCategory {
			t.Errorf("expected fallback category, got %s", session.Items[1].Category)
		}

		routine, err := st.GetRoutine(ctx, routineID)
		if err != nil {
			t.Fatalf("failed to get routine: %v", err)
		}
		if routine.LastPracticed != nil {
			t.Errorf("spontaneous session touched a routine: %v", routine.LastPracticed)
		}
	})
}

func TestSessionNotes(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		user := mustCreateUser(t, st, "ana@example.com")
		routineID := mustCreateRoutine(t, st, user.UID, "Scales", 10)

		id, err := CreateRoutineSession(ctx, st, user.UID, time.Now(), 10, "", []string{routineID})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		before, _ := st.GetSession(ctx, id)

		if err := st.UpdateSessionNotes(ctx, id, "felt slow"); err != nil {
			t.Fatalf("failed to update notes: %v", err)
		}
		if err := st.UpdateSessionItemNotes(ctx, id, before.Items[0].ID, "watch the thumb"); err != nil {
			t.Fatalf("failed to update item notes: %v", err)
		}

		after, err := st.GetSession(ctx, id)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if after.Notes != "felt slow" || after.Items[0].Notes != "watch the thumb" {
			t.Errorf("notes not saved: %q / %q", after.Notes, after.Items[0].Notes)
		}
		if after.TotalDuration != before.TotalDuration || after.Items[0].Name != before.Items[0].Name {
			t.Error("updating notes changed other fields")
		}

		if err := st.UpdateSessionItemNotes(ctx, id, "missing", "x"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown item, got %v", err)
		}
	})
}

func TestNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		name := "x"

		checks := map[string]error{
			"GetUser":            func() error { _, err := st.GetUser(ctx, "missing"); return err }(),
			"GetRoutine":         func() error { _, err := st.GetRoutine(ctx, "missing"); return err }(),
			"UpdateRoutine":      st.UpdateRoutine(ctx, "missing", models.RoutineUpdate{Name: &name}),
			"DeleteRoutine":      st.DeleteRoutine(ctx, "missing"),
			"GetSession":         func() error { _, err := st.GetSession(ctx, "missing"); return err }(),
			"UpdateSessionNotes": st.UpdateSessionNotes(ctx, "missing", "x"),
			"CreateRoutine": func() error {
				_, err := st.CreateRoutine(ctx, "missing", models.RoutineInput{Name: "x"})
				return err
			}(),
		}
		for op, err := range checks {
			if !errors.Is(err, models.ErrNotFound) {
				t.Errorf("%s: expected ErrNotFound, got %v", op, err)
			}
		}
	})
}

func TestCreateSessionValidation(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		user := mustCreateUser(t, st, "ana@example.com")
		other := mustCreateUser(t, st, "bia@example.com")
		routineID := mustCreateRoutine(t, st, user.UID, "Scales", 10)

		// Total must match the items.
		_, err := CreateRoutineSession(ctx, st, user.UID, time.Now(), 99, "", []string{routineID})
		if !errors.Is(err, models.ErrInvalidRecord) {
			t.Errorf("expected ErrInvalidRecord, got %v", err)
		}

		// Another user's routine is invisible.
		_, err = CreateRoutineSession(ctx, st, other.UID, time.Now(), 0, "", []string{routineID})
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		sessions, err := st.ListSessions(ctx, user.UID)
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 0 {
			t.Errorf("expected no sessions stored, got %d", len(sessions))
		}
		routine, _ := st.GetRoutine(ctx, routineID)
		if routine.LastPracticed != nil {
			t.Error("failed session moved last practiced")
		}
	})
}

func TestListSessionsInsertionOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		user := mustCreateUser(t, st, "ana@example.com")
		other := mustCreateUser(t, st, "bia@example.com")

		base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
		for _, offset := range []int{2, 0, 1} {
			entries := []models.AdHocEntry{{Name: "Day", DurationInMinutes: 10 + offset}}
			if _, err := CreateSpontaneousSession(ctx, st, user.UID, base.AddDate(0, 0, offset), 0, "", entries); err != nil {
				t.Fatalf("failed to create session: %v", err)
			}
		}
		if _, err := CreateSpontaneousSession(ctx, st, other.UID, base, 0, "", []models.AdHocEntry{{Name: "Other", DurationInMinutes: 5}}); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		sessions, err := st.ListSessions(ctx, user.UID)
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 3 {
			t.Fatalf("expected 3 sessions, got %d", len(sessions))
		}
		for i, want := range []int{12, 10, 11} {
			if sessions[i].TotalDuration != want {
				t.Errorf("session %d: expected %d minutes, got %d", i, want, sessions[i].TotalDuration)
			}
		}
	})
}

func TestUsers(t *testing.T) {
	forEachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		user := mustCreateUser(t, st, "Ana@Example.com ")

		if user.Email != "ana@example.com" {
			t.Errorf("expected normalized email, got %q", user.Email)
		}
		if len(user.Categories) != len(models.DefaultCategories) {
			t.Errorf("expected default categories, got %v", user.Categories)
		}
		if user.Settings != models.DefaultSettings() {
			t.Errorf("expected default settings, got %+v", user.Settings)
		}

		_, err := st.CreateUser(ctx, models.NewUser{Email: "ANA@example.com", PasswordHash: "h"})
		if !errors.Is(err, models.ErrDuplicateEmail) {
			t.Errorf("expected ErrDuplicateEmail, got %v", err)
		}

		uid, hash, err := st.GetCredentials(ctx, "ana@EXAMPLE.com")
		if err != nil {
			t.Fatalf("failed to get credentials: %v", err)
		}
		if uid != user.UID || hash != "hash" {
			t.Errorf("unexpected credentials %s/%s", uid, hash)
		}

		settings := models.UserSettings{DailyGoalInMinutes: 45, WeeklyGoalInMinutes: 200, DefaultSessionDuration: 20}
		name := "Ana"
		if err := st.UpdateUser(ctx, user.UID, models.UserUpdate{DisplayName: &name, Settings: &settings}); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}
		if err := st.AddCategory(ctx, user.UID, "Ear Training"); err != nil {
			t.Fatalf("failed to add category: %v", err)
		}
		if err := st.AddCategory(ctx, user.UID, "Ear Training"); err != nil {
			t.Fatalf("adding a category twice should be a no-op: %v", err)
		}

		got, err := st.GetUser(ctx, user.UID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.DisplayName != "Ana" || got.Settings != settings {
			t.Errorf("update not applied: %+v", got)
		}
		if len(got.Categories) != len(models.DefaultCategories)+1 || got.Categories[len(got.Categories)-1] != "Ear Training" {
			t.Errorf("unexpected categories: %v", got.Categories)
		}

		bad := models.UserSettings{DailyGoalInMinutes: -1}
		if err := st.UpdateUser(ctx, user.UID, models.UserUpdate{Settings: &bad}); !errors.Is(err, models.ErrInvalidRecord) {
			t.Errorf("expected ErrInvalidRecord for negative goal, got %v", err)
		}
	})
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	user := mustCreateUser(t, src, "ana@example.com")
	routineID := mustCreateRoutine(t, src, user.UID, "Scales", 10, 5)
	day := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	if _, err := CreateRoutineSession(ctx, src, user.UID, day, 0, "export me", []string{routineID}); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	path := filepath.Join(t.TempDir(), "dump.toml")
	if err := ExportToFile(ctx, src, path); err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	dst, err := OpenSQLite(filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	defer dst.Close()

	if err := ImportFromFile(ctx, dst, path); err != nil {
		t.Fatalf("failed to import: %v", err)
	}

	uid, hash, err := dst.GetCredentials(ctx, "ana@example.com")
	if err != nil || uid != user.UID || hash != "hash" {
		t.Fatalf("credentials not imported: %s %s %v", uid, hash, err)
	}

	routine, err := dst.GetRoutine(ctx, routineID)
	if err != nil {
		t.Fatalf("failed to get imported routine: %v", err)
	}
	if routine.DurationInMinutes != 15 || len(routine.Sections) != 2 {
		t.Errorf("unexpected imported routine: %+v", routine)
	}
	if routine.LastPracticed == nil || !routine.LastPracticed.Equal(day) {
		t.Errorf("expected last practiced %v, got %v", day, routine.LastPracticed)
	}

	sessions, err := dst.ListSessions(ctx, user.UID)
	if err != nil {
		t.Fatalf("failed to list imported sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Notes != "export me" || len(sessions[0].Items[0].Sections) != 2 {
		t.Errorf("unexpected imported sessions: %+v", sessions)
	}
}

func TestImportRejectsInconsistentSnapshot(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	user := mustCreateUser(t, src, "ana@example.com")
	scales := mustCreateRoutine(t, src, user.UID, "Scales", 10)
	etude := mustCreateRoutine(t, src, user.UID, "Etude", 5)
	day := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if _, err := CreateRoutineSession(ctx, src, user.UID, day, 0, "", []string{scales, etude}); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
	}

	tests := []struct {
		name   string
		mutate func(snap *Snapshot)
	}{
		{
			name:   "total does not match items",
			mutate: func(snap *Snapshot) { snap.Sessions[0].TotalDuration = 999 },
		},
		{
			name:   "duplicate session id",
			mutate: func(snap *Snapshot) { snap.Sessions[1].ID = snap.Sessions[0].ID },
		},
		{
			name:   "duplicate item id",
			mutate: func(snap *Snapshot) { snap.Sessions[1].Items[0].ID = snap.Sessions[0].Items[1].ID },
		},
		{
			name:   "duplicate routine id",
			mutate: func(snap *Snapshot) { snap.Routines[1].ID = snap.Routines[0].ID },
		},
		{
			name: "duplicate section id",
			mutate: func(snap *Snapshot) {
				snap.Routines[1].Sections[0].ID = snap.Routines[0].Sections[0].ID
			},
		},
		{
			name:   "session without id",
			mutate: func(snap *Snapshot) { snap.Sessions[0].ID = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := src.Export(ctx)
			if err != nil {
				t.Fatalf("failed to export: %v", err)
			}
			tt.mutate(snap)

			forEachStore(t, func(t *testing.T, st Store) {
				if err := st.Import(ctx, snap); !errors.Is(err, models.ErrInvalidRecord) {
					t.Fatalf("expected ErrInvalidRecord, got %v", err)
				}
				after, err := st.Export(ctx)
				if err != nil {
					t.Fatalf("failed to export after rejected import: %v", err)
				}
				if len(after.Users) != 0 || len(after.Sessions) != 0 {
					t.Errorf("rejected import left data behind: %+v", after)
				}
			})
		})
	}

	// The untouched snapshot still imports.
	snap, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}
	forEachStore(t, func(t *testing.T, st Store) {
		if err := st.Import(ctx, snap); err != nil {
			t.Fatalf("failed to import consistent snapshot: %v", err)
		}
	})
}

func TestMemoryStoreReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.toml")

	st, err := OpenMemoryStore(path)
	if err != nil {
		t.Fatalf("failed to open memory store: %v", err)
	}
	user := mustCreateUser(t, st, "ana@example.com")
	mustCreateRoutine(t, st, user.UID, "Scales", 10)

	reopened, err := OpenMemoryStore(path)
	if err != nil {
		t.Fatalf("failed to reopen memory store: %v", err)
	}
	routines, err := reopened.ListRoutines(ctx, user.UID)
	if err != nil {
		t.Fatalf("failed to list routines: %v", err)
	}
	if len(routines) != 1 || routines[0].Name != "Scales" {
		t.Errorf("expected reloaded routine, got %+v", routines)
	}
}

func TestMemoryStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.toml")
	if err := os.WriteFile(path, []byte("this is = = not toml"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := OpenMemoryStore(path); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	user := mustCreateUser(t, st, "ana@example.com")
	id := mustCreateRoutine(t, st, user.UID, "Scales", 10)

	r, _ := st.GetRoutine(ctx, id)
	r.Sections[0].Name = "changed"

	again, _ := st.GetRoutine(ctx, id)
	if again.Sections[0].Name == "changed" {
		t.Error("mutating a returned routine changed the store")
	}
}
