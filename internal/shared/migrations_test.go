package shared

import (
	"errors"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" || m.Down == "" {
				t.Errorf("migration version %d is incomplete", m.Version)
			}
		}
	})

	t.Run("parses migration file names", func(t *testing.T) {
		cases := []struct {
			name      string
			version   int
			direction string
			ok        bool
		}{
			{"0002_create_notifications_up.sql", 2, "up", true},
			{"0001_create_screen_states_down.sql", 1, "down", true},
			{"0001_create_screen_states.sql", 0, "", false},
			{"notes_up.sql", 0, "", false},
			{"0003_up.txt", 0, "", false},
		}
		for _, tc := range cases {
			version, direction, ok := parseMigrationName(tc.name)
			if version != tc.version || direction != tc.direction || ok != tc.ok {
				t.Errorf("%s: got (%d, %q, %v), want (%d, %q, %v)", tc.name, version, direction, ok, tc.version, tc.direction, tc.ok)
			}
		}
	})

	t.Run("Rollback on an empty database", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RollbackMigration(db); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"screen_states", "screen_states_sequence", "notifications", "notifications_sequence"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM notifications LIMIT 1"); err == nil {
			t.Error("notifications table should be dropped after rollback")
		}
		if _, err := db.Exec("SELECT 1 FROM screen_states LIMIT 1"); err != nil {
			t.Errorf("screen_states should survive a single rollback: %v", err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		current, pending, err := MigrationStatus(db)
		if err != nil {
			t.Fatalf("failed to read migration status: %v", err)
		}
		if current != 2 || pending != 0 {
			t.Errorf("expected version 2 with nothing pending, got %d with %d pending", current, pending)
		}
	})

	t.Run("MigrationStatus on a fresh database", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		current, pending, err := MigrationStatus(db)
		if err != nil {
			t.Fatalf("failed to read migration status: %v", err)
		}
		if current != 0 || pending != 2 {
			t.Errorf("expected version 0 with 2 pending, got %d with %d pending", current, pending)
		}
	})
}
