package shared

import (
	"cmp"
	"database/sql"
	"embed"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration pairs the up and down scripts sharing one version prefix.
type Migration struct {
	Version int
	Up      string
	Down    string
}

// parseMigrationName splits "0002_create_notifications_up.sql" into 2 and "up".
func parseMigrationName(name string) (version int, direction string, ok bool) {
	base, found := strings.CutSuffix(name, ".sql")
	if !found {
		return 0, "", false
	}
	prefix, rest, found := strings.Cut(base, "_")
	if !found {
		return 0, "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", false
	}
	switch {
	case strings.HasSuffix(rest, "_up"):
		return version, "up", true
	case strings.HasSuffix(rest, "_down"):
		return version, "down", true
	}
	return 0, "", false
}

// loadMigrations reads the embedded scripts ordered by version. A version missing either
// direction is an error.
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, direction, ok := parseMigrationName(entry.Name())
		if !ok {
			continue
		}

		content, err := migrationFiles.ReadFile("sql/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		m, exists := byVersion[version]
		if !exists {
			m = &Migration{Version: version}
			byVersion[version] = m
		}
		if direction == "up" {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", m.Version)
		}
		migrations = append(migrations, *m)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return migrations, nil
}

// RunMigrations applies every migration not yet recorded in schema_migrations, oldest first.
func RunMigrations(db *sql.DB) error {
	migrations, applied, err := migrationState(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := inTx(db, m.Up, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// RollbackMigration undoes the most recently applied migration.
func RollbackMigration(db *sql.DB) error {
	migrations, applied, err := migrationState(db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return fmt.Errorf("%w: no migrations to rollback", ErrNotFound)
	}

	current, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	i := slices.IndexFunc(migrations, func(m Migration) bool { return m.Version == current })
	if i < 0 {
		return fmt.Errorf("%w: migration version %d", ErrNotFound, current)
	}
	if err := inTx(db, migrations[i].Down, "DELETE FROM schema_migrations WHERE version = ?", current); err != nil {
		return fmt.Errorf("failed to rollback migration %d: %w", current, err)
	}
	return nil
}

// MigrationStatus reports the highest applied version and how many embedded migrations are still pending.
func MigrationStatus(db *sql.DB) (current int, pending int, err error) {
	migrations, applied, err := migrationState(db)
	if err != nil {
		return 0, 0, err
	}
	if current, err = getCurrentVersion(db); err != nil {
		return 0, 0, fmt.Errorf("failed to get current version: %w", err)
	}
	for _, m := range migrations {
		if !applied[m.Version] {
			pending++
		}
	}
	return current, pending, nil
}

// migrationState loads the embedded migrations and the set of versions already applied,
// creating the bookkeeping table on first use.
func migrationState(db *sql.DB) ([]Migration, map[int]bool, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return nil, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, nil, fmt.Errorf("failed to check migration status: %w", err)
		}
		applied[v] = true
	}
	return migrations, applied, rows.Err()
}

func getCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// inTx runs each statement of script, then record with version, in a single transaction.
func inTx(db *sql.DB, script, record string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(script, ";") {
		if stmt = stripComments(stmt); stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// stripComments drops "--" comments and blank lines.
func stripComments(stmt string) string {
	var kept []string
	for line := range strings.Lines(stmt) {
		line, _, _ = strings.Cut(line, "--")
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
