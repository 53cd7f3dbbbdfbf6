package migration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func newTestDB(t *testing.T) *SQLiteExecutor {
	t.Helper()

	db, err := OpenDB(InMemoryTestSQLiteConfig())
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteExecutor(db)
}

func TestScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	t.Run("orders by numeric version", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"migrations/010_add_index.sql":    {Data: []byte("CREATE INDEX idx ON t(id);")},
			"migrations/002_create_table.sql": {Data: []byte("CREATE TABLE t (id TEXT);")},
			"migrations/README.md":            {Data: []byte("ignored")},
		}

		migrations, err := NewScanner(fsys, "migrations").ScanMigrations()
		if err != nil {
			t.Fatalf("ScanMigrations returned error: %v", err)
		}
		if len(migrations) != 2 {
			t.Fatalf("got %d migrations, want 2", len(migrations))
		}
		if migrations[0].Version != "002" || migrations[1].Version != "010" {
			t.Fatalf("unexpected order: %s, %s", migrations[0].Version, migrations[1].Version)
		}
		if migrations[0].Description != "create table" {
			t.Fatalf("Description = %q", migrations[0].Description)
		}
		if len(migrations[0].Checksum) != 64 {
			t.Fatalf("Checksum = %q, want sha256 hex", migrations[0].Checksum)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"m/001_a.sql":  {Data: []byte("SELECT 1;")},
			"m/0001_b.sql": {Data: []byte("SELECT 1;")},
			"m/001_c.sql":  {Data: []byte("SELECT 1;")},
		}
		if _, err := NewScanner(fsys, "m").ScanMigrations(); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("error = %v, want ErrDuplicateVersion", err)
		}
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"m/create users.sql": {Data: []byte("SELECT 1;")}}
		if _, err := NewScanner(fsys, "m").ScanMigrations(); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("error = %v, want ErrInvalidMigrationFile", err)
		}
	})

	t.Run("rejects empty files", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"m/001_empty.sql": {Data: []byte("  \n")}}
		if _, err := NewScanner(fsys, "m").ScanMigrations(); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("error = %v, want ErrInvalidMigrationFile", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	got := splitStatements(`
		-- users table
		CREATE TABLE a (id TEXT);

		-- only a comment;
		CREATE TABLE b (id TEXT);
	`)
	if len(got) != 2 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	if !strings.HasPrefix(got[1], "CREATE TABLE b") {
		t.Fatalf("second statement = %q", got[1])
	}
}

func TestManager_RunMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fsys := fstest.MapFS{
		"m/001_create_notes.sql": {Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY);")},
		"m/002_add_body.sql":     {Data: []byte("ALTER TABLE notes ADD COLUMN body TEXT;")},
	}

	executor := newTestDB(t)
	manager := NewManager(NewScanner(fsys, "m"), executor, nil)

	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations returned error: %v", err)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.CurrentVersion != "002" || status.PendingCount() != 0 {
		t.Fatalf("status = %+v", status)
	}

	// A second run is a no-op.
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations returned error: %v", err)
	}

	if _, err := executor.db.ExecContext(ctx, "INSERT INTO notes (id, body) VALUES ('n1', 'hello')"); err != nil {
		t.Fatalf("migrated schema unusable: %v", err)
	}
}

func TestManager_RollsBackFailedMigration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fsys := fstest.MapFS{
		"m/001_broken.sql": {Data: []byte("CREATE TABLE ok (id TEXT);\nCREATE TABLE ok (id TEXT);")},
	}

	executor := newTestDB(t)
	manager := NewManager(NewScanner(fsys, "m"), executor, nil)

	err := manager.RunMigrations(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("error = %v, want ErrMigrationFailed", err)
	}

	var count int
	if err := executor.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name = 'ok'").Scan(&count); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if count != 0 {
		t.Fatalf("table from failed migration was kept")
	}
}

func TestManager_DetectsEditedMigration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	executor := newTestDB(t)

	original := fstest.MapFS{"m/001_t.sql": {Data: []byte("CREATE TABLE t (id TEXT);")}}
	if err := NewManager(NewScanner(original, "m"), executor, nil).RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations returned error: %v", err)
	}

	edited := fstest.MapFS{"m/001_t.sql": {Data: []byte("CREATE TABLE t (id TEXT, extra TEXT);")}}
	if _, err := NewManager(NewScanner(edited, "m"), executor, nil).Status(ctx); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("error = %v, want ErrChecksumMismatch", err)
	}
}

func TestSQLiteConfig_ConnectionString(t *testing.T) {
	t.Parallel()

	cfg := SQLiteConfig{DSN: "file:test.db?mode=rwc", BusyTimeout: 2000000000, EnableForeignKeys: true, JournalMode: "WAL"}
	got := cfg.ConnectionString()
	want := "file:test.db?mode=rwc&_pragma=busy_timeout(2000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	if got != want {
		t.Fatalf("ConnectionString() = %q, want %q", got, want)
	}

	if !(SQLiteConfig{DSN: ":memory:"}).IsMemory() {
		t.Fatalf("expected :memory: to be detected")
	}
}
