package shared

import (
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	ConfigureDatabase(db, 1, 1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return n == 1
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("failed to load migrations: %v", err)
	}

	want := []struct {
		version int
		name    string
	}{
		{0, "create_kv"},
		{1, "create_import_runs"},
	}
	if len(migrations) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(migrations))
	}
	for i, w := range want {
		m := migrations[i]
		if m.Version != w.version || m.Name != w.name {
			t.Errorf("migration %d: got %d %q, want %d %q", i, m.Version, m.Name, w.version, w.name)
		}
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d is missing up or down SQL", m.Version)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{"empty", "", nil},
		{"comments only", "-- nothing here\n\n", nil},
		{"single", "DROP TABLE kv;", []string{"DROP TABLE kv"}},
		{
			name:   "trailing comments and blank lines",
			script: "-- header\nCREATE TABLE a (\n  id TEXT -- key\n);\n\nCREATE TABLE b (id TEXT);\n",
			want:   []string{"CREATE TABLE a (\nid TEXT\n)", "CREATE TABLE b (id TEXT)"},
		},
		{"missing final semicolon", "SELECT 1;\nSELECT 2", []string{"SELECT 1", "SELECT 2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitStatements(tt.script); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitStatements() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunMigrations(t *testing.T) {
	t.Run("fresh database", func(t *testing.T) {
		db := openMemory(t)

		if _, ok, err := MigrationVersion(db); err != nil || ok {
			t.Fatalf("MigrationVersion() on fresh db = ok %v, err %v; want no version", ok, err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"kv", "import_runs"} {
			if !tableExists(t, db, table) {
				t.Errorf("%s table should exist after migrations", table)
			}
		}

		version, ok, err := MigrationVersion(db)
		if err != nil || !ok || version != 1 {
			t.Errorf("MigrationVersion() = %d, %v, %v; want 1, true, nil", version, ok, err)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		db := openMemory(t)

		for i := range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("run %d: %v", i+1, err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d applied migrations, got %d", len(migrations), count)
		}
	})
}

func TestRollbackMigration(t *testing.T) {
	db := openMemory(t)
	if err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	steps := []struct {
		dropped   string
		remaining string
	}{
		{dropped: "import_runs", remaining: "kv"},
		{dropped: "kv"},
	}
	for _, step := range steps {
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("rollback of %s: %v", step.dropped, err)
		}
		if tableExists(t, db, step.dropped) {
			t.Errorf("%s should be dropped", step.dropped)
		}
		if step.remaining != "" && !tableExists(t, db, step.remaining) {
			t.Errorf("%s should survive", step.remaining)
		}
	}

	if err := RollbackMigration(db); !errors.Is(err, ErrNoMigrations) {
		t.Errorf("rollback past version 0: got %v, want ErrNoMigrations", err)
	}

	if err := RunMigrations(db); err != nil {
		t.Fatalf("re-apply after full rollback: %v", err)
	}
	if !tableExists(t, db, "import_runs") {
		t.Error("import_runs should be recreated")
	}
}

func TestOpenDatabase(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "favx.db")
		db, err := OpenDatabase(DatabaseConfig{Path: path, MaxOpenConns: 2, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("OpenDatabase() error = %v", err)
		}
		defer db.Close()

		if !tableExists(t, db, "kv") {
			t.Error("kv table should exist")
		}
		if got := db.Stats().MaxOpenConnections; got != 2 {
			t.Errorf("MaxOpenConnections = %d, want 2", got)
		}
	})

	t.Run("memory is pinned to one connection", func(t *testing.T) {
		db, err := OpenDatabase(DatabaseConfig{Path: ":memory:", MaxOpenConns: 10})
		if err != nil {
			t.Fatalf("OpenDatabase() error = %v", err)
		}
		defer db.Close()

		if got := db.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("MaxOpenConnections = %d, want 1", got)
		}
		if !tableExists(t, db, "import_runs") {
			t.Error("import_runs table should exist")
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := OpenDatabase(DatabaseConfig{}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("OpenDatabase() error = %v, want ErrInvalidConfig", err)
		}
	})
}
