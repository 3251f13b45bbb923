package database

import (
	"testing"
	"testing/fstest"

	"hangout-backend/migrations"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name     string
		expected int
	}{
		{"001_initial_schema.sql", 1},
		{"012_chat.sql", 12},
		{"abc_broken.sql", 0},
		{"7_short.sql", 0},
		{"x.sql", 0},
	}

	for _, tc := range tests {
		if got := migrationVersion(tc.name); got != tc.expected {
			t.Errorf("migrationVersion(%q) = %d, expected %d", tc.name, got, tc.expected)
		}
	}
}

func TestMigrationFiles_SortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("SELECT 2")},
		"001_first.sql":  {Data: []byte("SELECT 1")},
		"README.md":      {Data: []byte("notes")},
	}

	names, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "001_first.sql" || names[1] != "002_second.sql" {
		t.Fatalf("unexpected migration order: %v", names)
	}
}

func TestEmbeddedMigrationsAreVersioned(t *testing.T) {
	names, err := migrationFiles(migrations.FS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for _, name := range names {
		if migrationVersion(name) == 0 {
			t.Errorf("migration %q has no version prefix", name)
		}
	}
}
