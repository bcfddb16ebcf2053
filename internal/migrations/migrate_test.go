package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_table_scores.up.sql",
		"000001_create_table_scores.down.sql",
		"000012_create_operators.up.sql",
		"README.md",
		"abc_not_a_version.sql",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "000099_dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got := findLatestMigrationVersion(dir); got != 12 {
		t.Errorf("findLatestMigrationVersion() = %d, want 12", got)
	}
}

func TestFindLatestMigrationVersionMissingDir(t *testing.T) {
	if got := findLatestMigrationVersion(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("findLatestMigrationVersion() = %d, want 0", got)
	}
}

func TestRunMigrationsRequiresURL(t *testing.T) {
	if err := RunMigrations(""); err == nil {
		t.Error("expected an error for an empty database URL")
	}
}
