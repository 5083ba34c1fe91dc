package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwhitfield/wishlist-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestItemsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS items",
		"CHECK (price >= 0)",
		"CHECK (status IN ('pending', 'approved', 'rejected'))",
		"CHECK ((child_id IS NULL) <> (parent_id IS NULL))",
		"FOREIGN KEY (child_id) REFERENCES children(id) ON DELETE CASCADE",
		"FOREIGN KEY (parent_id) REFERENCES users(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReservationsMigrationEnforcesExclusivity(t *testing.T) {
	content := readMigration(t, "*_create_reservations.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS reservations",
		"CREATE UNIQUE INDEX IF NOT EXISTS reservations_item_id_key ON reservations (item_id)",
		"FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS reservations",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration dir failed validation: %v", err)
	}
}
