package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"orderdesk/pkg/db"
)

func TestRunEmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		err := Run(dsn, "up")
		if err == nil || !strings.Contains(err.Error(), "DATABASE_URL is not set") {
			t.Fatalf("Run(%q) = %v", dsn, err)
		}
	}
}

func TestRunInvalidDirection(t *testing.T) {
	for _, dir := range []string{"", "sideways", "UP", "Down"} {
		err := Run("postgres://localhost/test", dir)
		if err == nil || !strings.Contains(err.Error(), "direction") {
			t.Errorf("Run with direction %q = %v", dir, err)
		}
	}
}

func TestMigrationsArePaired(t *testing.T) {
	files, err := fs.Glob(db.MigrationFS, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	ups, downs := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			ups++
		case strings.HasSuffix(f, ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected migration file %s", f)
		}
	}
	if ups == 0 || ups != downs {
		t.Fatalf("expected paired migrations, got %d up and %d down", ups, downs)
	}
}
