package db_test

import (
	"path/filepath"
	"testing"

	"artrack/pkg/db"
)

func TestDB(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	defer d.Close()

	for _, table := range []string{"trajectory_slots", "persistent_state"} {
		var n int
		err := d.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("table %s missing after migration", table)
		}
	}
}

func TestDB_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("first Init() failed: %v", err)
	}
	if _, err := d.Exec("INSERT INTO persistent_state (key, value) VALUES ('k', 'v')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.Close()

	d, err = db.Init(path)
	if err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	defer d.Close()

	var v string
	if err := d.QueryRow("SELECT value FROM persistent_state WHERE key='k'").Scan(&v); err != nil || v != "v" {
		t.Errorf("expected persisted value 'v', got %q (%v)", v, err)
	}
}
