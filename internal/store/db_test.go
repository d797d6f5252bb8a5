package store

import (
	"testing"
	"time"

	"github.com/semcore/semmem/internal/kernel"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testKernel builds a minimal valid kernel for store tests.
func testKernel(id string, importance float64, concepts ...string) *kernel.Kernel {
	return &kernel.Kernel{
		ID:         id,
		Essence:    "essence of " + id,
		Concepts:   concepts,
		Type:       kernel.Fact,
		Importance: importance,
		Timestamp:  time.Now(),
	}
}

func TestOpenMemory(t *testing.T) {
	db := testDB(t)

	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
