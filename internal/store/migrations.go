package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "kernels: compressed semantic records",
		SQL: `
CREATE TABLE kernels (
    id               TEXT PRIMARY KEY,
    essence          TEXT NOT NULL,
    concepts         TEXT NOT NULL,
    kernel_type      TEXT NOT NULL,
    importance       REAL NOT NULL CHECK (importance >= 0.1 AND importance <= 1.0),
    timestamp        INTEGER NOT NULL,
    activation_count INTEGER NOT NULL DEFAULT 0,
    last_accessed    INTEGER,
    tags             TEXT,
    metadata         TEXT
);

CREATE INDEX idx_kernels_importance ON kernels(importance DESC);
CREATE INDEX idx_kernels_timestamp  ON kernels(timestamp DESC);
CREATE INDEX idx_kernels_type       ON kernels(kernel_type);
`,
	},
	{
		Version:     2,
		Description: "connections: symmetric weighted edges between kernels",
		SQL: `
CREATE TABLE connections (
    kernel_id           TEXT NOT NULL,
    connected_kernel_id TEXT NOT NULL,
    strength            REAL NOT NULL DEFAULT 1.0,
    connection_type     TEXT NOT NULL DEFAULT 'related',
    created_at          INTEGER NOT NULL,

    PRIMARY KEY (kernel_id, connected_kernel_id),
    FOREIGN KEY (kernel_id) REFERENCES kernels(id) ON DELETE CASCADE,
    FOREIGN KEY (connected_kernel_id) REFERENCES kernels(id) ON DELETE CASCADE
);

CREATE INDEX idx_connections_strength ON connections(kernel_id, strength DESC);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
