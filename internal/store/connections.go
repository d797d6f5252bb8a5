package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/semcore/semmem/internal/kernel"
)

// Connection is one edge from a kernel to a neighbor, with the neighbor
// fully loaded.
type Connection struct {
	Kernel   kernel.Kernel
	Strength float64
	Type     string
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// Connect creates or overwrites the symmetric edge pair between two
// kernels. Both directions carry the same strength and type; there is
// never more than one edge per direction for a pair. Referencing an
// unknown id fails with ErrUnknownKernel and mutates nothing.
func (db *DB) Connect(id1, id2 string, strength float64, connType string) error {
	if id1 == id2 {
		return fmt.Errorf("connect: cannot connect kernel %s to itself", id1)
	}
	if strength < 0 || strength > 1 {
		return fmt.Errorf("connect: strength %.3f outside [0, 1]", strength)
	}
	if connType == "" {
		connType = "related"
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.Begin()
	if err != nil {
		return storageErr("connect", err)
	}

	var present int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM kernels WHERE id IN (?, ?)`, id1, id2,
	).Scan(&present); err != nil {
		tx.Rollback()
		return storageErr("connect", err)
	}
	if present != 2 {
		tx.Rollback()
		return fmt.Errorf("connect %s <-> %s: %w", id1, id2, ErrUnknownKernel)
	}

	now := time.Now().UnixMilli()
	for _, pair := range [][2]string{{id1, id2}, {id2, id1}} {
		if _, err := tx.Exec(`
			INSERT INTO connections (kernel_id, connected_kernel_id, strength, connection_type, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(kernel_id, connected_kernel_id) DO UPDATE SET
				strength = excluded.strength,
				connection_type = excluded.connection_type
		`, pair[0], pair[1], strength, connType, now); err != nil {
			tx.Rollback()
			return storageErr("connect", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("connect", err)
	}
	return nil
}

// Connected returns the neighbors of a kernel with edge strength at or
// above minStrength, strongest first. An unknown id fails with
// ErrUnknownKernel.
func (db *DB) Connected(id string, minStrength float64) ([]Connection, error) {
	ok, err := db.Exists(id)
	if err != nil {
		return nil, storageErr("connected", err)
	}
	if !ok {
		return nil, fmt.Errorf("connected %s: %w", id, ErrUnknownKernel)
	}

	rows, err := db.Query(`
		SELECT k.id, k.essence, k.concepts, k.kernel_type, k.importance, k.timestamp,
			k.activation_count, k.last_accessed, k.tags, k.metadata,
			c.strength, c.connection_type
		FROM connections c
		JOIN kernels k ON c.connected_kernel_id = k.id
		WHERE c.kernel_id = ? AND c.strength >= ?
		ORDER BY c.strength DESC
	`, id, minStrength)
	if err != nil {
		return nil, storageErr("connected", err)
	}
	defer rows.Close()

	var conns []Connection
	for rows.Next() {
		var (
			k            kernel.Kernel
			ktype        string
			ts           int64
			lastAccessed sql.NullInt64
			concepts     string
			tags         sql.NullString
			metadata     sql.NullString
			conn         Connection
		)
		if err := rows.Scan(&k.ID, &k.Essence, &concepts, &ktype, &k.Importance, &ts,
			&k.ActivationCount, &lastAccessed, &tags, &metadata,
			&conn.Strength, &conn.Type); err != nil {
			return nil, storageErr("connected", err)
		}
		if err := hydrateKernel(&k, ktype, ts, lastAccessed, concepts, tags, metadata); err != nil {
			return nil, err
		}
		conn.Kernel = k
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

// connectedIDs returns neighbor ids ordered by edge strength. It runs
// against either the pool or an open transaction.
func (db *DB) connectedIDs(q querier, id string) ([]string, error) {
	rows, err := q.Query(`
		SELECT connected_kernel_id FROM connections
		WHERE kernel_id = ?
		ORDER BY strength DESC, connected_kernel_id
	`, id)
	if err != nil {
		return nil, storageErr("connections", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, storageErr("connections", err)
		}
		ids = append(ids, cid)
	}
	return ids, rows.Err()
}

// ConnectedIDs returns the neighbor ids of a kernel, strongest edge first.
func (db *DB) ConnectedIDs(id string) ([]string, error) {
	return db.connectedIDs(db.DB, id)
}

// EdgeCount returns the number of directed connection rows.
func (db *DB) EdgeCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM connections`).Scan(&n)
	return n, err
}
