package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/semcore/semmem/internal/kernel"
)

const kernelColumns = `id, essence, concepts, kernel_type, importance, timestamp,
	activation_count, last_accessed, tags, metadata`

// Put upserts a kernel. Storing the same id twice is idempotent; the row
// is updated in place so existing connection edges survive. Validation
// errors surface as kernel.ValidationError, I/O failures as StorageError.
func (db *DB) Put(k *kernel.Kernel) error {
	if err := k.Validate(); err != nil {
		return err
	}
	if k.Timestamp.IsZero() {
		k.Timestamp = time.Now()
	}

	concepts, err := json.Marshal(k.Concepts)
	if err != nil {
		return storageErr("put", fmt.Errorf("marshal concepts: %w", err))
	}
	tags, err := json.Marshal(k.Tags)
	if err != nil {
		return storageErr("put", fmt.Errorf("marshal tags: %w", err))
	}
	metadata, err := json.Marshal(k.Metadata)
	if err != nil {
		return storageErr("put", fmt.Errorf("marshal metadata: %w", err))
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.Begin()
	if err != nil {
		return storageErr("put", err)
	}

	_, err = tx.Exec(`
		INSERT INTO kernels (id, essence, concepts, kernel_type, importance, timestamp,
			activation_count, last_accessed, tags, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			essence = excluded.essence,
			concepts = excluded.concepts,
			kernel_type = excluded.kernel_type,
			importance = excluded.importance,
			timestamp = excluded.timestamp,
			activation_count = excluded.activation_count,
			last_accessed = excluded.last_accessed,
			tags = excluded.tags,
			metadata = excluded.metadata
	`, k.ID, k.Essence, string(concepts), string(k.Type), k.Importance, k.Timestamp.UnixMilli(),
		k.ActivationCount, timeToMillis(k.LastAccessed), string(tags), string(metadata))
	if err != nil {
		tx.Rollback()
		return storageErr("put", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("put", err)
	}
	return nil
}

// Get returns a kernel by id, or (nil, nil) when it does not exist.
//
// With activate set, the activation counter increment and last_accessed
// stamp happen as one read-modify-write inside a single transaction, so
// concurrent retrievals never lose an update.
func (db *DB) Get(id string, activate bool) (*kernel.Kernel, error) {
	if !activate {
		row := db.QueryRow(`SELECT `+kernelColumns+` FROM kernels WHERE id = ?`, id)
		k, err := scanKernel(row)
		if err != nil || k == nil {
			return k, err
		}
		k.Connections, err = db.connectedIDs(db.DB, id)
		return k, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.Begin()
	if err != nil {
		return nil, storageErr("get", err)
	}

	now := time.Now()
	res, err := tx.Exec(`
		UPDATE kernels
		SET activation_count = activation_count + 1, last_accessed = ?
		WHERE id = ?
	`, now.UnixMilli(), id)
	if err != nil {
		tx.Rollback()
		return nil, storageErr("get", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return nil, nil
	}

	row := tx.QueryRow(`SELECT `+kernelColumns+` FROM kernels WHERE id = ?`, id)
	k, err := scanKernel(row)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	k.Connections, err = db.connectedIDs(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("get", err)
	}
	return k, nil
}

// Update rewrites an existing kernel's fields. Returns false when the id
// is not present; nothing is created in that case.
func (db *DB) Update(k *kernel.Kernel) (bool, error) {
	if err := k.Validate(); err != nil {
		return false, err
	}

	concepts, err := json.Marshal(k.Concepts)
	if err != nil {
		return false, storageErr("update", fmt.Errorf("marshal concepts: %w", err))
	}
	tags, err := json.Marshal(k.Tags)
	if err != nil {
		return false, storageErr("update", fmt.Errorf("marshal tags: %w", err))
	}
	metadata, err := json.Marshal(k.Metadata)
	if err != nil {
		return false, storageErr("update", fmt.Errorf("marshal metadata: %w", err))
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.Exec(`
		UPDATE kernels SET
			essence = ?, concepts = ?, kernel_type = ?, importance = ?,
			activation_count = ?, last_accessed = ?, tags = ?, metadata = ?
		WHERE id = ?
	`, k.Essence, string(concepts), string(k.Type), k.Importance,
		k.ActivationCount, timeToMillis(k.LastAccessed), string(tags), string(metadata), k.ID)
	if err != nil {
		return false, storageErr("update", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete removes a kernel and every connection row referencing it, in
// either direction, within one transaction. Returns false for a missing id.
func (db *DB) Delete(id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.Begin()
	if err != nil {
		return false, storageErr("delete", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM connections WHERE kernel_id = ? OR connected_kernel_id = ?`, id, id,
	); err != nil {
		tx.Rollback()
		return false, storageErr("delete", err)
	}

	res, err := tx.Exec(`DELETE FROM kernels WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return false, storageErr("delete", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return false, storageErr("delete", err)
	}
	return n > 0, nil
}

// Filter narrows List results. Zero values mean "no constraint" except
// MinImportance, which is applied as-is (0 admits everything anyway).
type Filter struct {
	MinImportance float64
	MaxImportance float64 // <= 0 means unbounded
	Types         []kernel.KernelType
	Since         time.Time
	Until         time.Time
	ExcludeID     string
	Limit         int
}

// List returns kernels matching the filter, ordered by importance then
// recency. Connections are not loaded; use Get for the full record.
func (db *DB) List(f Filter) ([]kernel.Kernel, error) {
	var (
		where []string
		args  []any
	)

	where = append(where, "importance >= ?")
	args = append(args, f.MinImportance)

	if f.MaxImportance > 0 {
		where = append(where, "importance <= ?")
		args = append(args, f.MaxImportance)
	}
	if len(f.Types) > 0 {
		placeholders := strings.TrimRight(strings.Repeat("?,", len(f.Types)), ",")
		where = append(where, "kernel_type IN ("+placeholders+")")
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since.UnixMilli())
	}
	if !f.Until.IsZero() {
		where = append(where, "timestamp < ?")
		args = append(args, f.Until.UnixMilli())
	}
	if f.ExcludeID != "" {
		where = append(where, "id != ?")
		args = append(args, f.ExcludeID)
	}

	query := `SELECT ` + kernelColumns + ` FROM kernels WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY importance DESC, timestamp DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()

	return scanKernels(rows)
}

// Count returns the total number of stored kernels.
func (db *DB) Count() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM kernels`).Scan(&n)
	return n, err
}

// Exists reports whether a kernel id is present.
func (db *DB) Exists(id string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM kernels WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// Forget deletes every kernel with importance below threshold and a
// creation timestamp before cutoff, plus all connection rows referencing
// any deleted kernel, in one transaction. A concurrent reader sees either
// the full old state or the full new state, never a dangling edge.
func (db *DB) Forget(threshold float64, cutoff time.Time) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.Begin()
	if err != nil {
		return 0, storageErr("forget", err)
	}

	res, err := tx.Exec(`
		DELETE FROM kernels WHERE importance < ? AND timestamp < ?
	`, threshold, cutoff.UnixMilli())
	if err != nil {
		tx.Rollback()
		return 0, storageErr("forget", err)
	}
	deleted, _ := res.RowsAffected()

	if _, err := tx.Exec(`
		DELETE FROM connections
		WHERE kernel_id NOT IN (SELECT id FROM kernels)
		   OR connected_kernel_id NOT IN (SELECT id FROM kernels)
	`); err != nil {
		tx.Rollback()
		return 0, storageErr("forget", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("forget", err)
	}
	return int(deleted), nil
}

func timeToMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKernel(row rowScanner) (*kernel.Kernel, error) {
	var (
		k            kernel.Kernel
		ktype        string
		ts           int64
		lastAccessed sql.NullInt64
		concepts     string
		tags         sql.NullString
		metadata     sql.NullString
	)
	err := row.Scan(&k.ID, &k.Essence, &concepts, &ktype, &k.Importance, &ts,
		&k.ActivationCount, &lastAccessed, &tags, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("scan", err)
	}

	if err := hydrateKernel(&k, ktype, ts, lastAccessed, concepts, tags, metadata); err != nil {
		return nil, err
	}
	return &k, nil
}

// hydrateKernel decodes the serialized columns into the kernel struct.
func hydrateKernel(k *kernel.Kernel, ktype string, ts int64, lastAccessed sql.NullInt64,
	concepts string, tags, metadata sql.NullString) error {

	k.Type = kernel.KernelType(ktype)
	k.Timestamp = time.UnixMilli(ts)
	if lastAccessed.Valid {
		t := time.UnixMilli(lastAccessed.Int64)
		k.LastAccessed = &t
	}
	if err := json.Unmarshal([]byte(concepts), &k.Concepts); err != nil {
		return storageErr("scan", fmt.Errorf("unmarshal concepts: %w", err))
	}
	if tags.Valid && tags.String != "" && tags.String != "null" {
		if err := json.Unmarshal([]byte(tags.String), &k.Tags); err != nil {
			return storageErr("scan", fmt.Errorf("unmarshal tags: %w", err))
		}
	}
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := json.Unmarshal([]byte(metadata.String), &k.Metadata); err != nil {
			return storageErr("scan", fmt.Errorf("unmarshal metadata: %w", err))
		}
	}
	return nil
}

func scanKernels(rows *sql.Rows) ([]kernel.Kernel, error) {
	var kernels []kernel.Kernel
	for rows.Next() {
		k, err := scanKernel(rows)
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, *k)
	}
	return kernels, rows.Err()
}
