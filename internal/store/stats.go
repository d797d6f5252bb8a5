package store

// TopKernel is one entry in the most-activated ranking.
type TopKernel struct {
	ID          string `json:"id"`
	Essence     string `json:"essence"`
	Activations int    `json:"activations"`
}

// Stats is a snapshot of the store's contents. Connections counts
// undirected pairs (each symmetric edge pair counts once).
type Stats struct {
	TotalKernels      int            `json:"total_kernels"`
	ByType            map[string]int `json:"by_type"`
	AverageImportance float64        `json:"average_importance"`
	Connections       int            `json:"total_connections"`
	TopActivated      []TopKernel    `json:"top_activated"`
}

// Stats reports totals, the per-type histogram, average importance, the
// undirected connection count, and the topN kernels by activation count.
func (db *DB) Stats(topN int) (*Stats, error) {
	s := &Stats{ByType: make(map[string]int)}

	if err := db.QueryRow(`SELECT COUNT(*) FROM kernels`).Scan(&s.TotalKernels); err != nil {
		return nil, storageErr("stats", err)
	}

	rows, err := db.Query(`SELECT kernel_type, COUNT(*) FROM kernels GROUP BY kernel_type`)
	if err != nil {
		return nil, storageErr("stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ktype string
		var count int
		if err := rows.Scan(&ktype, &count); err != nil {
			return nil, storageErr("stats", err)
		}
		s.ByType[ktype] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("stats", err)
	}

	if err := db.QueryRow(
		`SELECT COALESCE(AVG(importance), 0) FROM kernels`,
	).Scan(&s.AverageImportance); err != nil {
		return nil, storageErr("stats", err)
	}

	directed, err := db.EdgeCount()
	if err != nil {
		return nil, storageErr("stats", err)
	}
	s.Connections = directed / 2

	if topN <= 0 {
		topN = 5
	}
	topRows, err := db.Query(`
		SELECT id, essence, activation_count
		FROM kernels
		ORDER BY activation_count DESC, importance DESC
		LIMIT ?
	`, topN)
	if err != nil {
		return nil, storageErr("stats", err)
	}
	defer topRows.Close()
	for topRows.Next() {
		var t TopKernel
		if err := topRows.Scan(&t.ID, &t.Essence, &t.Activations); err != nil {
			return nil, storageErr("stats", err)
		}
		s.TopActivated = append(s.TopActivated, t)
	}
	return s, topRows.Err()
}
