package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/semcore/semmem/internal/kernel"
	"github.com/semcore/semmem/internal/store"
)

// AutoConnectMode controls when the similarity scan runs after a store.
type AutoConnectMode string

const (
	// AutoConnectSync runs the O(N) scan before Store returns.
	AutoConnectSync AutoConnectMode = "sync"
	// AutoConnectAsync runs the scan in a background goroutine. The stored
	// kernel is immediately retrievable and searchable; its edges appear
	// eventually.
	AutoConnectAsync AutoConnectMode = "async"
	// AutoConnectOff disables automatic edges entirely.
	AutoConnectOff AutoConnectMode = "off"
)

// Options tunes a Memory instance. The zero value gets sensible defaults
// from New.
type Options struct {
	Language          string          // compressor language, default "en"
	AutoConnect       AutoConnectMode // default sync
	CacheEntries      int64           // read-cache capacity; 0 disables
	RetentionMaxAge   int             // days, for the background timer
	RetentionMinScore float64         // importance threshold for the timer
	RetentionInterval time.Duration   // default 24h
}

// Memory is the semantic memory facade: compression, persistence,
// associative search, the connection graph, and retention compose behind
// this one type. Collaborators hold a *Memory and nothing else.
type Memory struct {
	db         *store.DB
	compressor kernel.Compressor
	opts       Options
	cache      *kernelCache
	stopCh     chan struct{}
}

// New builds a Memory over an open store. The caller owns the store's
// lifecycle; Stop only halts background work.
func New(db *store.DB, opts Options) (*Memory, error) {
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.AutoConnect == "" {
		opts.AutoConnect = AutoConnectSync
	}
	if opts.RetentionMaxAge <= 0 {
		opts.RetentionMaxAge = 30
	}
	if opts.RetentionMinScore <= 0 {
		opts.RetentionMinScore = 0.3
	}
	if opts.RetentionInterval <= 0 {
		opts.RetentionInterval = 24 * time.Hour
	}

	m := &Memory{
		db:     db,
		opts:   opts,
		stopCh: make(chan struct{}),
	}
	if opts.CacheEntries > 0 {
		cache, err := newKernelCache(opts.CacheEntries)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		m.cache = cache
	}
	return m, nil
}

// Stop shuts down background goroutines (retention timer).
func (m *Memory) Stop() {
	close(m.stopCh)
}

// Compress turns text into a kernel without storing it.
func (m *Memory) Compress(text, language string, context map[string]any) *kernel.Kernel {
	if language == "" {
		language = m.opts.Language
	}
	return m.compressor.Compress(text, language, context)
}

// CompressConversation compresses a whole conversation into kernels, one
// per message.
func (m *Memory) CompressConversation(messages []kernel.Message, language string) []*kernel.Kernel {
	if language == "" {
		language = m.opts.Language
	}
	return m.compressor.CompressConversation(messages, language)
}

// Remember is the compress-then-store convenience used by collaborators
// that just want text persisted.
func (m *Memory) Remember(text, language string, context map[string]any) (*kernel.Kernel, error) {
	k := m.Compress(text, language, context)
	if err := m.Store(k); err != nil {
		return nil, err
	}
	return k, nil
}

// Store upserts a kernel and, per the configured mode, connects it to its
// most similar neighbors. Validation failures surface as
// kernel.ValidationError before anything is written.
func (m *Memory) Store(k *kernel.Kernel) error {
	if err := m.db.Put(k); err != nil {
		return err
	}
	m.cache.del(k.ID)

	switch m.opts.AutoConnect {
	case AutoConnectSync:
		m.autoConnect(k)
	case AutoConnectAsync:
		go m.autoConnect(k)
	}
	return nil
}

// StoreBatch stores kernels in order and returns the ids stored so far
// when one fails.
func (m *Memory) StoreBatch(kernels []*kernel.Kernel) ([]string, error) {
	ids := make([]string, 0, len(kernels))
	for _, k := range kernels {
		if err := m.Store(k); err != nil {
			return ids, err
		}
		ids = append(ids, k.ID)
	}
	return ids, nil
}

// Retrieve returns a kernel by id, or (nil, nil) when absent. With
// activate set the activation counter and last_accessed are updated
// atomically; without it the read may be served from the cache.
func (m *Memory) Retrieve(id string, activate bool) (*kernel.Kernel, error) {
	if !activate {
		if k, ok := m.cache.get(id); ok {
			return k, nil
		}
		k, err := m.db.Get(id, false)
		if err != nil || k == nil {
			return k, err
		}
		m.cache.set(k)
		return k, nil
	}

	k, err := m.db.Get(id, true)
	if err != nil || k == nil {
		return k, err
	}
	m.cache.set(k)
	return k, nil
}

// Update rewrites an existing kernel. Returns false when the id is absent.
func (m *Memory) Update(k *kernel.Kernel) (bool, error) {
	ok, err := m.db.Update(k)
	if ok {
		m.cache.del(k.ID)
	}
	return ok, err
}

// Delete removes a kernel and all its edges. Returns false when absent.
func (m *Memory) Delete(id string) (bool, error) {
	ok, err := m.db.Delete(id)
	if ok {
		// Edges were removed in both directions; neighbors' derived
		// connection lists are stale in cache.
		m.cache.clear()
	}
	return ok, err
}

// Statistics bundles the store snapshot with cache counters.
type Statistics struct {
	store.Stats
	Cache CacheStats `json:"cache"`
}

// Stats reports totals, type histogram, average importance, undirected
// connection count, top activated kernels, and cache hit rates.
func (m *Memory) Stats() (*Statistics, error) {
	s, err := m.db.Stats(5)
	if err != nil {
		return nil, err
	}
	return &Statistics{Stats: *s, Cache: m.cache.stats()}, nil
}

// StartRetentionTimer prunes old low-importance kernels now and then on
// every interval tick until Stop.
func (m *Memory) StartRetentionTimer() {
	run := func() {
		n, err := m.Forget(m.opts.RetentionMaxAge, m.opts.RetentionMinScore)
		if err != nil {
			log.Printf("retention error: %v", err)
		} else if n > 0 {
			log.Printf("retention: forgot %d kernels", n)
		}
	}
	run()

	go func() {
		ticker := time.NewTicker(m.opts.RetentionInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				run()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Forget deletes every kernel older than maxAgeDays with importance below
// threshold, together with all edges referencing it. Returns the number
// of kernels removed.
func (m *Memory) Forget(maxAgeDays int, threshold float64) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	n, err := m.db.Forget(threshold, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.cache.clear()
	}
	return n, nil
}
