package engine

import (
	"github.com/dgraph-io/ristretto"

	"github.com/semcore/semmem/internal/kernel"
)

// CacheStats reports read-cache effectiveness.
type CacheStats struct {
	Enabled bool   `json:"enabled"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// kernelCache fronts non-activating retrievals. Activating reads always
// hit the store, since the counter bump must be durable. A nil
// *kernelCache is valid and does nothing, so callers never branch on
// whether caching is configured.
type kernelCache struct {
	c *ristretto.Cache
}

func newKernelCache(maxEntries int64) (*kernelCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &kernelCache{c: c}, nil
}

func (kc *kernelCache) get(id string) (*kernel.Kernel, bool) {
	if kc == nil {
		return nil, false
	}
	v, ok := kc.c.Get(id)
	if !ok {
		return nil, false
	}
	k := v.(kernel.Kernel)
	out := cloneKernel(&k)
	return &out, true
}

func (kc *kernelCache) set(k *kernel.Kernel) {
	if kc == nil {
		return
	}
	kc.c.Set(k.ID, cloneKernel(k), 1)
}

// cloneKernel copies the kernel with fresh slices and a fresh metadata
// map, so cached entries and cache reads never alias caller-owned memory.
// Metadata values are copied at the top level only.
func cloneKernel(k *kernel.Kernel) kernel.Kernel {
	out := *k
	if k.Concepts != nil {
		out.Concepts = append([]string(nil), k.Concepts...)
	}
	if k.Tags != nil {
		out.Tags = append([]string(nil), k.Tags...)
	}
	if k.Connections != nil {
		out.Connections = append([]string(nil), k.Connections...)
	}
	if k.Metadata != nil {
		out.Metadata = make(map[string]any, len(k.Metadata))
		for key, val := range k.Metadata {
			out.Metadata[key] = val
		}
	}
	return out
}

func (kc *kernelCache) del(ids ...string) {
	if kc == nil {
		return
	}
	for _, id := range ids {
		kc.c.Del(id)
	}
}

func (kc *kernelCache) clear() {
	if kc == nil {
		return
	}
	kc.c.Clear()
}

func (kc *kernelCache) stats() CacheStats {
	if kc == nil {
		return CacheStats{}
	}
	return CacheStats{
		Enabled: true,
		Hits:    kc.c.Metrics.Hits(),
		Misses:  kc.c.Metrics.Misses(),
	}
}
