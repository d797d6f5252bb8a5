package engine

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/semcore/semmem/internal/kernel"
	"github.com/semcore/semmem/internal/store"
)

const (
	autoConnectCandidates = 5
	autoConnectThreshold  = 0.5
	defaultPathDepth      = 5
	defaultClusterSize    = 2
)

// autoConnect links a freshly stored kernel to its closest neighbors.
// Edge strength is the similarity score. Failures are logged and skipped;
// a missing edge is recoverable, a failed store is not.
func (m *Memory) autoConnect(k *kernel.Kernel) {
	similar, err := m.FindSimilar(k, autoConnectCandidates, autoConnectThreshold)
	if err != nil {
		log.Printf("auto-connect %s: %v", k.ID, err)
		return
	}
	for _, s := range similar {
		if err := m.db.Connect(k.ID, s.Kernel.ID, s.Relevance, "similar"); err != nil {
			log.Printf("auto-connect %s -> %s: %v", k.ID, s.Kernel.ID, err)
		}
	}
	if len(similar) > 0 {
		m.cache.clear()
	}
}

// Connect creates a manual symmetric edge between two kernels.
func (m *Memory) Connect(id1, id2 string, strength float64, connType string) error {
	if err := m.db.Connect(id1, id2, strength, connType); err != nil {
		return err
	}
	m.cache.del(id1, id2)
	return nil
}

// Connected returns the neighbors of a kernel with edge strength at or
// above minStrength, strongest first.
func (m *Memory) Connected(id string, minStrength float64) ([]store.Connection, error) {
	return m.db.Connected(id, minStrength)
}

// FindPath runs a breadth-first search over connection edges from one
// kernel to another, up to maxDepth hops. It returns the id chain
// including both endpoints, or nil when no path exists within the depth.
func (m *Memory) FindPath(fromID, toID string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		maxDepth = defaultPathDepth
	}

	for _, id := range []string{fromID, toID} {
		ok, err := m.db.Exists(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("find path %s: %w", id, store.ErrUnknownKernel)
		}
	}

	if fromID == toID {
		return []string{fromID}, nil
	}

	parent := map[string]string{fromID: ""}
	frontier := []string{fromID}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			neighbors, err := m.db.ConnectedIDs(id)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbors {
				if _, visited := parent[n]; visited {
					continue
				}
				parent[n] = id
				if n == toID {
					return rebuildPath(parent, toID), nil
				}
				next = append(next, n)
			}
		}
		frontier = next
	}
	return nil, nil
}

func rebuildPath(parent map[string]string, end string) []string {
	var path []string
	for id := end; id != ""; id = parent[id] {
		path = append(path, id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Cluster is a group of kernels sharing a type and dominant concepts.
type Cluster struct {
	Type     kernel.KernelType `json:"kernel_type"`
	Concepts []string          `json:"concepts"`
	Kernels  []kernel.Kernel   `json:"kernels"`
}

// Clusters groups all kernels by (type, first two concepts) and returns
// groups with at least minSize members, largest first. Concept order is
// extraction order, so the leading concepts carry the grouping; the pair
// is sorted only to keep the key stable. Kernels with no concepts cluster
// by type alone.
func (m *Memory) Clusters(minSize int) ([]Cluster, error) {
	if minSize <= 0 {
		minSize = defaultClusterSize
	}

	all, err := m.db.List(store.Filter{})
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*Cluster)
	var order []string
	for _, k := range all {
		top := topConcepts(k.Concepts, 2)
		key := string(k.Type) + "|" + strings.Join(top, ",")
		g, ok := groups[key]
		if !ok {
			g = &Cluster{Type: k.Type, Concepts: top}
			groups[key] = g
			order = append(order, key)
		}
		g.Kernels = append(g.Kernels, k)
	}

	var clusters []Cluster
	for _, key := range order {
		if g := groups[key]; len(g.Kernels) >= minSize {
			clusters = append(clusters, *g)
		}
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Kernels) > len(clusters[j].Kernels)
	})
	return clusters, nil
}

// topConcepts takes the first n concepts in extraction order, sorted so
// the same pair always yields the same key.
func topConcepts(concepts []string, n int) []string {
	if len(concepts) > n {
		concepts = concepts[:n]
	}
	top := make([]string, len(concepts))
	copy(top, concepts)
	sort.Strings(top)
	return top
}
