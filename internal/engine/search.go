package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/semcore/semmem/internal/kernel"
	"github.com/semcore/semmem/internal/store"
)

const defaultSearchLimit = 10

// Query describes an associative search. Text is compressed with the same
// heuristics as stored kernels, so queries and memories meet in one
// concept space; Concepts adds explicit terms on top.
type Query struct {
	Text          string              `json:"text"`
	Concepts      []string            `json:"concepts,omitempty"`
	Types         []kernel.KernelType `json:"types,omitempty"`
	MinImportance float64             `json:"min_importance,omitempty"`
	MaxImportance float64             `json:"max_importance,omitempty"`
	Limit         int                 `json:"limit,omitempty"`
}

// Result is one ranked search hit.
type Result struct {
	Kernel    kernel.Kernel `json:"kernel"`
	Relevance float64       `json:"relevance"`
	Reason    string        `json:"reason"`
}

// Search ranks stored kernels against the query by concept overlap,
// importance, and activation history. Results come back most relevant
// first; ties break toward higher importance. An empty query still ranks
// everything by importance and activation.
func (m *Memory) Search(q Query) ([]Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryConcepts := m.queryConcepts(q)

	candidates, err := m.db.List(store.Filter{
		MinImportance: q.MinImportance,
		MaxImportance: q.MaxImportance,
		Types:         q.Types,
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, k := range candidates {
		score, shared := relevance(queryConcepts, &k)
		results = append(results, Result{
			Kernel:    k,
			Relevance: score,
			Reason:    fmt.Sprintf("%d shared concepts, importance %.2f, %d activations", shared, k.Importance, k.ActivationCount),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Kernel.Importance > results[j].Kernel.Importance
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// queryConcepts merges concepts extracted from the query text with any
// explicitly supplied ones, deduplicated in order.
func (m *Memory) queryConcepts(q Query) []string {
	var merged []string
	seen := make(map[string]bool)

	add := func(c string) {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		merged = append(merged, c)
	}

	if q.Text != "" {
		qk := m.compressor.Compress(q.Text, m.opts.Language, nil)
		for _, c := range qk.Concepts {
			add(c)
		}
	}
	for _, c := range q.Concepts {
		add(c)
	}
	return merged
}

// relevance scores a kernel against query concepts:
//
//	0.6 * overlap/len(query) + 0.3 * importance + 0.1 * activation term
//
// where the activation term is ln(count+1)/5 capped at 1. The result is
// always within [0, 1]. Also returns the shared concept count.
func relevance(queryConcepts []string, k *kernel.Kernel) (float64, int) {
	shared := 0
	if len(queryConcepts) > 0 {
		kset := make(map[string]bool, len(k.Concepts))
		for _, c := range k.Concepts {
			kset[c] = true
		}
		for _, c := range queryConcepts {
			if kset[c] {
				shared++
			}
		}
	}

	overlap := float64(shared) / math.Max(float64(len(queryConcepts)), 1)
	activation := math.Min(math.Log(float64(k.ActivationCount)+1)/5, 1)

	return 0.6*overlap + 0.3*k.Importance + 0.1*activation, shared
}

// Similarity measures how alike two kernels are: 0.7 weighted Jaccard
// overlap of concepts, 0.2 for matching types, 0.1 proximity of
// importance. Symmetric, in [0, 1].
func Similarity(a, b *kernel.Kernel) float64 {
	score := 0.7 * jaccard(a.Concepts, b.Concepts)
	if a.Type == b.Type {
		score += 0.2
	}
	score += 0.1 * (1 - math.Abs(a.Importance-b.Importance))
	return math.Min(score, 1.0)
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, c := range a {
		set[c] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, c := range b {
		if seen[c] {
			continue
		}
		seen[c] = true
		if set[c] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// FindSimilar returns the kernels most similar to k, filtered by
// minSimilarity and capped at limit, most similar first.
func (m *Memory) FindSimilar(k *kernel.Kernel, limit int, minSimilarity float64) ([]Result, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	candidates, err := m.db.List(store.Filter{ExcludeID: k.ID})
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, c := range candidates {
		s := Similarity(k, &c)
		if s < minSimilarity {
			continue
		}
		results = append(results, Result{
			Kernel:    c,
			Relevance: s,
			Reason:    fmt.Sprintf("similarity %.3f", s),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
