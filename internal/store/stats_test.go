package store

import (
	"math"
	"testing"

	"github.com/semcore/semmem/internal/kernel"
)

func TestStatsEmpty(t *testing.T) {
	db := testDB(t)

	s, err := db.Stats(5)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.TotalKernels != 0 || s.Connections != 0 || s.AverageImportance != 0 {
		t.Errorf("empty stats = %+v", s)
	}
}

func TestStats(t *testing.T) {
	db := testDB(t)

	db.Put(testKernel("a", 0.4))
	db.Put(testKernel("b", 0.8))
	insight := testKernel("c", 0.6)
	insight.Type = kernel.Insight
	db.Put(insight)

	db.Connect("a", "b", 0.9, "related")
	db.Get("b", true)
	db.Get("b", true)
	db.Get("a", true)

	s, err := db.Stats(2)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if s.TotalKernels != 3 {
		t.Errorf("total = %d, want 3", s.TotalKernels)
	}
	if s.ByType["fact"] != 2 || s.ByType["insight"] != 1 {
		t.Errorf("by_type = %v", s.ByType)
	}
	if math.Abs(s.AverageImportance-0.6) > 1e-9 {
		t.Errorf("avg importance = %v, want 0.6", s.AverageImportance)
	}
	// One symmetric pair counts once.
	if s.Connections != 1 {
		t.Errorf("connections = %d, want 1", s.Connections)
	}
	if len(s.TopActivated) != 2 {
		t.Fatalf("top = %v, want 2 entries", s.TopActivated)
	}
	if s.TopActivated[0].ID != "b" || s.TopActivated[0].Activations != 2 {
		t.Errorf("top[0] = %+v, want b with 2 activations", s.TopActivated[0])
	}
}
