package kernel

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompressShortFact(t *testing.T) {
	var c Compressor
	k := c.Compress("AI with meta-awareness", "en", nil)

	if k.Type != Fact {
		t.Errorf("type = %s, want fact", k.Type)
	}
	if k.Importance != 0.5 {
		t.Errorf("importance = %v, want 0.5", k.Importance)
	}
	if k.Essence != "AI with meta-awareness" {
		t.Errorf("essence = %q, want verbatim text", k.Essence)
	}
	if diff := cmp.Diff([]string{"metaawareness"}, k.Concepts); diff != "" {
		t.Errorf("concepts mismatch (-want +got):\n%s", diff)
	}
}

func TestCompressGoalImportance(t *testing.T) {
	var c Compressor
	k := c.Compress("We must achieve the goal to create a new architecture", "en", nil)

	if k.Type != Goal {
		t.Errorf("type = %s, want goal", k.Type)
	}
	// 0.5 base + 0.2 goal bonus + 0.2 urgency ("must").
	if !near(k.Importance, 0.9) {
		t.Errorf("importance = %v, want 0.9", k.Importance)
	}
}

func TestCompressRussianInsight(t *testing.T) {
	var c Compressor
	k := c.Compress("Я понял эту архитектуру", "ru", nil)

	if k.Type != Insight {
		t.Errorf("type = %s, want insight", k.Type)
	}
	// 0.5 base + 0.2 insight bonus.
	if !near(k.Importance, 0.7) {
		t.Errorf("importance = %v, want 0.7", k.Importance)
	}
	if k.Metadata["language"] != "ru" {
		t.Errorf("language = %v, want ru", k.Metadata["language"])
	}
}

func TestCompressUnknownLanguageFallsBack(t *testing.T) {
	var c Compressor
	k := c.Compress("something", "de", nil)
	if k.Metadata["language"] != "en" {
		t.Errorf("language = %v, want en fallback", k.Metadata["language"])
	}
}

func TestCompressImportanceClamped(t *testing.T) {
	var c Compressor
	// Goal bonus + urgency + concept richness would push past 1.0.
	text := "We must achieve the critical goal to create quickly durable scalable reliable observable portable maintainable systems"
	k := c.Compress(text, "en", nil)

	if !near(k.Importance, MaxImportance) {
		t.Errorf("importance = %v, want clamped to %v", k.Importance, MaxImportance)
	}
}

func TestExtractConcepts(t *testing.T) {
	got := extractConcepts("Counting 12345 tokens tokens requires careful careful handling", "en")
	want := []string{"counting", "tokens", "requires", "careful", "handling"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("concepts mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractConceptsCap(t *testing.T) {
	words := []string{
		"alpine", "birchwood", "cobalt", "drizzle", "ember", "foxglove",
		"granite", "harbor", "indigo", "juniper", "kestrel", "lantern",
	}
	got := extractConcepts(strings.Join(words, " "), "en")
	if len(got) != MaxConcepts {
		t.Errorf("len = %d, want %d", len(got), MaxConcepts)
	}
}

func TestBuildEssenceFirstSentenceWithConcepts(t *testing.T) {
	text := "Database indexing speeds retrieval. " +
		strings.Repeat("Additional elaboration keeps flowing through here. ", 3)
	concepts := extractConcepts(text, "en")

	got := buildEssence(text, concepts)
	want := "Database indexing speeds retrieval [database, indexing, speeds]"
	if got != want {
		t.Errorf("essence = %q, want %q", got, want)
	}
}

func TestBuildEssenceLongSentenceTruncated(t *testing.T) {
	// One long sentence, no periods: gets cut to 80 runes with ellipsis and
	// no concept suffix.
	text := strings.Repeat("wandering ", 11) + "thoughts without any terminal punctuation mark"
	got := buildEssence(text, []string{"wandering", "thoughts"})

	if n := utf8.RuneCountInString(got); n != sentenceTruncateAt {
		t.Errorf("essence length = %d runes, want %d", n, sentenceTruncateAt)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("essence %q should end with ellipsis", got)
	}
	if strings.Contains(got, "[") {
		t.Errorf("essence %q should not carry a concept suffix", got)
	}
}

func TestCompressMetadata(t *testing.T) {
	var c Compressor
	k := c.Compress("AI with meta-awareness", "en", map[string]any{"source": "chat"})

	if k.Metadata["original_length"] != 22 {
		t.Errorf("original_length = %v, want 22", k.Metadata["original_length"])
	}
	if k.Metadata["compressed_length"] != 22 {
		t.Errorf("compressed_length = %v, want 22", k.Metadata["compressed_length"])
	}
	if k.Metadata["compression_ratio"] != 1.0 {
		t.Errorf("compression_ratio = %v, want 1.0", k.Metadata["compression_ratio"])
	}
	if k.Metadata["source"] != "chat" {
		t.Errorf("context entry lost: %v", k.Metadata)
	}
}

func TestCompressDeterministicApartFromIdentity(t *testing.T) {
	var c Compressor
	a := c.Compress("Consistency matters for caching layers", "en", nil)
	b := c.Compress("Consistency matters for caching layers", "en", nil)

	if a.ID == b.ID {
		t.Error("ids should be unique per call")
	}
	if a.Essence != b.Essence || a.Type != b.Type || a.Importance != b.Importance {
		t.Error("semantic fields should be deterministic")
	}
	if diff := cmp.Diff(a.Concepts, b.Concepts); diff != "" {
		t.Errorf("concepts differ:\n%s", diff)
	}
}

func TestCompressConversation(t *testing.T) {
	var c Compressor
	kernels := c.CompressConversation([]Message{
		{Role: "user", Content: "We must achieve the goal to create a new architecture"},
		{Role: "", Content: "AI with meta-awareness"},
	}, "en")

	if len(kernels) != 2 {
		t.Fatalf("len = %d, want 2", len(kernels))
	}
	if kernels[0].Metadata["role"] != "user" || kernels[0].Metadata["message_index"] != 0 {
		t.Errorf("first kernel metadata = %v", kernels[0].Metadata)
	}
	if kernels[1].Metadata["role"] != "unknown" {
		t.Errorf("empty role should map to unknown, got %v", kernels[1].Metadata["role"])
	}
	if kernels[0].Metadata["total_messages"] != 2 {
		t.Errorf("total_messages = %v, want 2", kernels[0].Metadata["total_messages"])
	}
}
