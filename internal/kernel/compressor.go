package kernel

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Compressor turns free-form text into kernels using cheap token and
// keyword heuristics, no models or embeddings. It is pure apart from the
// creation timestamp and the generated ID, and never fails: empty or
// garbage input yields an empty-essence kernel that the store boundary
// rejects later.
type Compressor struct{}

// Message is one turn of a conversation handed to CompressConversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Essence construction limits, in runes.
const (
	verbatimEssenceLimit = 100
	sentenceTruncateAt   = 80
	conceptSuffixRoom    = 60
)

// Compress builds a kernel from text. The language selects stop-word and
// indicator lists ("ru" or "en"; anything else falls back to "en").
// Extra context entries are merged into the kernel metadata.
func (Compressor) Compress(text, language string, context map[string]any) *Kernel {
	lang := normalizeLanguage(language)

	concepts := extractConcepts(text, lang)
	ktype := detectType(text, lang)
	importance := scoreImportance(text, concepts, ktype)
	essence := buildEssence(text, concepts)

	essLen := utf8.RuneCountInString(essence)
	origLen := utf8.RuneCountInString(text)
	k := &Kernel{
		ID:         uuid.NewString(),
		Essence:    essence,
		Concepts:   concepts,
		Type:       ktype,
		Importance: importance,
		Timestamp:  time.Now(),
		Metadata: map[string]any{
			"original_length":   origLen,
			"compressed_length": essLen,
			"compression_ratio": float64(origLen) / float64(max(essLen, 1)),
			"language":          lang,
		},
	}
	for key, val := range context {
		k.Metadata[key] = val
	}
	return k
}

// CompressConversation compresses each message into its own kernel,
// tagging metadata with the message position and role.
func (c Compressor) CompressConversation(messages []Message, language string) []*Kernel {
	kernels := make([]*Kernel, 0, len(messages))
	for i, msg := range messages {
		role := msg.Role
		if role == "" {
			role = "unknown"
		}
		kernels = append(kernels, c.Compress(msg.Content, language, map[string]any{
			"message_index":  i,
			"role":           role,
			"total_messages": len(messages),
		}))
	}
	return kernels
}

// extractConcepts tokenizes, case-folds, strips punctuation, and drops
// stop-words, short tokens (≤4 runes), and numeric-only tokens. Order is
// preserved, duplicates keep their first occurrence, and the result is
// capped at MaxConcepts.
func extractConcepts(text, lang string) []string {
	stops := stopWords[lang]
	seen := make(map[string]bool)
	var concepts []string

	for _, word := range strings.Fields(strings.ToLower(text)) {
		clean := stripToAlnum(word)
		if utf8.RuneCountInString(clean) <= 4 {
			continue
		}
		if stops[clean] || numericOnly(clean) || seen[clean] {
			continue
		}
		seen[clean] = true
		concepts = append(concepts, clean)
		if len(concepts) == MaxConcepts {
			break
		}
	}
	return concepts
}

func stripToAlnum(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func numericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// detectType counts indicator keywords per type and picks the highest.
// Ties and an all-zero scoreboard resolve to Fact.
func detectType(text, lang string) KernelType {
	lower := strings.ToLower(text)

	best := Fact
	bestScore := 0
	for _, kt := range classifierOrder {
		score := 0
		for _, kw := range typeKeywords[kt][lang] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = kt
			bestScore = score
		}
	}
	return best
}

// scoreImportance starts at 0.5 and applies the fixed bonuses: +0.2 for
// goal/decision/insight kernels, +0.1 for concept-rich text, +0.2 when an
// urgency keyword appears. The result is clamped to the valid range.
func scoreImportance(text string, concepts []string, ktype KernelType) float64 {
	importance := 0.5

	if ktype == Goal || ktype == Decision || ktype == Insight {
		importance += 0.2
	}
	if len(concepts) >= 7 {
		importance += 0.1
	}

	lower := strings.ToLower(text)
	for _, w := range urgencyWords {
		if strings.Contains(lower, w) {
			importance += 0.2
			break
		}
	}
	return ClampImportance(importance)
}

// buildEssence keeps short text verbatim. Longer text collapses to its
// first sentence, truncated to 80 runes, with the top-3 concepts appended
// in brackets when the sentence is short enough to leave room.
func buildEssence(text string, concepts []string) string {
	if utf8.RuneCountInString(text) <= verbatimEssenceLimit {
		return strings.TrimSpace(text)
	}

	first, _, _ := strings.Cut(text, ".")
	first = strings.TrimSpace(first)
	if runes := []rune(first); len(runes) > sentenceTruncateAt {
		first = string(runes[:sentenceTruncateAt-3]) + "..."
	}

	if utf8.RuneCountInString(first) < conceptSuffixRoom && len(concepts) > 0 {
		top := concepts
		if len(top) > 3 {
			top = top[:3]
		}
		return fmt.Sprintf("%s [%s]", first, strings.Join(top, ", "))
	}
	return first
}
