package kernel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KernelType classifies the kind of information a kernel carries.
type KernelType string

const (
	Fact         KernelType = "fact"
	Insight      KernelType = "insight"
	Decision     KernelType = "decision"
	Pattern      KernelType = "pattern"
	Goal         KernelType = "goal"
	Relationship KernelType = "relationship"
	Preference   KernelType = "preference"
	Context      KernelType = "context"
	Emotion      KernelType = "emotion"
	Reflection   KernelType = "reflection"
)

var allTypes = []KernelType{
	Fact, Insight, Decision, Pattern, Goal,
	Relationship, Preference, Context, Emotion, Reflection,
}

// Types returns all kernel types in declaration order.
func Types() []KernelType {
	out := make([]KernelType, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether t is a known kernel type.
func (t KernelType) Valid() bool {
	for _, kt := range allTypes {
		if t == kt {
			return true
		}
	}
	return false
}

// ParseType converts a stored string back into a KernelType.
func ParseType(s string) (KernelType, error) {
	t := KernelType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown kernel type %q", s)
	}
	return t, nil
}

// Importance bounds and the concept cap enforced across the engine.
const (
	MinImportance = 0.1
	MaxImportance = 1.0
	MaxConcepts   = 10
)

// Kernel is a compressed semantic record: the gist of an utterance plus
// the bookkeeping the memory engine needs to rank and prune it.
type Kernel struct {
	ID              string         `json:"id"`
	Essence         string         `json:"essence"`
	Concepts        []string       `json:"concepts"`
	Type            KernelType     `json:"kernel_type"`
	Importance      float64        `json:"importance"`
	Tags            []string       `json:"tags,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	ActivationCount int            `json:"activation_count"`
	LastAccessed    *time.Time     `json:"last_accessed,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`

	// Connections is derived from the connection graph. It is populated on
	// retrieval and never written back through Store/Update.
	Connections []string `json:"connections,omitempty"`
}

// New constructs a kernel with a fresh ID. Out-of-range importance is
// rejected, not clamped; callers that want clamping go through the
// Compressor.
func New(essence string, concepts []string, t KernelType, importance float64) (*Kernel, error) {
	k := &Kernel{
		ID:         uuid.NewString(),
		Essence:    essence,
		Concepts:   concepts,
		Type:       t,
		Importance: importance,
		Timestamp:  time.Now(),
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

// ValidationError reports a kernel that violates a store-boundary invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid kernel: %s %s", e.Field, e.Reason)
}

// Validate checks the store-boundary invariants: non-empty essence,
// importance within [0.1, 1.0], a known type, the concept cap, and
// JSON-serializable metadata.
func (k *Kernel) Validate() error {
	if k.Essence == "" {
		return &ValidationError{Field: "essence", Reason: "is empty"}
	}
	if k.Importance < MinImportance || k.Importance > MaxImportance {
		return &ValidationError{
			Field:  "importance",
			Reason: fmt.Sprintf("%.3f outside [%.1f, %.1f]", k.Importance, MinImportance, MaxImportance),
		}
	}
	if !k.Type.Valid() {
		return &ValidationError{Field: "kernel_type", Reason: fmt.Sprintf("%q unknown", string(k.Type))}
	}
	if len(k.Concepts) > MaxConcepts {
		return &ValidationError{
			Field:  "concepts",
			Reason: fmt.Sprintf("%d exceeds cap of %d", len(k.Concepts), MaxConcepts),
		}
	}
	if k.Metadata != nil {
		if _, err := json.Marshal(k.Metadata); err != nil {
			return &ValidationError{Field: "metadata", Reason: "not JSON-serializable"}
		}
	}
	return nil
}

// Activate records a retrieval: bumps the activation counter and stamps
// last_accessed.
func (k *Kernel) Activate() {
	k.ActivationCount++
	now := time.Now()
	k.LastAccessed = &now
}

// ClampImportance forces v into the valid importance range.
func ClampImportance(v float64) float64 {
	if v < MinImportance {
		return MinImportance
	}
	if v > MaxImportance {
		return MaxImportance
	}
	return v
}
