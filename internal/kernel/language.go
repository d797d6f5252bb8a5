package kernel

// Language-specific word lists for the compressor. Russian and English are
// the two languages the engine ships with; an unknown language code falls
// back to English.

var stopWords = map[string]map[string]bool{
	"ru": toSet(
		"и", "в", "не", "на", "с", "что", "как", "это", "по", "а", "но",
		"да", "нет", "для", "от", "к", "о", "у", "же", "бы", "так", "вот",
		"был", "была", "было", "были", "есть", "быть", "будет", "может",
	),
	"en": toSet(
		"the", "is", "and", "of", "to", "in", "a", "you", "that", "it",
		"he", "was", "for", "on", "are", "as", "with", "his", "they",
		"be", "at", "one", "have", "this", "from", "or", "had", "by",
	),
}

// typeKeywords drives type classification. Types without indicator lists
// (relationship, preference, context, emotion, reflection) are never
// auto-detected; they are assigned explicitly by callers.
var typeKeywords = map[KernelType]map[string][]string{
	Fact: {
		"ru": {"это", "есть", "является", "составляет", "равно", "содержит"},
		"en": {"is", "are", "contains", "has", "equals", "consists"},
	},
	Insight: {
		"ru": {"понял", "осознал", "заметил", "обнаружил", "вижу", "важно"},
		"en": {"realize", "understand", "notice", "important", "key", "crucial"},
	},
	Decision: {
		"ru": {"решил", "выбрал", "буду", "сделаю", "применю", "использую"},
		"en": {"decide", "choose", "will", "going to", "use", "apply"},
	},
	Pattern: {
		"ru": {"всегда", "обычно", "часто", "предпочитает", "любит", "хочет"},
		"en": {"always", "usually", "often", "prefer", "like", "want"},
	},
	Goal: {
		"ru": {"цель", "задача", "нужно", "необходимо", "создать", "достичь"},
		"en": {"goal", "objective", "need", "must", "create", "achieve"},
	},
}

// classifierOrder fixes tie-breaking: the first type to reach the maximum
// keyword count wins, with Fact as the all-zero default.
var classifierOrder = []KernelType{Fact, Insight, Decision, Pattern, Goal}

// urgencyWords raise importance regardless of the declared language: an
// urgent Russian phrase inside an English message still counts.
var urgencyWords = []string{
	"важно", "критично", "необходимо", "обязательно", "немедленно",
	"critical", "important", "must", "immediately", "essential",
}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func normalizeLanguage(lang string) string {
	if _, ok := stopWords[lang]; ok {
		return lang
	}
	return "en"
}
