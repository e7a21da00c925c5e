package analysis

import "strings"

// SynonymEngine expands a single analyzed term into its configured
// synonyms, used by the query executor's Term/Fuzzy evaluation (spec.md
// §4.6: "If SynonymEngine is enabled, expand t with its synonyms,
// re-normalise, and union").
type SynonymEngine struct {
	table map[string][]string
}

// NewSynonymEngine builds a SynonymEngine from an explicit term->synonyms
// table. Keys and values are lowercased on insert so lookups are
// case-insensitive regardless of analyzer normalization.
func NewSynonymEngine(table map[string][]string) *SynonymEngine {
	e := &SynonymEngine{table: make(map[string][]string, len(table))}
	for term, synonyms := range table {
		lower := make([]string, len(synonyms))
		for i, s := range synonyms {
			lower[i] = strings.ToLower(s)
		}
		e.table[strings.ToLower(term)] = lower
	}
	return e
}

// Expand returns term together with its configured synonyms, deduplicated,
// term first.
func (e *SynonymEngine) Expand(term string) []string {
	if e == nil {
		return []string{term}
	}

	lower := strings.ToLower(term)
	synonyms := e.table[lower]
	if len(synonyms) == 0 {
		return []string{lower}
	}

	seen := map[string]struct{}{lower: {}}
	result := []string{lower}
	for _, s := range synonyms {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}

// DefaultSynonyms is a small general-purpose synonym table covering common
// near-equivalent English terms. Callers providing their own domain
// vocabulary should build a SynonymEngine from their own table instead.
var DefaultSynonyms = map[string][]string{
	"error":    {"err", "failure", "fault"},
	"fast":     {"quick", "rapid", "speedy"},
	"big":      {"large", "huge", "great"},
	"small":    {"tiny", "little", "compact"},
	"start":    {"begin", "launch", "initiate"},
	"stop":     {"halt", "end", "terminate"},
	"delete":   {"remove", "erase"},
	"create":   {"make", "build", "generate"},
	"search":   {"find", "lookup", "query"},
	"document": {"doc", "record", "file"},
}
