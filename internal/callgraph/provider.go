package callgraph

import (
	"strings"
)

// CallContext is the information handed to an inference provider for one
// unresolved call site.
type CallContext struct {
	Caller string // qualified name of the enclosing function
	Argc   int
}

// EffectInferenceProvider maps an unresolved callee to the effect tags its
// invocation directly implies. Implementations must be pure lookups: same
// input, same answer, no IO.
type EffectInferenceProvider interface {
	InferEffects(callee string, ctx CallContext) []string
}

// Canonical capability tags recognized by the default provider. The tag
// universe itself is open; these are only the ones the heuristics produce.
const (
	TagDatabase   = "Database"
	TagNetwork    = "Network"
	TagLogging    = "Logging"
	TagFileSystem = "FileSystem"
	TagMemory     = "Memory"
	TagIO         = "IO"
)

// HeuristicProvider is the default, deliberately conservative inference seam:
// a qualifier naming a canonical capability maps directly ("Database.Write"),
// otherwise the lowercased callee is scanned for tell-tale substrings. Swap
// it for symbol-table-based inference via Options.Provider.
type HeuristicProvider struct{}

var qualifierTags = map[string]string{
	"Database":   TagDatabase,
	"Network":    TagNetwork,
	"Logging":    TagLogging,
	"FileSystem": TagFileSystem,
	"Memory":     TagMemory,
	"IO":         TagIO,
}

// substringTags is scanned in a fixed order so inference stays deterministic.
var substringTags = []struct {
	needle string
	tag    string
}{
	{"database", TagDatabase},
	{"sql", TagDatabase},
	{"query", TagDatabase},
	{"http", TagNetwork},
	{"fetch", TagNetwork},
	{"network", TagNetwork},
	{"socket", TagNetwork},
	{"log", TagLogging},
	{"file", TagFileSystem},
	{"path", TagFileSystem},
	{"alloc", TagMemory},
	{"memory", TagMemory},
	{"read", TagIO},
	{"write", TagIO},
	{"print", TagIO},
}

func (HeuristicProvider) InferEffects(callee string, _ CallContext) []string {
	if qualifier, _, ok := strings.Cut(callee, "."); ok {
		if tag, known := qualifierTags[qualifier]; known {
			return []string{tag}
		}
	}

	lower := strings.ToLower(callee)
	var out []string
	seen := make(map[string]bool, 2)
	for _, st := range substringTags {
		if seen[st.tag] {
			continue
		}
		if strings.Contains(lower, st.needle) {
			seen[st.tag] = true
			out = append(out, st.tag)
		}
	}
	return out
}

// NopProvider infers nothing; useful in tests that exercise propagation only.
type NopProvider struct{}

func (NopProvider) InferEffects(string, CallContext) []string { return nil }
