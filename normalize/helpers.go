package normalize

import (
	"fmt"
	"sort"

	"github.com/schemaforge/schemaforge-go/canonicaljson"
)

// canonicalKey renders v as canonical JSON text for use as a map key when
// comparing arbitrary JSON values for equality (enum/const comparisons).
func canonicalKey(v any) string {
	b, err := canonicaljson.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// asMap returns v as map[string]any if it is one.
func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asSlice returns v as []any if it is one.
func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// asBool returns v as bool if it is one.
func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// cloneMap returns a shallow copy of m.
func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// normalizeType coerces a JSON Schema "type" value (string or array of
// strings) into a sorted []any of strings.
func normalizeType(v any) []any {
	var types []string
	switch x := v.(type) {
	case string:
		types = []string{x}
	case []any:
		for _, e := range x {
			if s, ok := e.(string); ok {
				types = append(types, s)
			}
		}
	}
	sort.Strings(types)
	out := make([]any, len(types))
	for i, s := range types {
		out[i] = s
	}
	return out
}

// normalizeStringSet coerces a JSON array of strings into a sorted,
// deduplicated []any of strings.
func normalizeStringSet(v any) []any {
	set := map[string]struct{}{}
	if arr, ok := v.([]any); ok {
		for _, e := range arr {
			if s, ok := e.(string); ok {
				set[s] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	result := make([]any, len(out))
	for i, s := range out {
		result[i] = s
	}
	return result
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
