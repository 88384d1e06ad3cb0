package generate

import (
	"strconv"

	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/compose"
)

// generateArray implements spec.md §4.5's array recipe: prefixItems, then
// contains-bag witnesses, then items-schema filler up to minItems, with
// uniqueItems dedup by canonical JSON.
func generateArray(node *canon.Node, plan *compose.Plan, ctx *Context, canonPath string) ([]any, *Failure) {
	var out []any
	seen := map[string]bool{}
	uniqueItems, _ := node.Schema["uniqueItems"].(bool)

	add := func(v any) {
		if uniqueItems {
			key := canonicalValueKey(v)
			if seen[key] {
				return
			}
			seen[key] = true
		}
		out = append(out, v)
	}

	for i, child := range node.Children {
		v, failure := generateNode(child, plan, ctx, canonPath+"/prefixItems/"+strconv.Itoa(i))
		if failure != nil {
			return nil, failure
		}
		add(v)
	}

	if bag, ok := plan.Contains[canonPath]; ok {
		for _, need := range bag.Needs {
			have := countMatchingContains(out, need.Schema)
			for have < need.MinContains {
				witness, failure := generateFromSchema(need.Schema, ctx, canonPath+"/contains")
				if failure != nil {
					return nil, failure
				}
				before := len(out)
				add(witness)
				if len(out) == before {
					// uniqueItems rejected the witness as a duplicate; the
					// domain is exhausted for this need, leave the residual
					// for the downstream repair collaborator rather than
					// loop forever.
					break
				}
				have++
			}
		}
	}

	minItems := 0
	if v, ok := toFloat(node.Schema["minItems"]); ok {
		minItems = int(v)
	}
	maxItems := -1
	if v, ok := toFloat(node.Schema["maxItems"]); ok {
		maxItems = int(v)
	}

	for len(out) < minItems {
		filler := stableFiller(node.ItemsSchema)
		before := len(out)
		add(filler)
		if len(out) == before {
			break // uniqueItems domain exhausted on a constant filler
		}
	}

	if maxItems >= 0 && len(out) > maxItems {
		out = out[:maxItems]
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// countMatchingContains approximates "how many existing elements already
// satisfy need" by const/enum/type matching (the same conservative
// analysis compose/contains.go uses for disjointness, not full validation).
func countMatchingContains(items []any, need map[string]any) int {
	count := 0
	for _, item := range items {
		if elementSatisfies(item, need) {
			count++
		}
	}
	return count
}

func elementSatisfies(item any, schema map[string]any) bool {
	if c, ok := schema["const"]; ok {
		return canonicalValueKey(item) == canonicalValueKey(c)
	}
	if types, ok := schema["type"].([]any); ok && len(types) > 0 {
		return valueMatchesAnyType(item, types)
	}
	return true
}

func valueMatchesAnyType(v any, types []any) bool {
	for _, t := range types {
		s, _ := t.(string)
		switch s {
		case "string":
			if _, ok := v.(string); ok {
				return true
			}
		case "number", "integer":
			if _, ok := v.(float64); ok {
				return true
			}
			if _, ok := v.(int64); ok {
				return true
			}
		case "boolean":
			if _, ok := v.(bool); ok {
				return true
			}
		case "object":
			if _, ok := v.(map[string]any); ok {
				return true
			}
		case "array":
			if _, ok := v.([]any); ok {
				return true
			}
		case "null":
			if v == nil {
				return true
			}
		}
	}
	return false
}

// stableFiller returns the earliest stable filler value for an items
// schema (spec.md §4.5): false/0/""/{}/[] keyed by its primary type, or ""
// when itemsSchema is nil (closed array with no declared element type).
func stableFiller(itemsSchema *canon.Node) any {
	if itemsSchema == nil {
		return ""
	}
	switch itemsSchema.Kind {
	case canon.Object:
		return map[string]any{}
	case canon.Array:
		return []any{}
	}
	types := typeSet(itemsSchema.Schema)
	switch primaryType(types) {
	case "boolean":
		return false
	case "number", "integer":
		return 0
	case "object":
		return map[string]any{}
	case "array":
		return []any{}
	case "null":
		return nil
	default:
		return ""
	}
}
