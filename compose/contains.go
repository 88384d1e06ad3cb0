package compose

import (
	"github.com/schemaforge/schemaforge-go/canon"
)

// ContainsNeed is one direct or allOf-nested contains/min/maxContains
// constraint on an array node.
type ContainsNeed struct {
	Schema     map[string]any
	MinContains int
	MaxContains int // -1 means unbounded
}

// ContainsBag is Compose's aggregation of every contains need on an
// array-like node (spec.md §4.4 "Contains bag").
type ContainsBag struct {
	CanonPath string
	Needs     []ContainsNeed
	Summary   map[string]any
}

const containsBagCap = 256

// buildContains aggregates direct and allOf-nested contains/minContains/
// maxContains constraints on node and records every evaluation spec.md
// §4.4 names.
func (c *composer) buildContains(node *canon.Node, canonPath string) {
	schema := node.Schema
	var needs []ContainsNeed

	addNeed := func(conj map[string]any) {
		containsSchema, ok := conj["contains"].(map[string]any)
		if !ok {
			return
		}
		min := 1
		if v, ok := toFloat(conj["minContains"]); ok {
			min = int(v)
		}
		max := -1
		if v, ok := toFloat(conj["maxContains"]); ok {
			max = int(v)
		}
		needs = append(needs, ContainsNeed{Schema: containsSchema, MinContains: min, MaxContains: max})
	}

	addNeed(schema)
	if arr, ok := schema["allOf"].([]any); ok {
		for _, b := range arr {
			if bm, ok := b.(map[string]any); ok {
				addNeed(bm)
			}
		}
	}

	if len(needs) == 0 {
		return
	}
	if len(needs) > containsBagCap {
		c.diag.Cap("COMPLEXITY_CAP_CONTAINS")
		c.diag.Warn("COMPLEXITY_CAP_CONTAINS", canonPath, map[string]any{"limit": containsBagCap, "observed": len(needs)})
		needs = needs[:containsBagCap]
	}

	bag := &ContainsBag{CanonPath: canonPath, Needs: needs}

	effectiveMax := -1
	if v, ok := toFloat(schema["maxItems"]); ok {
		effectiveMax = int(v)
	}

	sumMin := 0
	for _, n := range needs {
		if n.MaxContains >= 0 && n.MinContains > n.MaxContains {
			c.diag.Warn("CONTAINS_NEED_MIN_GT_MAX", canonPath, map[string]any{"min": n.MinContains, "max": n.MaxContains})
		}
		if effectiveMax >= 0 && n.MinContains > effectiveMax {
			c.diag.Fatal("CONTAINS_UNSAT_BY_SUM", canonPath, map[string]any{"disjointness": "provable", "min": n.MinContains, "effectiveMaxItems": effectiveMax})
		}
		sumMin += n.MinContains
	}

	if effectiveMax >= 0 && sumMin > effectiveMax {
		if needsAreDisjoint(needs) {
			c.diag.Fatal("CONTAINS_UNSAT_BY_SUM", canonPath, map[string]any{"disjointness": "provable", "sumMin": sumMin, "effectiveMaxItems": effectiveMax})
		} else {
			c.diag.UnsatHint("CONTAINS_UNSAT_BY_SUM", canonPath, false, "disjointnessUnknown", map[string]any{"sumMin": sumMin, "effectiveMaxItems": effectiveMax})
		}
	}

	checkSubsetContradiction(c, needs, canonPath)

	bag.Summary = map[string]any{"sumMin": sumMin, "effectiveMaxItems": effectiveMax, "needCount": len(needs)}
	c.diag.Run("CONTAINS_BAG_COMBINED", canonPath, bag.Summary)
	c.plan.Contains[canonPath] = bag
}

// needsAreDisjoint reports whether every pairwise combination of needs is
// provably disjoint by const/enum/type-set analysis (a conservative
// approximation: true only when both sides name a disjoint, fully-known
// const/enum/type set).
func needsAreDisjoint(needs []ContainsNeed) bool {
	if len(needs) < 2 {
		return true
	}
	for i := 0; i < len(needs); i++ {
		for j := i + 1; j < len(needs); j++ {
			if !pairDisjoint(needs[i].Schema, needs[j].Schema) {
				return false
			}
		}
	}
	return true
}

func pairDisjoint(a, b map[string]any) bool {
	if ac, ok := a["const"]; ok {
		if bc, ok := b["const"]; ok {
			return canonicalValueKey(ac) != canonicalValueKey(bc)
		}
		if be, ok := b["enum"].([]any); ok {
			return !enumContains(be, ac)
		}
	}
	if bc, ok := b["const"]; ok {
		if ae, ok := a["enum"].([]any); ok {
			return !enumContains(ae, bc)
		}
	}
	at, aok := a["type"].([]any)
	bt, bok := b["type"].([]any)
	if aok && bok {
		return !typeSetsOverlap(at, bt)
	}
	return false
}

func canonicalValueKey(v any) string {
	switch x := v.(type) {
	case string:
		return "s:" + x
	default:
		return "?"
	}
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if canonicalValueKey(e) == canonicalValueKey(v) {
			return true
		}
	}
	return false
}

func typeSetsOverlap(a, b []any) bool {
	set := map[string]bool{}
	for _, x := range a {
		if s, ok := x.(string); ok {
			set[s] = true
		}
	}
	for _, x := range b {
		if s, ok := x.(string); ok && set[s] {
			return true
		}
	}
	return false
}

// checkSubsetContradiction records CONTAINS_UNSAT_BY_SUM{subsetContradiction}
// when one need's schema is a strict type-subset of a zero-max blocker need
// (an approximation of spec.md's "antecedent schema ⊆ blocker with max=0"
// rule; full schema-subset checking of arbitrary schema pairs is not
// implemented in this module).
func checkSubsetContradiction(c *composer, needs []ContainsNeed, canonPath string) {
	for i, blocker := range needs {
		if blocker.MaxContains != 0 {
			continue
		}
		for j, other := range needs {
			if i == j {
				continue
			}
			if schemaIsSubsetByType(other.Schema, blocker.Schema) {
				c.diag.Fatal("CONTAINS_UNSAT_BY_SUM", canonPath, map[string]any{"reason": "subsetContradiction"})
				return
			}
		}
	}
}

func schemaIsSubsetByType(sub, sup map[string]any) bool {
	subT, subOk := sub["type"].([]any)
	supT, supOk := sup["type"].([]any)
	if !subOk || !supOk {
		return false
	}
	supSet := map[string]bool{}
	for _, t := range supT {
		if s, ok := t.(string); ok {
			supSet[s] = true
		}
	}
	for _, t := range subT {
		s, ok := t.(string)
		if !ok || !supSet[s] {
			return false
		}
	}
	return len(subT) > 0
}
