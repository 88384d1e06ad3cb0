package compose

import (
	"sort"
	"strings"

	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/regexanalyze"
)

// PatternSourceKind records where an anchored-safe patternProperties entry
// came from, for coverage diagnostics.
type PatternSourceKind string

const (
	PatternFromOwner         PatternSourceKind = "owner"
	PatternFromAllOf         PatternSourceKind = "allOf"
	PatternFromPropertyNames PatternSourceKind = "propertyNamesRewrite"
)

// PatternEntry is one anchored-safe patternProperties conjunct.
type PatternEntry struct {
	Pattern  string
	Literals []string
	Source   PatternSourceKind
}

// CoverageIndex is Compose's analysis of an additionalProperties:false
// object node's name coverage (spec.md §4.4 "Coverage index").
type CoverageIndex struct {
	CanonPath string

	// Has is the set of names provably covered (intersection across every
	// conjunct's named properties). propertyNames is not consulted when
	// building it.
	Has []string

	// Patterns lists every anchored-safe patternProperties conjunct found.
	Patterns []PatternEntry
	// HasUnsafePattern is true when any patternProperties conjunct isn't
	// anchored-safe (coverage.Enumerate is then unavailable).
	HasUnsafePattern bool

	// Enumerable is true when Enumerate() reflects a complete, finite name
	// domain (spec.md's three conditions in §4.4).
	Enumerable bool
	// enumerated holds the finite domain when Enumerable (nil otherwise).
	enumerated []string

	PresencePressure bool
}

// Enumerate returns the finite covered-name domain and true, or (nil,
// false) when the index isn't enumerable.
func (c *CoverageIndex) Enumerate() ([]string, bool) {
	if !c.Enumerable {
		return nil, false
	}
	return append([]string(nil), c.enumerated...), true
}

// buildCoverage computes the CoverageIndex for an additionalProperties:false
// object node and records it on c.plan, along with every early-unsat check
// spec.md §4.4 names.
func (c *composer) buildCoverage(node *canon.Node, canonPath string) error {
	apFalse := isAdditionalPropertiesFalse(node.Schema)
	if !apFalse {
		return nil
	}

	idx := &CoverageIndex{CanonPath: canonPath}

	// Collect conjuncts: the owner node plus every allOf residual branch
	// (allOf proper has already been merged by Normalize into the node's
	// own keyword set; residual conjuncts remain as a synthetic "allOf").
	conjuncts := []map[string]any{node.Schema}
	if arr, ok := node.Schema["allOf"].([]any); ok {
		for _, b := range arr {
			if bm, ok := b.(map[string]any); ok {
				conjuncts = append(conjuncts, bm)
			}
		}
	}

	namedSets := make([]map[string]bool, 0, len(conjuncts))
	for _, conj := range conjuncts {
		named := map[string]bool{}
		if keys, ok := conj["properties"].([]any); ok {
			for _, k := range keys {
				if s, ok := k.(string); ok {
					named[s] = true
				}
			}
		} else if node.Kind == canon.Object && conj == node.Schema {
			for _, k := range node.Keys {
				named[k] = true
			}
		}
		namedSets = append(namedSets, named)

		if pp, ok := conj["patternProperties"].(map[string]any); ok {
			source := PatternFromOwner
			if conj != node.Schema {
				source = PatternFromAllOf
			}
			for pat := range pp {
				cl := regexanalyze.Classify(pat)
				if cl.Kind == regexanalyze.AnchoredSafe && len(cl.Literals) > 0 {
					idx.Patterns = append(idx.Patterns, PatternEntry{Pattern: pat, Literals: cl.Literals, Source: source})
				} else {
					idx.HasUnsafePattern = true
				}
			}
		}
	}

	// Track whether the patternProperties rewrite synthesized by Normalize's
	// propertyNames enum-form rewrite is present at this path, to source-tag
	// its entry distinctly and to gate the enumerate-despite-pnames rule.
	pnamesRewriteApplied := false
	for _, note := range c.tree.Notes {
		if note.CanonPath == canonPath && note.Code == "PNAMES_REWRITE_APPLIED" {
			pnamesRewriteApplied = true
			for i := range idx.Patterns {
				if idx.Patterns[i].Source == PatternFromOwner {
					idx.Patterns[i].Source = PatternFromPropertyNames
				}
			}
		}
	}

	idx.Has = intersectNamedSets(namedSets)

	idx.Enumerable = !idx.HasUnsafePattern && onlyLiteralPatterns(idx.Patterns)
	if idx.Enumerable {
		domain := map[string]bool{}
		for _, n := range idx.Has {
			domain[n] = true
		}
		for _, p := range idx.Patterns {
			for _, lit := range p.Literals {
				domain[lit] = true
			}
		}
		if len(domain) == 0 && !pnamesRewriteApplied {
			// finiteness backed by nothing but an (absent) propertyNames
			// rewrite is not enumerable per spec.md's condition (c).
			idx.Enumerable = len(idx.Has) > 0 || len(idx.Patterns) > 0
		}
		names := make([]string, 0, len(domain))
		for n := range domain {
			names = append(names, n)
		}
		sort.Strings(names)
		if len(names) > enumCap {
			c.diag.Cap("COMPLEXITY_CAP_ENUM")
			c.diag.Warn("COMPLEXITY_CAP_ENUM", canonPath, map[string]any{"limit": enumCap, "observed": len(names)})
			names = names[:enumCap]
		}
		idx.enumerated = names
	}

	idx.PresencePressure = computePresencePressure(node.Schema)

	if idx.PresencePressure && len(idx.Has) == 0 {
		c.evaluatePresencePressureUnsat(idx, canonPath)
	}
	c.checkEarlyUnsatRules(node, idx, canonPath)

	c.plan.Coverage[canonPath] = idx
	return nil
}

// enumCap bounds the size of a synthesized enumerate() domain.
const enumCap = 4096

func isAdditionalPropertiesFalse(schema map[string]any) bool {
	b, ok := schema["additionalProperties"].(bool)
	return ok && !b
}

func intersectNamedSets(sets []map[string]bool) []string {
	if len(sets) == 0 {
		return nil
	}
	inter := map[string]bool{}
	for n := range sets[0] {
		inter[n] = true
	}
	for _, s := range sets[1:] {
		for n := range inter {
			if !s[n] {
				delete(inter, n)
			}
		}
	}
	out := make([]string, 0, len(inter))
	for n := range inter {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func onlyLiteralPatterns(entries []PatternEntry) bool {
	for _, e := range entries {
		if len(e.Literals) == 0 {
			return false
		}
	}
	return true
}

func computePresencePressure(schema map[string]any) bool {
	if mp, ok := toFloat(schema["minProperties"]); ok && mp > 0 {
		return true
	}
	if req, ok := schema["required"].([]any); ok && len(req) > 0 {
		return true
	}
	// A dependentRequired antecedent (rewritten by normalize into
	// allOf[if{required:[k]}then{...}]) adds pressure only when k is itself
	// required, and a non-empty required set has already returned true
	// above; an antecedent that is not required forces no key to appear.
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

// evaluatePresencePressureUnsat implements the presence-pressure-with-empty-
// intersection branch of spec.md §4.4's coverage rules.
func (c *composer) evaluatePresencePressureUnsat(idx *CoverageIndex, canonPath string) {
	hasCoverageSource := len(idx.Patterns) > 0 || len(idx.Has) > 0
	if !hasCoverageSource {
		c.diag.Fatal("UNSAT_AP_FALSE_EMPTY_COVERAGE", canonPath, nil)
		return
	}
	// Without a constructed product DFA at this layer (built lazily only
	// when Generate needs a name witness), Compose records the conservative
	// unsat hint rather than asserting emptiness.
	c.diag.UnsatHint("UNSAT_AP_FALSE_EMPTY_COVERAGE", canonPath, false, "coverageUnknown", nil)
	c.diag.Warn("AP_FALSE_INTERSECTION_APPROX", canonPath, map[string]any{"reason": "presencePressure"})
	if idx.HasUnsafePattern {
		code := "AP_FALSE_UNSAFE_PATTERN"
		if c.opts.PatternPolicy.UnsafeUnderApFalse == "error" {
			c.diag.Fatal(code, canonPath, nil)
		} else {
			c.diag.Warn(code, canonPath, nil)
		}
	}
}

// checkEarlyUnsatRules implements the remaining early-unsat checks spec.md
// §4.4 names (propertyNames/minProperties/required interactions).
func (c *composer) checkEarlyUnsatRules(node *canon.Node, idx *CoverageIndex, canonPath string) {
	schema := node.Schema
	pn, ok := schema["propertyNames"].(map[string]any)
	if ok {
		enumArr, hasEnum := pn["enum"].([]any)
		if hasEnum {
			if len(enumArr) == 0 {
				if mp, ok := toFloat(schema["minProperties"]); ok && mp > 0 {
					c.diag.Fatal("UNSAT_MINPROPS_PNAMES", canonPath, nil)
				}
			}
			enumSet := map[string]bool{}
			for _, e := range enumArr {
				if s, ok := e.(string); ok {
					enumSet[s] = true
				}
			}
			if req, ok := schema["required"].([]any); ok {
				for _, r := range req {
					s, _ := r.(string)
					if !enumSet[s] {
						c.diag.Fatal("UNSAT_REQUIRED_PNAMES", canonPath, map[string]any{"key": s})
						break
					}
				}
			}
		}
	}

	if isAdditionalPropertiesFalse(schema) {
		if req, ok := schema["required"].([]any); ok {
			for _, r := range req {
				s, _ := r.(string)
				if !containsString(idx.Has, s) && !patternMatchesLiteral(idx.Patterns, s) {
					c.diag.Fatal("UNSAT_REQUIRED_VS_PROPERTYNAMES", canonPath, map[string]any{"key": s})
					break
				}
			}
		}
		if idx.Enumerable {
			if mp, ok := toFloat(schema["minProperties"]); ok && int(mp) > len(idx.enumerated) {
				c.diag.Fatal("UNSAT_MINPROPERTIES_VS_COVERAGE", canonPath, map[string]any{"minProperties": mp, "coverage": len(idx.enumerated)})
			}
		}
	}
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func patternMatchesLiteral(entries []PatternEntry, v string) bool {
	for _, e := range entries {
		for _, l := range e.Literals {
			if l == v {
				return true
			}
		}
		if strings.Contains(e.Pattern, v) {
			return true
		}
	}
	return false
}
