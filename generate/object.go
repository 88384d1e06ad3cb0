package generate

import (
	"regexp"
	"regexp/syntax"
	"sort"

	"github.com/schemaforge/schemaforge-go/automaton"
	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/compose"
	"github.com/schemaforge/schemaforge-go/diagnostics"
)

// generateObject implements spec.md §4.5's object recipe: required keys
// first, then additional keys from the coverage index up to minProperties,
// with additionalProperties:false key synthesis via enumerate() or a
// bounded pattern-witness search.
func generateObject(node *canon.Node, plan *compose.Plan, ctx *Context, canonPath string) (map[string]any, *Failure) {
	out := map[string]any{}

	required, _ := node.Schema["required"].([]any)
	for _, r := range required {
		key, ok := r.(string)
		if !ok {
			continue
		}
		if err := fillProperty(node, plan, ctx, canonPath, key, out); err != nil {
			return nil, err
		}
	}

	minProps := 0
	if v, ok := toFloat(node.Schema["minProperties"]); ok {
		minProps = int(v)
	}
	if len(out) < minProps {
		if err := fillFromCoverage(node, plan, ctx, canonPath, minProps, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// fillProperty generates the value for key, from the node's own child
// schema when key is a declared property, else from a matching
// patternProperties schema, else from additionalProperties-as-schema, else
// the type-default empty string.
func fillProperty(node *canon.Node, plan *compose.Plan, ctx *Context, canonPath, key string, out map[string]any) *Failure {
	if child, ok := node.Property(key); ok {
		v, failure := generateNode(child, plan, ctx, canonPath+"/properties/"+key)
		if failure != nil {
			return failure
		}
		out[key] = v
		return nil
	}
	if pp, ok := node.Schema["patternProperties"].(map[string]any); ok {
		patterns := make([]string, 0, len(pp))
		for pattern := range pp {
			patterns = append(patterns, pattern)
		}
		sort.Strings(patterns)
		for _, pattern := range patterns {
			if matchViaRegexp(ctx, pattern, key) {
				schema, _ := pp[pattern].(map[string]any)
				v, failure := generateFromSchema(schema, ctx, canonPath+"/patternProperties")
				if failure != nil {
					return failure
				}
				out[key] = v
				return nil
			}
		}
	}
	if ap, ok := node.Schema["additionalProperties"].(map[string]any); ok {
		v, failure := generateFromSchema(ap, ctx, canonPath+"/additionalProperties")
		if failure != nil {
			return failure
		}
		out[key] = v
		return nil
	}
	out[key] = ""
	return nil
}

// matchViaRegexp reports whether key matches pattern, using the standard
// library's matcher directly (instance validation against an arbitrary
// user pattern, not structural analysis — regexanalyze/automaton are for
// coverage planning only, where the regex is never just "run once").
func matchViaRegexp(ctx *Context, pattern, key string) bool {
	re, ok := ctx.patternCache[pattern]
	if !ok {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			re = nil
		}
		ctx.patternCache[pattern] = re
	}
	return re != nil && re.MatchString(key)
}

// fillFromCoverage draws additional property names up to minProps from the
// coverage index's named set, then its literal pattern entries, then (if
// still short and under additionalProperties:false) a bounded
// pattern-witness automaton search.
func fillFromCoverage(node *canon.Node, plan *compose.Plan, ctx *Context, canonPath string, minProps int, out map[string]any) *Failure {
	idx, ok := plan.Coverage[canonPath]
	if !ok {
		return nil
	}

	candidates := make([]string, 0, len(idx.Has))
	candidates = append(candidates, idx.Has...)
	for _, p := range idx.Patterns {
		candidates = append(candidates, p.Literals...)
	}
	sort.Strings(candidates)

	for _, name := range candidates {
		if len(out) >= minProps {
			break
		}
		if _, already := out[name]; already {
			continue
		}
		if err := fillProperty(node, plan, ctx, canonPath, name, out); err != nil {
			return err
		}
	}

	if len(out) >= minProps {
		return nil
	}
	if !isAdditionalPropertiesFalse(node.Schema) {
		return nil
	}

	witnesses := patternWitnessSearch(node, ctx, canonPath, minProps-len(out), out)
	for _, name := range witnesses {
		if len(out) >= minProps {
			break
		}
		if err := fillProperty(node, plan, ctx, canonPath, name, out); err != nil {
			return err
		}
	}
	return nil
}

func isAdditionalPropertiesFalse(schema map[string]any) bool {
	b, ok := schema["additionalProperties"].(bool)
	return ok && !b
}

// patternWitnessSearch runs the bounded automaton enumeration spec.md
// §4.5 names for additionalProperties:false key synthesis when the
// coverage index's named/literal sets are exhausted but a non-literal
// anchored-safe patternProperties entry remains.
func patternWitnessSearch(node *canon.Node, ctx *Context, canonPath string, need int, have map[string]any) []string {
	pp, ok := node.Schema["patternProperties"].(map[string]any)
	if !ok {
		return nil
	}
	opts := ctx.Opts.PatternWitness
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = 16
	}
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 256
	}

	var out []string
	patterns := make([]string, 0, len(pp))
	for pattern := range pp {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	tried := 0
	for _, pattern := range patterns {
		if len(out) >= need {
			break
		}
		re, err := syntax.Parse(stripAnchors(pattern), syntax.Perl)
		if err != nil {
			continue
		}
		re = re.Simplify()
		maxStates := ctx.Opts.NameEnum.MaxStates
		if maxStates <= 0 {
			maxStates = 4096
		}
		nfa, err := automaton.BuildNFA(re, maxStates)
		if err != nil {
			ctx.Diag.Cap("COMPLEXITY_CAP_PATTERNS")
			ctx.Diag.Warn("COMPLEXITY_CAP_PATTERNS", canonPath, map[string]any{"reason": "candidateBudget"})
			continue
		}
		alphabet := automaton.JointAlphabet(nfa)
		dfa, err := automaton.Determinize(nfa, alphabet, maxStates)
		if err != nil {
			ctx.Diag.Cap("COMPLEXITY_CAP_PATTERNS")
			ctx.Diag.Warn("COMPLEXITY_CAP_PATTERNS", canonPath, map[string]any{"reason": "candidateBudget"})
			continue
		}
		candidates, truncated := automaton.Enumerate(dfa, maxLength, maxCandidates)
		tried += len(candidates)
		for _, c := range candidates {
			if _, already := have[c]; already {
				continue
			}
			out = append(out, c)
			if len(out) >= need {
				break
			}
		}
		if truncated {
			ctx.Diag.WarnBudget("COMPLEXITY_CAP_PATTERNS", canonPath, map[string]any{"reason": "witnessDomainExhausted"}, diagnostics.Budget{Tried: tried, Limit: maxCandidates})
		}
	}
	return out
}

func stripAnchors(pattern string) string {
	s := pattern
	if len(s) > 0 && s[0] == '^' {
		s = s[1:]
	}
	if len(s) > 0 && s[len(s)-1] == '$' {
		s = s[:len(s)-1]
	}
	return s
}
