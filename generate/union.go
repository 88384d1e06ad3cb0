package generate

import (
	"sort"
	"strconv"

	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/compose"
	"github.com/schemaforge/schemaforge-go/diagnostics"
	"github.com/schemaforge/schemaforge-go/planopts"
	"github.com/schemaforge/schemaforge-go/rng"
	"github.com/schemaforge/schemaforge-go/validator"
)

// generateUnion consumes the compose.BranchDecision already recorded for
// key ("oneOf" or "anyOf") at canonPath — it never re-scores (spec.md
// §4.5). For oneOf it additionally verifies exclusivity against the
// node's normalized branches (each merged with the node's other keywords;
// the user's original schema is not consulted) and applies a minimal
// exclusivity tweak, reselecting among the tied candidate set on tweak
// failure.
func generateUnion(node *canon.Node, plan *compose.Plan, ctx *Context, canonPath, key string) (any, *Failure) {
	decision, ok := plan.Branches[canonPath]
	if !ok {
		return generateFromSchema(node.Schema, ctx, canonPath)
	}

	branches, _ := node.Schema[key].([]any)
	base := shallowSchemaExcept(node.Schema, "oneOf", "anyOf")

	chosen := decision.Chosen
	value, failure := generateBranch(base, branches, chosen, ctx, canonPath, key)
	if failure != nil {
		return nil, failure
	}

	if key != "oneOf" {
		return value, nil
	}

	if !anotherBranchAlsoAccepts(base, branches, value, ctx.Opts) {
		return value, nil
	}

	tweaked, tweakFailure := applyExclusivityTweak(value, ctx, canonPath)
	if tweakFailure == nil {
		if !anotherBranchAlsoAccepts(base, branches, tweaked, ctx.Opts) {
			return tweaked, nil
		}
	}

	if len(decision.Candidate) < 2 {
		// No alternative branch to reselect: surface the best-effort
		// tweaked value rather than looping forever.
		return tweaked, nil
	}

	// Tweak failed to restore exclusivity: reselect among the tied
	// candidates using a fresh seeded draw.
	r := rng.New(ctx.Seed, canonPath+"#exclusivity")
	draw := r.Float64()
	reselected := decision.Candidate[int(draw*float64(len(decision.Candidate)))%len(decision.Candidate)]
	info := ctx.Diag.Node(canonPath)
	info.ChosenBranch = &reselected
	ctx.Diag.BranchDecision(diagnostics.BranchDecision{
		CanonPath:       canonPath,
		ChosenBranch:    reselected,
		CandidateSet:    decision.Candidate,
		ExclusivityRand: &draw,
	})
	return generateBranch(base, branches, reselected, ctx, canonPath, key)
}

func generateBranch(base map[string]any, branches []any, index int, ctx *Context, canonPath, key string) (any, *Failure) {
	if index < 0 || index >= len(branches) {
		return generateFromSchema(base, ctx, canonPath)
	}
	branchSchema, _ := branches[index].(map[string]any)
	merged := mergeSchemas(base, branchSchema)
	return generateFromSchema(merged, ctx, canonPath+"/"+key+"/"+strconv.Itoa(index))
}

// anotherBranchAlsoAccepts checks, via the engine's external validator
// boundary, whether more than one branch accepts value — the
// exclusivity-verification step spec.md §4.5 requires for oneOf. value was
// generated to satisfy the chosen branch, so it always validates against
// at least one; a count above one means some other branch also accepts.
func anotherBranchAlsoAccepts(base map[string]any, branches []any, value any, opts *planopts.Options) bool {
	adapter := validator.New(validator.AJVFlags{ValidateFormats: opts.ValidateFormats})
	accepted := 0
	for _, b := range branches {
		branchSchema, ok := b.(map[string]any)
		if !ok {
			continue
		}
		merged := mergeSchemas(base, branchSchema)
		if adapter.Validate(merged, value) == nil {
			accepted++
		}
	}
	return accepted > 1
}

// applyExclusivityTweak nudges value minimally so it stops matching the
// runner-up branch: a char append for strings, an epsilon nudge for
// numbers, or a descend-and-tweak for objects (spec.md §4.5).
func applyExclusivityTweak(value any, ctx *Context, canonPath string) (any, *Failure) {
	switch v := value.(type) {
	case string:
		tweakChar := "\u0000"
		if ctx.Opts.Conditionals.ExclusivityStringTweak == planopts.TweakPreferASCII {
			tweakChar = "a"
		}
		ctx.Diag.Warn("EXCLUSIVITY_TWEAK_STRING", canonPath, map[string]any{"char": tweakChar})
		return v + tweakChar, nil
	case float64:
		return v + 1e-12, nil
	case int64:
		return v + 1, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			inner := v[k]
			if s, ok := inner.(string); ok {
				out := cloneShallowAny(v)
				out[k] = s + "\u0000"
				return out, nil
			}
			if n, ok := inner.(float64); ok {
				out := cloneShallowAny(v)
				out[k] = n + 1e-12
				return out, nil
			}
		}
		return v, nil
	default:
		return v, nil
	}
}

func cloneShallowAny(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func shallowSchemaExcept(schema map[string]any, exclude ...string) map[string]any {
	skip := map[string]bool{}
	for _, k := range exclude {
		skip[k] = true
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		if !skip[k] {
			out[k] = v
		}
	}
	return out
}

// mergeSchemas overlays branch's keys over base, giving the branch
// precedence (the engine's approximation of conjoining a containing
// schema's own keywords with a chosen oneOf/anyOf branch's keywords).
func mergeSchemas(base, branch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(branch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range branch {
		out[k] = v
	}
	return out
}
