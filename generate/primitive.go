package generate

import (
	"math"
	"math/big"

	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/canonicaljson"
	"github.com/schemaforge/schemaforge-go/rng"
)

// generateValue dispatches a scalar (non-object, non-array) node following
// the precedence spec.md §4.5 states: const > enum > format > numeric/
// string constraints > type default.
func generateValue(node *canon.Node, ctx *Context, canonPath string) (any, *Failure) {
	schema := node.Schema

	if v, ok := schema["const"]; ok {
		return v, nil
	}
	if enum, ok := schema["enum"].([]any); ok && len(enum) > 0 {
		return enum[0], nil
	}

	types := typeSet(schema)
	typ := primaryType(types)

	if typ == "string" {
		if format, ok := schema["format"].(string); ok && format != "" {
			if !ctx.Opts.ValidateFormats {
				ctx.Diag.Warn("FORMAT_ANNOTATE_ONLY", canonPath, map[string]any{"format": format})
				return "", nil
			}
			r := rng.New(ctx.Seed, ctx.itemPath(canonPath))
			if s, ok := generateFormatValue(ctx, format, r, canonPath); ok {
				return enforceStringLength(s, schema), nil
			}
			return nil, &Failure{Kind: "unsupported-format", CanonPath: canonPath, Format: format, Reason: "no registry entry"}
		}
		return generateString(schema, ctx, canonPath), nil
	}

	switch typ {
	case "boolean":
		return false, nil
	case "null":
		return nil, nil
	case "integer":
		return generateNumber(schema, ctx, canonPath, true), nil
	case "number":
		return generateNumber(schema, ctx, canonPath, false), nil
	default:
		// No usable type constraint: stable default is an empty string,
		// matching the engine's earliest-stable-filler convention.
		return "", nil
	}
}

func typeSet(schema map[string]any) []string {
	arr, _ := schema["type"].([]any)
	out := make([]string, 0, len(arr))
	for _, t := range arr {
		if s, ok := t.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// primaryType picks the first type in the normalized (sorted) type set, or
// "" when the node carries no type constraint at all. Sorting already
// happened in normalize; this just takes the stable first entry so the
// choice is order-insensitive across repeated calls.
func primaryType(types []string) string {
	if len(types) == 0 {
		return ""
	}
	return types[0]
}

// generateString enforces minLength/maxLength (Unicode code points) on an
// otherwise-empty stable default.
func generateString(schema map[string]any, ctx *Context, canonPath string) string {
	return enforceStringLength("", schema)
}

func enforceStringLength(s string, schema map[string]any) string {
	runes := []rune(s)
	if minLen, ok := toFloat(schema["minLength"]); ok {
		for len(runes) < int(minLen) {
			runes = append(runes, 'a')
		}
	}
	if maxLen, ok := toFloat(schema["maxLength"]); ok && len(runes) > int(maxLen) {
		runes = runes[:int(maxLen)]
	}
	return string(runes)
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

// generateNumber implements spec.md §4.5's numeric precedence: multipleOf
// LCM-reduced over allOf-merged steps, exclusive bounds enforced via the
// configured rational.decimalPrecision epsilon, type default (0) otherwise.
func generateNumber(schema map[string]any, ctx *Context, canonPath string, integer bool) any {
	steps := collectMultipleOf(schema)

	lo, hasLo, loExcl := bound(schema, "minimum", "exclusiveMinimum")
	hi, hasHi, hiExcl := bound(schema, "maximum", "exclusiveMaximum")

	epsilon := epsilonFor(ctx, lo, hi)

	effLo, effHi := lo, hi
	if loExcl {
		effLo += epsilon
	}
	if hiExcl {
		effHi -= epsilon
	}

	if len(steps) > 0 {
		step := lcmReduce(steps)
		value := alignToStep(step, effLo, hasLo)
		if hasHi && value > effHi {
			value = floorToStep(step, effHi)
		}
		if integer {
			return int64(value + 0.5*sign(value))
		}
		return value
	}

	value := 0.0
	if hasLo {
		value = effLo
	} else if hasHi {
		value = effHi
	}

	if integer {
		// Round toward the inside of the range so an exclusive (or
		// fractional) bound is never rounded back onto or past itself.
		if hasLo {
			return int64(math.Ceil(value))
		}
		return int64(math.Floor(value))
	}
	return value
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// collectMultipleOf gathers every multipleOf step on schema and any
// allOf-residual conjunct (multipleOf is not one of the keywords
// Normalize's allOf flattening merges, so each allOf branch's multipleOf
// arrives here as its own residual conjunct).
func collectMultipleOf(schema map[string]any) []float64 {
	var steps []float64
	if v, ok := toFloat(schema["multipleOf"]); ok && v > 0 {
		steps = append(steps, v)
	}
	if arr, ok := schema["allOf"].([]any); ok {
		for _, b := range arr {
			if bm, ok := b.(map[string]any); ok {
				if v, ok := toFloat(bm["multipleOf"]); ok && v > 0 {
					steps = append(steps, v)
				}
			}
		}
	}
	return steps
}

// lcmReduce computes the least common multiple of steps via exact rational
// arithmetic (math/big), since floating-point LCM accumulates error across
// more than a couple of terms. A stdlib-only concern: no third-party
// arbitrary-precision rational type appears anywhere in the pack.
func lcmReduce(steps []float64) float64 {
	if len(steps) == 1 {
		return steps[0]
	}
	acc := big.NewRat(1, 1).SetFloat64(steps[0])
	for _, s := range steps[1:] {
		r := new(big.Rat).SetFloat64(s)
		if r == nil || acc == nil {
			continue
		}
		acc = ratLCM(acc, r)
	}
	f, _ := acc.Float64()
	return f
}

// ratLCM computes lcm(a,b) for positive rationals via lcm(a,b) = a*b/gcd(a,b),
// implemented over the rationals' numerators/denominators after putting
// both over a common denominator.
func ratLCM(a, b *big.Rat) *big.Rat {
	denom := new(big.Int).Mul(a.Denom(), b.Denom())
	an := new(big.Int).Mul(a.Num(), b.Denom())
	bn := new(big.Int).Mul(b.Num(), a.Denom())
	g := new(big.Int).GCD(nil, nil, an, bn)
	if g.Sign() == 0 {
		return a
	}
	lcmNum := new(big.Int).Div(new(big.Int).Mul(an, bn), g)
	return new(big.Rat).SetFrac(lcmNum, denom)
}

// alignToStep picks the smallest absolute multiple of step (the lattice is
// anchored at 0, never at lo — a lattice anchored at lo only produces
// multiples of step when lo itself is one) that is at or above lo, or 0
// when there is no lower bound.
func alignToStep(step, lo float64, hasLo bool) float64 {
	if !hasLo {
		return 0
	}
	return math.Ceil(lo/step) * step
}

// floorToStep picks the largest absolute multiple of step at or below hi.
func floorToStep(step, hi float64) float64 {
	return math.Floor(hi/step) * step
}

func bound(schema map[string]any, inclusiveKey, exclusiveKey string) (value float64, has bool, exclusive bool) {
	if v, ok := toFloat(schema[exclusiveKey]); ok {
		return v, true, true
	}
	if v, ok := toFloat(schema[inclusiveKey]); ok {
		return v, true, false
	}
	return 0, false, false
}

// epsilonFor derives the exclusive-bound nudge: the configured decimal
// precision epsilon, widened to a step-relative tolerance for
// large-magnitude bounds (spec.md §4.5).
func epsilonFor(ctx *Context, lo, hi float64) float64 {
	precision := ctx.Opts.Rational.DecimalPrecision
	if precision <= 0 {
		precision = 6
	}
	eps := 1.0
	for i := 0; i < precision; i++ {
		eps /= 10
	}
	magnitude := absf(lo)
	if absf(hi) > magnitude {
		magnitude = absf(hi)
	}
	if magnitude > 1e6 {
		eps = magnitude * 1e-9
	}
	return eps
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// canonicalValueKey renders v as canonical JSON for uniqueItems
// deduplication (spec.md §4.5's "deduplicate by canonical JSON").
func canonicalValueKey(v any) string {
	b, err := canonicaljson.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
