// Package generate implements the engine's Generate subsystem; see
// context.go for the package doc comment and shared Context/Failure
// types.
package generate

import (
	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/compose"
	"github.com/schemaforge/schemaforge-go/diagnostics"
	"github.com/schemaforge/schemaforge-go/planopts"
)

// Item is one generated instance: either a value or a failure, never
// both (spec.md §4.5's Result sum type, before the engine package
// re-wraps it as schemaforge.Result[T]).
type Item struct {
	Value any
	Err   *Failure
}

// Generate emits count items from tree/plan, one Context per item so RNG
// draws are deterministic per (seed, canonPath, item-index).
func Generate(tree *canon.Tree, plan *compose.Plan, opts *planopts.Options, diag *diagnostics.Collector, seed int64, count int) []Item {
	if opts == nil {
		opts = planopts.New()
	}
	if diag == nil {
		diag = diagnostics.NewCollector()
	}

	items := make([]Item, 0, count)
	validateErrors := 0
	for i := 0; i < count; i++ {
		ctx := NewContext(opts, diag, seed)
		ctx.Item = i
		value, failure := generateNode(tree.Root, plan, ctx, "")
		if failure != nil {
			validateErrors++
			items = append(items, Item{Err: failure})
			continue
		}
		items = append(items, Item{Value: value})
	}
	diag.SetMetrics(diagnostics.Metrics{ValidateErrors: validateErrors})
	return items
}

// generateNode is the dispatch table spec.md §9 describes: canonical kind
// tags to generator functions, keyed here by node.Kind plus the
// oneOf/anyOf/preferExamples/Always special cases that take precedence
// over the plain kind switch.
func generateNode(node *canon.Node, plan *compose.Plan, ctx *Context, canonPath string) (any, *Failure) {
	if node == nil {
		return "", nil
	}
	if node.Always != nil {
		if !*node.Always {
			return nil, &Failure{Kind: "unsatisfiable", CanonPath: canonPath, Reason: "schema is the literal false"}
		}
		return "", nil
	}

	if v, ok := exampleValue(node.Schema, ctx); ok {
		return v, nil
	}

	if _, ok := node.Schema["oneOf"]; ok {
		return generateUnion(node, plan, ctx, canonPath, "oneOf")
	}
	if _, ok := node.Schema["anyOf"]; ok {
		return generateUnion(node, plan, ctx, canonPath, "anyOf")
	}

	switch node.Kind {
	case canon.Object:
		return generateObject(node, plan, ctx, canonPath)
	case canon.Array:
		return generateArray(node, plan, ctx, canonPath)
	default:
		return generateValue(node, ctx, canonPath)
	}
}

// exampleValue implements spec.md §4.5's preferExamples: when set and the
// schema carries "example" or a non-empty "examples", emit it verbatim.
func exampleValue(schema map[string]any, ctx *Context) (any, bool) {
	if !ctx.Opts.PreferExamples {
		return nil, false
	}
	if v, ok := schema["example"]; ok {
		return v, true
	}
	if arr, ok := schema["examples"].([]any); ok && len(arr) > 0 {
		return arr[0], true
	}
	return nil, false
}
