// Package compose implements the engine's Compose subsystem (spec.md §4.4):
// it walks a canon.Tree depth-first and produces a Plan — a coverage index
// for every additionalProperties:false object, a contains bag for every
// array with a contains constraint, and a scored branch decision for every
// anyOf/oneOf node — consumed read-only by generate.
//
// Grounded on schemaprofile/compat.go's recursive type-driven schema walk
// (compatObject/compatArray dispatch on "type" the same way coverage.go and
// contains.go dispatch here), generalized from a two-schema compatibility
// check into a single-schema coverage/selection analysis, and on rng/memo
// for the deterministic, memoized branch-selection machinery spec.md §4.4
// describes.
package compose

import (
	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/diagnostics"
	"github.com/schemaforge/schemaforge-go/memo"
	"github.com/schemaforge/schemaforge-go/planopts"
)

// Plan is Compose's output: every derived decision, keyed by canonical path,
// that Generate needs and never recomputes.
type Plan struct {
	Coverage map[string]*CoverageIndex
	Contains map[string]*ContainsBag
	Branches map[string]*BranchDecision
}

// composer holds the shared, read-only state threaded through the walk.
type composer struct {
	tree  *canon.Tree
	opts  *planopts.Options
	diag  *diagnostics.Collector
	seed  int64
	cache *memo.Cache[*BranchDecision]

	plan *Plan
}

// Compose walks tree and produces a Plan. diag may be nil to discard
// diagnostics (tests only; the engine always supplies a live Collector).
func Compose(tree *canon.Tree, opts *planopts.Options, diag *diagnostics.Collector, globalSeed int64) (*Plan, error) {
	if diag == nil {
		diag = diagnostics.NewCollector()
	}
	if opts == nil {
		defaults := planopts.New()
		opts = defaults
	}
	c := &composer{
		tree:  tree,
		opts:  opts,
		diag:  diag,
		seed:  globalSeed,
		cache: memo.New[*BranchDecision](opts.Cache.LRUSize),
		plan: &Plan{
			Coverage: map[string]*CoverageIndex{},
			Contains: map[string]*ContainsBag{},
			Branches: map[string]*BranchDecision{},
		},
	}

	if err := c.walk(tree.Root, ""); err != nil {
		return nil, err
	}
	c.checkSchemaSizeCap()
	return c.plan, nil
}

// walk recursively visits node, recording coverage/contains/branch
// decisions along canonPath in stable, depth-first, child-order-preserving
// order (spec.md §4.4's "stable child order" requirement).
func (c *composer) walk(node *canon.Node, canonPath string) error {
	if node == nil || node.Always != nil {
		return nil
	}

	if isObjectNode(node) {
		if err := c.buildCoverage(node, canonPath); err != nil {
			return err
		}
	}
	if isArrayNode(node) {
		c.buildContains(node, canonPath)
	}
	for _, key := range []string{"oneOf", "anyOf"} {
		if raw, ok := node.Schema[key]; ok {
			if err := c.selectBranch(node, key, raw, canonPath); err != nil {
				return err
			}
		}
	}

	switch node.Kind {
	case canon.Object:
		for i, k := range node.Keys {
			if err := c.walk(node.Children[i], canonPath+"/properties/"+k); err != nil {
				return err
			}
		}
	case canon.Array:
		for i, child := range node.Children {
			if err := c.walk(child, canonPath+"/prefixItems/"+itoa(i)); err != nil {
				return err
			}
		}
		if node.ItemsSchema != nil {
			if err := c.walk(node.ItemsSchema, canonPath+"/items"); err != nil {
				return err
			}
		}
	}
	return nil
}

func isObjectNode(n *canon.Node) bool {
	if n.Kind == canon.Object {
		return true
	}
	types, _ := n.Schema["type"].([]any)
	for _, t := range types {
		if t == "object" {
			return true
		}
	}
	return false
}

func isArrayNode(n *canon.Node) bool {
	if n.Kind == canon.Array {
		return true
	}
	types, _ := n.Schema["type"].([]any)
	for _, t := range types {
		if t == "array" {
			return true
		}
	}
	return false
}

// checkSchemaSizeCap estimates the canonical tree's size with
// approximateSize and records COMPLEXITY_CAP_SCHEMA_SIZE if the estimate
// exceeds MaxSchemaBytes. The schema is not serialized or canonicalized
// here; the observed figure is that estimate, not a JSON byte length.
func (c *composer) checkSchemaSizeCap() {
	b := approximateSize(c.tree.Root)
	if b > c.opts.Complexity.MaxSchemaBytes {
		c.diag.Cap("COMPLEXITY_CAP_SCHEMA_SIZE")
		c.diag.Warn("COMPLEXITY_CAP_SCHEMA_SIZE", "", map[string]any{
			"limit":    c.opts.Complexity.MaxSchemaBytes,
			"observed": b,
		})
	}
}

func approximateSize(n *canon.Node) int {
	if n == nil {
		return 0
	}
	total := 0
	for k, v := range n.Schema {
		total += len(k) + approximateValueSize(v)
	}
	for _, c := range n.Children {
		total += approximateSize(c)
	}
	if n.ItemsSchema != nil {
		total += approximateSize(n.ItemsSchema)
	}
	return total
}

func approximateValueSize(v any) int {
	switch x := v.(type) {
	case string:
		return len(x)
	case []any:
		total := 0
		for _, e := range x {
			total += approximateValueSize(e)
		}
		return total
	case map[string]any:
		total := 0
		for k, e := range x {
			total += len(k) + approximateValueSize(e)
		}
		return total
	default:
		return 8
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

